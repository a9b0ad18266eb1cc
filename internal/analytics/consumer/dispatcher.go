package consumer

import (
	"context"
	"log/slog"

	json "github.com/goccy/go-json"

	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/repository"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/service"
)

// Dispatcher: 수신 프레임을 메시지 종류별 핸들러로 라우팅한다.
// 모든 에러는 해당 프레임의 에러 봉투로 국소 처리되며 연결을 종료시키지 않는다.
type Dispatcher struct {
	resolver *service.Resolver
	sessions *service.Sessions
	repo     *repository.Repository
	logger   *slog.Logger
}

// NewDispatcher: 새로운 Dispatcher를 생성한다.
func NewDispatcher(resolver *service.Resolver, sessions *service.Sessions, repo *repository.Repository, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{resolver: resolver, sessions: sessions, repo: repo, logger: logger}
}

// Handle: 프레임 하나를 끝까지 처리하고 응답을 반환한다.
// 봉투 필드(message_type, message_payload) 누락은 MissingFields 에러이며
// 이후 처리는 수행하지 않는다. 알 수 없는 메시지 종류는 의도적으로 무시한다
// (응답 없음 — 전방 호환을 위한 fail-open, 제품 승인 대상으로 플래그됨).
func (d *Dispatcher) Handle(ctx context.Context, state *ConnState, frame []byte) *Response {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		d.logger.Warn("frame_decode_failed", slog.Any("error", err))
		return errorResponse(cerrors.MissingFieldsError{Fields: []string{"message_type", "message_payload"}})
	}

	var missing []string
	if env.MessageType == nil {
		missing = append(missing, "message_type")
	}
	if env.MessagePayload == nil {
		missing = append(missing, "message_payload")
	}
	if len(missing) > 0 {
		return errorResponse(cerrors.MissingFieldsError{Fields: missing})
	}

	var resp *Response
	switch *env.MessageType {
	case MessageInit:
		resp = d.handleInit(ctx, state, env.MessagePayload)
	case MessageTask:
		resp = d.handleTask(ctx, env.MessagePayload)
	case MessageTaskAttempt:
		resp = d.handleTaskAttempt(ctx, state, env.MessagePayload)
	case MessageSyncTaskAttempt:
		resp = d.handleSyncTaskAttempt(ctx, env.MessagePayload)
	case MessageAction:
		resp = d.handleAction(ctx, state, env.MessagePayload)
	default:
		// 알 수 없는 종류는 조용히 무시한다.
		d.logger.Debug("unknown_message_type", slog.String("message_type", *env.MessageType))
		return nil
	}

	if resp != nil && resp.Error != "" {
		d.logger.Info("message_rejected",
			slog.String("message_type", *env.MessageType),
			slog.String("reason", resp.Error),
		)
	}
	return resp
}

// Disconnect: 연결 종료 정리를 수행한다. 두 번 호출해도 정리는 한 번만 실행되며,
// 현재 세션이 없으면 no-op이다. 세션이 이번 정리로 실제 종료된 경우에만
// "Session ended" 프레임을 반환한다.
func (d *Dispatcher) Disconnect(ctx context.Context, state *ConnState) *Response {
	if !state.markDisconnected() {
		return nil
	}
	sess, user := state.Session()
	if sess == nil {
		return nil
	}

	ended, didEnd, err := d.sessions.End(ctx, sess.ID)
	if err != nil {
		// 종료 정리 실패는 로그만 남기고 연결은 어차피 닫힌다.
		d.logger.Error("disconnect_cleanup_failed",
			slog.Uint64("session_id", sess.ID),
			slog.Any("error", err),
		)
		return nil
	}
	if !didEnd {
		return nil
	}
	return &Response{Message: "Session ended", Session: serializeSession(ended, user)}
}
