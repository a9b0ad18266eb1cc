package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/consumer"
)

// wsUpgrader: WebSocket 연결 업그레이드용 설정입니다.
// 게임 클라이언트는 출처가 다양하므로 Origin 검증은 CORS 설정에 위임합니다.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleIngest: 텔레메트리 수집 WebSocket 핸들러.
// 연결당 프레임을 순서대로 처리하며, 요청 프레임과 같은 프레이밍(텍스트/바이너리)으로
// 응답합니다. 연결이 끊기면 활성 세션을 종료하고 "Session ended" 프레임을
// best-effort로 전송합니다.
func (s *Server) handleIngest(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("ws_upgrade_failed", slog.Any("error", err))
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(s.cfg.Ingest.MaxFrameBytes)

	// 연결당 프레임 스로틀. 초과분은 드롭하지 않고 대기시킨다.
	var limiter *rate.Limiter
	if s.cfg.Ingest.FrameRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.Ingest.FrameRate), s.cfg.Ingest.FrameBurst)
	}

	ctx := c.Request.Context()
	state := consumer.NewConnState()
	remote := conn.RemoteAddr().String()
	s.logger.Info("ws_connected", slog.String("remote", remote))

	// 연결 종료 정리는 요청 context가 이미 취소된 후에 실행될 수 있다.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if resp := s.dispatcher.Disconnect(cleanupCtx, state); resp != nil {
			s.writeResponse(conn, state, resp)
		}
		s.logger.Info("ws_disconnected", slog.String("remote", remote))
	}()

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.logger.Warn("ws_read_failed", slog.String("remote", remote), slog.Any("error", err))
			}
			return
		}

		switch messageType {
		case websocket.TextMessage, websocket.BinaryMessage:
		default:
			continue
		}
		state.SetBinary(messageType == websocket.BinaryMessage)

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		resp := s.dispatcher.Handle(ctx, state, frame)
		if resp == nil {
			continue
		}
		if !s.writeResponse(conn, state, resp) {
			return
		}
	}
}

// writeResponse: 응답을 연결의 현재 프레이밍 모드로 전송한다.
func (s *Server) writeResponse(conn *websocket.Conn, state *consumer.ConnState, resp *consumer.Response) bool {
	out, err := resp.Encode()
	if err != nil {
		s.logger.Error("ws_encode_failed", slog.Any("error", err))
		return true
	}

	messageType := websocket.TextMessage
	if state.IsBinary() {
		messageType = websocket.BinaryMessage
	}

	if s.cfg.Ingest.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.Ingest.WriteTimeout))
	}
	if err := conn.WriteMessage(messageType, out); err != nil {
		return false
	}
	return true
}
