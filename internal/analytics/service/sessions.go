package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/repository"
)

// Sessions: 세션 수명주기를 관리한다.
// 사용자당 활성 세션 1개 불변식은 저장소의 부분 유니크 인덱스가 강제하며,
// 이 서비스는 재사용/생성 정책과 생성 레이스 복구만 담당한다.
type Sessions struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewSessions: 새로운 세션 수명주기 서비스를 생성한다.
func NewSessions(repo *repository.Repository, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{repo: repo, logger: logger}
}

// Active: 사용자의 활성 세션을 조회한다. 없으면 (nil, nil)을 반환하며 생성하지 않는다.
// (비-init 메시지의 세션 요구 검사용 — 암묵적 생성 금지)
func (s *Sessions) Active(ctx context.Context, userID uint64) (*model.Session, error) {
	return s.repo.FindActiveSession(ctx, userID)
}

// Ensure: 사용자의 활성 세션을 반환한다. 있으면 재사용, 없으면 새로 생성한다.
// 생성이 유니크 제약에 막히면(다른 연결이 방금 생성) 조회를 한 번 재시도하고,
// 그래도 없으면 ConflictingActiveSessionError를 그대로 반환한다.
func (s *Sessions) Ensure(ctx context.Context, userID uint64) (*model.Session, error) {
	existing, err := s.repo.FindActiveSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.repo.CreateSession(ctx, userID, time.Now().UTC())
	if err == nil {
		s.logger.Info("session_started",
			slog.Uint64("session_id", created.ID),
			slog.Uint64("user_id", userID),
		)
		return created, nil
	}

	var conflict cerrors.ConflictingActiveSessionError
	if !errors.As(err, &conflict) {
		return nil, err
	}

	// 레이스 패배 — 승자가 만든 세션을 한 번 더 찾아본다.
	winner, lookupErr := s.repo.FindActiveSession(ctx, userID)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if winner != nil {
		s.logger.Debug("session_create_race_recovered",
			slog.Uint64("session_id", winner.ID),
			slog.Uint64("user_id", userID),
		)
		return winner, nil
	}
	return nil, err
}

// End: 세션을 종료하고 pending 시도들을 preempted로 정리한다.
// 이미 종료된 세션이면 no-op이며, 그 사실을 bool로 알린다.
func (s *Sessions) End(ctx context.Context, sessionID uint64) (*model.Session, bool, error) {
	ended, didEnd, err := s.repo.EndSession(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}
	if didEnd {
		s.logger.Info("session_ended", slog.Uint64("session_id", sessionID))
	}
	return ended, didEnd, nil
}
