package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
)

// FindActiveSession: 사용자의 활성(ended=false) 세션을 조회한다.
// 없으면 (nil, nil)을 반환한다. 부분 유니크 인덱스 덕에 활성 세션은 최대 1개다.
func (r *Repository) FindActiveSession(ctx context.Context, userID uint64) (*model.Session, error) {
	var row model.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND NOT ended", userID).
		Order("id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr("find_active_session", err)
	}
	return &row, nil
}

// FindSessionByID: 기본 키로 세션을 조회한다. (응답 직렬화용)
func (r *Repository) FindSessionByID(ctx context.Context, id uint64) (*model.Session, error) {
	var row model.Session
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, dbErr("find_session_by_id", err)
	}
	return &row, nil
}

// CreateSession: 사용자의 새 활성 세션을 생성한다.
// 부분 유니크 인덱스 위반은 "다른 연결이 이미 활성 세션을 보유"로 번역한다.
func (r *Repository) CreateSession(ctx context.Context, userID uint64, now time.Time) (*model.Session, error) {
	row := model.Session{UserID: userID, StartedAt: now, Ended: false}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return nil, cerrors.ConflictingActiveSessionError{UserID: userID}
		}
		return nil, dbErr("create_session", err)
	}
	return &row, nil
}

// EndSession: 세션을 종료하고 소속 pending TaskAttempt를 일괄 preempted로 전이한다.
// 단일 트랜잭션으로 수행되며, 이미 종료된 세션이면 아무것도 변경하지 않는다.
// 반환값의 bool은 이번 호출이 실제로 세션을 종료했는지 여부다.
func (r *Repository) EndSession(ctx context.Context, sessionID uint64, now time.Time) (*model.Session, bool, error) {
	var didEnd bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// pending 시도를 행 단위 경쟁 없이 한 번의 UPDATE로 선점 처리한다.
		if err := tx.Model(&model.TaskAttempt{}).
			Where("session_id = ? AND status = ?", sessionID, model.StatusPending).
			Updates(map[string]any{
				"status":   string(model.StatusPreempted),
				"ended_at": now,
			}).Error; err != nil {
			return fmt.Errorf("preempt pending attempts failed: %w", err)
		}

		res := tx.Model(&model.Session{}).
			Where("id = ? AND NOT ended", sessionID).
			Updates(map[string]any{
				"ended":    true,
				"ended_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("end session failed: %w", res.Error)
		}
		didEnd = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, false, dbErr("end_session", err)
	}

	var row model.Session
	if err := r.db.WithContext(ctx).First(&row, sessionID).Error; err != nil {
		return nil, didEnd, dbErr("end_session", err)
	}
	return &row, didEnd, nil
}
