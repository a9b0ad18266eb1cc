package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
)

// CreateAction: 세션에 귀속된 Action을 기록하고 TaskAttempt 참조를 연결한다.
// uuid 중 하나라도 해석에 실패하면 트랜잭션 전체를 롤백한다 — 부분 연결 없음,
// 저장소 쓰기 0건. 타임스탬프는 서버가 부여한다.
func (r *Repository) CreateAction(ctx context.Context, sessionID uint64, blob datatypes.JSON, attemptUUIDs []string, now time.Time) (*model.Action, []model.TaskAttempt, error) {
	var (
		action   model.Action
		attempts []model.TaskAttempt
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := New(tx)
		found, err := txRepo.FindTaskAttemptsByUUIDs(ctx, attemptUUIDs)
		if err != nil {
			return err
		}

		action = model.Action{
			SessionID: sessionID,
			JSONBlob:  blob,
			Timestamp: now,
		}
		if err := tx.Omit("TaskAttempts").Create(&action).Error; err != nil {
			return fmt.Errorf("create action failed: %w", err)
		}

		if len(found) > 0 {
			if err := tx.Model(&action).Association("TaskAttempts").Append(&found); err != nil {
				return fmt.Errorf("associate task attempts failed: %w", err)
			}
		}
		attempts = found
		return nil
	})
	if err != nil {
		return nil, nil, dbErr("create_action", err)
	}
	return &action, attempts, nil
}
