package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
)

// TaskAttemptParams: TaskAttempt 생성 파라미터 구조체
type TaskAttemptParams struct {
	TaskID      uint64
	SessionID   uint64
	AttemptUUID string
	Status      model.AttemptStatus
	NumFailures int
	Statistics  datatypes.JSON
	Now         time.Time
}

// GetOrCreateTaskAttempt: attempt_uuid 기준으로 멱등하게 TaskAttempt를 생성한다.
// 동일 uuid의 행이 이미 있으면 생성하지 않고 기존 행을 반환한다. (재전송 안전)
func (r *Repository) GetOrCreateTaskAttempt(ctx context.Context, p TaskAttemptParams) (*model.TaskAttempt, bool, error) {
	row := model.TaskAttempt{
		TaskID:          p.TaskID,
		SessionID:       p.SessionID,
		TaskAttemptUUID: p.AttemptUUID,
		StartedAt:       p.Now,
		Status:          string(p.Status),
		NumFailures:     p.NumFailures,
		Statistics:      p.Statistics,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_attempt_uuid"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return nil, false, dbErr("create_task_attempt", res.Error)
	}
	if res.RowsAffected > 0 {
		return &row, true, nil
	}

	existing, err := r.FindTaskAttemptByUUID(ctx, p.AttemptUUID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindTaskAttemptByUUID: attempt_uuid로 TaskAttempt를 조회한다. 없으면 NotFoundError.
func (r *Repository) FindTaskAttemptByUUID(ctx context.Context, uuid string) (*model.TaskAttempt, error) {
	var row model.TaskAttempt
	err := r.db.WithContext(ctx).Where("task_attempt_uuid = ?", uuid).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cerrors.NotFoundError{Kind: "task attempt", Key: uuid}
	}
	if err != nil {
		return nil, dbErr("find_task_attempt", err)
	}
	return &row, nil
}

// SyncTaskAttempt: TaskAttempt의 status/statistics/num_failures를 통째로 덮어쓴다.
// 터미널 가드는 조건부 UPDATE 한 문장으로 수행한다 — 저장된 상태가 터미널이면서
// 요청 상태와 다른 행은 갱신 대상에서 제외되므로, 동시 sync 간에도
// check-then-write 레이스가 없다. ended_at은 터미널 전이에서만 기록한다.
func (r *Repository) SyncTaskAttempt(ctx context.Context, uuid string, status model.AttemptStatus, statistics datatypes.JSON, numFailures int, now time.Time) (*model.TaskAttempt, error) {
	updates := map[string]any{
		"status":       string(status),
		"statistics":   statistics,
		"num_failures": numFailures,
	}
	if status.Terminal() {
		updates["ended_at"] = now
	}

	res := r.db.WithContext(ctx).Model(&model.TaskAttempt{}).
		Where("task_attempt_uuid = ?", uuid).
		Where("status NOT IN ? OR status = ?",
			[]string{string(model.StatusSucceeded), string(model.StatusFailed), string(model.StatusPreempted)},
			string(status)).
		Updates(updates)
	if res.Error != nil {
		return nil, dbErr("sync_task_attempt", res.Error)
	}

	row, err := r.FindTaskAttemptByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		// 행은 존재하지만 갱신되지 않음 = 터미널 상태 변경 시도
		return nil, cerrors.TerminalStateViolationError{
			UUID:      uuid,
			Current:   row.Status,
			Requested: string(status),
		}
	}
	return row, nil
}

// FindTaskAttemptsByUUIDs: uuid 목록으로 TaskAttempt들을 조회한다.
// 존재하지 않는 uuid가 하나라도 있으면 해당 uuid를 지목하는 NotFoundError를 반환한다.
func (r *Repository) FindTaskAttemptsByUUIDs(ctx context.Context, uuids []string) ([]model.TaskAttempt, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	var rows []model.TaskAttempt
	if err := r.db.WithContext(ctx).Where("task_attempt_uuid IN ?", uuids).Find(&rows).Error; err != nil {
		return nil, dbErr("find_task_attempts", err)
	}

	found := make(map[string]bool, len(rows))
	for _, row := range rows {
		found[row.TaskAttemptUUID] = true
	}
	for _, uuid := range uuids {
		if !found[uuid] {
			return nil, cerrors.NotFoundError{Kind: "task attempt", Key: uuid}
		}
	}
	return rows, nil
}
