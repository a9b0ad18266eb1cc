package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
)

// getOrCreate: 자연 키 기반의 원자적 find-or-create 공통 구현.
// INSERT ... ON CONFLICT DO NOTHING 후, 삽입되지 않았으면 기존 행을 조회한다.
// 경쟁하는 두 연결이 동시에 호출해도 중복 행이 생기지 않는다. (인프로세스 락 없음)
func getOrCreate[T any](ctx context.Context, db *gorm.DB, row *T, lookup func(*gorm.DB) *gorm.DB, op string) (*T, bool, error) {
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return nil, false, dbErr(op, res.Error)
	}
	if res.RowsAffected > 0 {
		return row, true, nil
	}

	// 이미 존재함 — 기존 행을 반환한다.
	var existing T
	if err := lookup(db.WithContext(ctx)).First(&existing).Error; err != nil {
		return nil, false, dbErr(op, err)
	}
	return &existing, false, nil
}

// GetOrCreateOrganization: 조직을 이름으로 조회하거나 없으면 생성한다.
func (r *Repository) GetOrCreateOrganization(ctx context.Context, name string) (*model.Organization, bool, error) {
	row := model.Organization{OrganizationName: name}
	return getOrCreate(ctx, r.db, &row, func(db *gorm.DB) *gorm.DB {
		return db.Where("organization_name = ?", name)
	}, "get_or_create_organization")
}

// GetOrCreateGame: (조직, 이름, 버전)으로 게임을 조회하거나 없으면 생성한다.
func (r *Repository) GetOrCreateGame(ctx context.Context, orgID uint64, name, version string) (*model.Game, bool, error) {
	row := model.Game{OrganizationID: orgID, GameName: name, VersionNumber: version}
	return getOrCreate(ctx, r.db, &row, func(db *gorm.DB) *gorm.DB {
		return db.Where("organization_id = ? AND game_name = ? AND version_number = ?", orgID, name, version)
	}, "get_or_create_game")
}

// GetOrCreateUser: (게임, vendor_id, platform)으로 사용자를 조회하거나 없으면 생성한다.
func (r *Repository) GetOrCreateUser(ctx context.Context, gameID uint64, vendorID, platform string) (*model.User, bool, error) {
	row := model.User{GameID: gameID, VendorID: vendorID, Platform: platform}
	return getOrCreate(ctx, r.db, &row, func(db *gorm.DB) *gorm.DB {
		return db.Where("game_id = ? AND vendor_id = ? AND platform = ?", gameID, vendorID, platform)
	}, "get_or_create_user")
}

// GetOrCreateTask: (게임, 이름)으로 과제 정의를 조회하거나 없으면 생성한다.
func (r *Repository) GetOrCreateTask(ctx context.Context, gameID uint64, taskName string) (*model.Task, bool, error) {
	row := model.Task{GameID: gameID, TaskName: taskName}
	return getOrCreate(ctx, r.db, &row, func(db *gorm.DB) *gorm.DB {
		return db.Where("game_id = ? AND task_name = ?", gameID, taskName)
	}, "get_or_create_task")
}

// FindOrganization: 조직을 이름으로 조회한다. 없으면 NotFoundError를 반환한다.
func (r *Repository) FindOrganization(ctx context.Context, name string) (*model.Organization, error) {
	var row model.Organization
	err := r.db.WithContext(ctx).Where("organization_name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cerrors.NotFoundError{Kind: "organization", Key: name}
	}
	if err != nil {
		return nil, dbErr("find_organization", err)
	}
	return &row, nil
}

// FindGame: (조직, 이름, 버전)으로 게임을 조회한다. 없으면 NotFoundError를 반환한다.
func (r *Repository) FindGame(ctx context.Context, orgID uint64, name, version string) (*model.Game, error) {
	var row model.Game
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND game_name = ? AND version_number = ?", orgID, name, version).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cerrors.NotFoundError{Kind: "game", Key: fmt.Sprintf("%s version %s", name, version)}
	}
	if err != nil {
		return nil, dbErr("find_game", err)
	}
	return &row, nil
}

// FindUser: (게임, vendor_id, platform)으로 사용자를 조회한다. 없으면 NotFoundError를 반환한다.
func (r *Repository) FindUser(ctx context.Context, game *model.Game, vendorID, platform string) (*model.User, error) {
	var row model.User
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND vendor_id = ? AND platform = ?", game.ID, vendorID, platform).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		key := fmt.Sprintf("%s on %s for %s version %s", vendorID, platform, game.GameName, game.VersionNumber)
		return nil, cerrors.NotFoundError{Kind: "user", Key: key}
	}
	if err != nil {
		return nil, dbErr("find_user", err)
	}
	return &row, nil
}

// FindTaskByID: 기본 키로 과제 정의를 조회한다. (응답 직렬화용)
func (r *Repository) FindTaskByID(ctx context.Context, id uint64) (*model.Task, error) {
	var row model.Task
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, dbErr("find_task_by_id", err)
	}
	return &row, nil
}

// FindTask: 게임 범위에서 과제 정의를 이름으로 조회한다. 없으면 NotFoundError를 반환한다.
func (r *Repository) FindTask(ctx context.Context, gameID uint64, taskName string) (*model.Task, error) {
	var row model.Task
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND task_name = ?", gameID, taskName).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cerrors.NotFoundError{Kind: "task", Key: strings.TrimSpace(taskName)}
	}
	if err != nil {
		return nil, dbErr("find_task", err)
	}
	return &row, nil
}
