// Package repository: 분석 엔티티에 대한 GORM 기반 저장소.
// 계층 엔티티의 원자적 find-or-create, 세션 수명주기, TaskAttempt 상태 전이,
// Action 기록을 담당한다. 교차 엔티티 불변식(사용자당 활성 세션 1개,
// 자연키 유일성)은 DB 제약으로 강제하고, 제약 위반은 도메인 에러로 번역한다.
//
// 메서드들은 도메인별 파일로 분리됨:
//   - entities.go: Organization/Game/User/Task 해석
//   - sessions.go: 세션 생성/종료 및 선점(preempt) 정리
//   - attempts.go: TaskAttempt 생성/동기화
//   - actions.go: Action 기록
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
)

// Repository: DB 접근을 위한 GORM 기반 리포지토리
type Repository struct {
	db *gorm.DB
}

// New: 새로운 Repository 인스턴스를 생성한다.
// DB 핸들은 gorm.Config{TranslateError: true}로 열려 있어야
// 유니크 제약 위반이 gorm.ErrDuplicatedKey로 판별된다.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB: 내부 GORM 핸들을 반환한다. (헬스 체크 등 저수준 접근용)
func (r *Repository) DB() *gorm.DB { return r.db }

// AutoMigrate: 자동으로 DB 테이블 스키마를 마이그레이션한다.
// 사용자당 활성 세션 1개 제약은 부분 유니크 인덱스로 별도 생성한다.
// (GORM 태그로는 WHERE 조건부 인덱스를 표현할 수 없음)
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}
	if err := r.db.WithContext(ctx).AutoMigrate(
		&model.Organization{},
		&model.Game{},
		&model.User{},
		&model.Session{},
		&model.Task{},
		&model.TaskAttempt{},
		&model.Action{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	// PostgreSQL과 SQLite 모두 부분 인덱스를 지원한다.
	if err := r.db.WithContext(ctx).Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active_per_user ON sessions (user_id) WHERE NOT ended",
	).Error; err != nil {
		return fmt.Errorf("create active session index failed: %w", err)
	}
	return nil
}

// isDuplicate: 유니크 제약 위반 여부를 판별한다.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// dbErr: 저장소 에러를 DatabaseError로 감싼다. 도메인 에러는 그대로 통과시킨다.
func dbErr(operation string, err error) error {
	if cerrors.IsClientFault(err) {
		return err
	}
	return cerrors.DatabaseError{Operation: operation, Err: err}
}
