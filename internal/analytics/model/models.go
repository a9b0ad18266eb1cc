// Package model: 분석 서버의 데이터베이스 모델을 정의한다.
// 엔티티 계층: Organization → Game → User → Session → TaskAttempt/Action,
// Task는 Game 범위에서 정의된다.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// Organization: 게임을 제작하는 조직 (ex: GDIAC)
type Organization struct {
	ID               uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrganizationName string `gorm:"column:organization_name;not null;uniqueIndex" json:"organization_name"`
}

func (Organization) TableName() string { return "organizations" }

// Game: 특정 버전의 게임. 동일 조직 내에서 (이름, 버전) 조합은 유일하다.
// 버전이 다르면 별도의 행으로 취급한다. (기존 행의 변형이 아님)
type Game struct {
	ID             uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrganizationID uint64 `gorm:"column:organization_id;not null;uniqueIndex:idx_games_org_name_version,priority:1" json:"organization"`
	GameName       string `gorm:"column:game_name;not null;uniqueIndex:idx_games_org_name_version,priority:2" json:"game_name"`
	VersionNumber  string `gorm:"column:version_number;not null;uniqueIndex:idx_games_org_name_version,priority:3" json:"version_number"`
}

func (Game) TableName() string { return "games" }

// User: 특정 게임의 사용자. 동일 게임 내에서 (vendor_id, platform) 조합은 유일하다.
type User struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	GameID   uint64 `gorm:"column:game_id;not null;uniqueIndex:idx_users_game_vendor_platform,priority:1" json:"game"`
	VendorID string `gorm:"column:vendor_id;not null;uniqueIndex:idx_users_game_vendor_platform,priority:2" json:"vendor_id"`
	Platform string `gorm:"column:platform;not null;uniqueIndex:idx_users_game_vendor_platform,priority:3" json:"platform"`
}

func (User) TableName() string { return "users" }

// Session: 사용자의 게임플레이 세션.
// 사용자당 활성(ended=false) 세션은 최대 1개 — 부분 유니크 인덱스로 강제한다.
// (repository.AutoMigrate에서 생성, 동시 연결 간 레이스를 DB 레벨에서 차단)
type Session struct {
	ID        uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    uint64     `gorm:"column:user_id;not null;index" json:"user"`
	StartedAt time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at"`
	Ended     bool       `gorm:"column:ended;not null;default:false" json:"ended"`
}

func (Session) TableName() string { return "sessions" }

// Task: 플레이어가 완수해야 하는 인게임 과제의 정의. 시도(TaskAttempt)가 아니다.
// 동일 게임 내에서 task_name은 유일하다.
type Task struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	GameID   uint64 `gorm:"column:game_id;not null;uniqueIndex:idx_tasks_game_name,priority:1" json:"game"`
	TaskName string `gorm:"column:task_name;not null;uniqueIndex:idx_tasks_game_name,priority:2" json:"task_name"`
}

func (Task) TableName() string { return "tasks" }

// TaskAttempt: 특정 과제에 대한 플레이어의 시도.
// attempt_uuid는 클라이언트가 생성하며 전역 유일 — 재전송 시 멱등 처리의 기준이 된다.
// 터미널 상태(succeeded/failed/preempted)에 진입하면 status는 더 이상 변경 불가.
type TaskAttempt struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskID          uint64         `gorm:"column:task_id;not null;index" json:"task"`
	TaskAttemptUUID string         `gorm:"column:task_attempt_uuid;not null;uniqueIndex" json:"task_attempt_uuid"`
	SessionID       uint64         `gorm:"column:session_id;not null;index" json:"session"`
	StartedAt       time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt         *time.Time     `gorm:"column:ended_at" json:"ended_at"`
	Status          string         `gorm:"column:status;not null" json:"status"`
	NumFailures     int            `gorm:"column:num_failures;not null;default:0" json:"num_failures"`
	Statistics      datatypes.JSON `gorm:"column:statistics;type:jsonb" json:"statistics"`
}

func (TaskAttempt) TableName() string { return "task_attempts" }

// Action: 게임플레이 중 발생한 플레이어 행동 기록. 한 번 기록되면 불변이다.
// 행동의 목적을 설명하기 위해 여러 TaskAttempt를 참조할 수 있다.
type Action struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID    uint64         `gorm:"column:session_id;not null;index" json:"session"`
	TaskAttempts []TaskAttempt  `gorm:"many2many:action_task_attempts" json:"-"`
	JSONBlob     datatypes.JSON `gorm:"column:json_blob;type:jsonb" json:"json_blob"`
	Timestamp    time.Time      `gorm:"column:timestamp;not null" json:"timestamp"`
}

func (Action) TableName() string { return "actions" }
