// Package service: 엔티티 해석과 세션 수명주기 로직.
// 저장소(repository) 위에서 프로토콜이 요구하는 도메인 규칙을 구현한다.
package service

import (
	"context"
	"log/slog"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/repository"
)

// Scope: 해석이 끝난 Organization → Game → User 삼중항
type Scope struct {
	Organization *model.Organization
	Game         *model.Game
	User         *model.User
}

// ScopeParams: 평면 페이로드에서 추출한 자연 키 필드들
type ScopeParams struct {
	OrganizationName string
	GameName         string
	VersionNumber    string
	VendorID         string
	Platform         string
}

// Resolver: 자연 키 계층을 따라 엔티티를 해석한다.
// Init 경로는 누락된 조상을 생성하고, Lookup 경로는 조회만 수행하며
// 첫 번째 누락 지점에서 NotFoundError로 중단한다.
type Resolver struct {
	repo   *repository.Repository
	tasks  TaskKeyStrategy
	logger *slog.Logger
}

// NewResolver: 새로운 Resolver를 생성한다. 과제 키 전략 기본값은 게임 범위다.
func NewResolver(repo *repository.Repository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, tasks: GameScopedTasks{}, logger: logger}
}

// WithTaskKeyStrategy: 과제 자연 키 전략을 교체한 Resolver를 반환한다.
// (키 형태 변경이 상태 머신 코드에 영향을 주지 않도록 분리)
func (r *Resolver) WithTaskKeyStrategy(s TaskKeyStrategy) *Resolver {
	clone := *r
	clone.tasks = s
	return &clone
}

// Init: Organization → Game → User를 위에서 아래로 해석하며 없는 엔티티는 생성한다.
// 동일 입력으로 두 번 호출해도 같은 엔티티를 반환하고 중복 행을 만들지 않는다.
// (원자성은 저장소의 ON CONFLICT find-or-create가 보장)
func (r *Resolver) Init(ctx context.Context, p ScopeParams) (*Scope, error) {
	org, orgCreated, err := r.repo.GetOrCreateOrganization(ctx, p.OrganizationName)
	if err != nil {
		return nil, err
	}
	game, gameCreated, err := r.repo.GetOrCreateGame(ctx, org.ID, p.GameName, p.VersionNumber)
	if err != nil {
		return nil, err
	}
	user, userCreated, err := r.repo.GetOrCreateUser(ctx, game.ID, p.VendorID, p.Platform)
	if err != nil {
		return nil, err
	}

	if orgCreated || gameCreated || userCreated {
		r.logger.Info("scope_created",
			slog.Uint64("organization_id", org.ID),
			slog.Uint64("game_id", game.ID),
			slog.Uint64("user_id", user.ID),
			slog.Bool("organization_created", orgCreated),
			slog.Bool("game_created", gameCreated),
			slog.Bool("user_created", userCreated),
		)
	}
	return &Scope{Organization: org, Game: game, User: user}, nil
}

// Lookup: 조회 전용 해석. 어느 단계든 누락이면 해당 계층을 지목하는
// NotFoundError로 즉시 중단한다. 암묵적 생성은 없다.
func (r *Resolver) Lookup(ctx context.Context, p ScopeParams) (*Scope, error) {
	org, err := r.repo.FindOrganization(ctx, p.OrganizationName)
	if err != nil {
		return nil, err
	}
	game, err := r.repo.FindGame(ctx, org.ID, p.GameName, p.VersionNumber)
	if err != nil {
		return nil, err
	}
	user, err := r.repo.FindUser(ctx, game, p.VendorID, p.Platform)
	if err != nil {
		return nil, err
	}
	return &Scope{Organization: org, Game: game, User: user}, nil
}

// GetOrCreateTask: 현재 전략의 키 범위에서 과제 정의를 멱등 생성한다.
func (r *Resolver) GetOrCreateTask(ctx context.Context, scope *Scope, taskName string) (*model.Task, bool, error) {
	return r.tasks.GetOrCreate(ctx, r.repo, scope, taskName)
}

// FindTask: 현재 전략의 키 범위에서 과제 정의를 조회한다.
func (r *Resolver) FindTask(ctx context.Context, scope *Scope, taskName string) (*model.Task, error) {
	return r.tasks.Find(ctx, r.repo, scope, taskName)
}

// TaskKeyStrategy: 과제 자연 키의 범위를 결정하는 전략.
// 기본은 (game, task_name)이며, (user, task_name) 변형으로 교체할 수 있다.
type TaskKeyStrategy interface {
	GetOrCreate(ctx context.Context, repo *repository.Repository, scope *Scope, taskName string) (*model.Task, bool, error)
	Find(ctx context.Context, repo *repository.Repository, scope *Scope, taskName string) (*model.Task, error)
}

// GameScopedTasks: (game, task_name) 키 전략
type GameScopedTasks struct{}

// GetOrCreate: 게임 범위에서 과제를 멱등 생성한다.
func (GameScopedTasks) GetOrCreate(ctx context.Context, repo *repository.Repository, scope *Scope, taskName string) (*model.Task, bool, error) {
	return repo.GetOrCreateTask(ctx, scope.Game.ID, taskName)
}

// Find: 게임 범위에서 과제를 조회한다.
func (GameScopedTasks) Find(ctx context.Context, repo *repository.Repository, scope *Scope, taskName string) (*model.Task, error) {
	return repo.FindTask(ctx, scope.Game.ID, taskName)
}
