package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/testhelper"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo := New(testhelper.NewTestDB(t))
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return repo
}

type fixture struct {
	org     *model.Organization
	game    *model.Game
	user    *model.User
	task    *model.Task
	session *model.Session
}

func newFixture(t *testing.T, repo *Repository) *fixture {
	t.Helper()
	ctx := context.Background()

	org, _, err := repo.GetOrCreateOrganization(ctx, "gdiac")
	if err != nil {
		t.Fatalf("create org failed: %v", err)
	}
	game, _, err := repo.GetOrCreateGame(ctx, org.ID, "sweetspace", "1.0")
	if err != nil {
		t.Fatalf("create game failed: %v", err)
	}
	user, _, err := repo.GetOrCreateUser(ctx, game.ID, "vendor-1", "ios")
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	task, _, err := repo.GetOrCreateTask(ctx, game.ID, "fix-breach")
	if err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	session, err := repo.CreateSession(ctx, user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	return &fixture{org: org, game: game, user: user, task: task, session: session}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	org, created, err := repo.GetOrCreateOrganization(ctx, "gdiac")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected first call to create")
	}

	again, created, err := repo.GetOrCreateOrganization(ctx, "gdiac")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected second call to reuse")
	}
	if again.ID != org.ID {
		t.Errorf("expected same row, got %d != %d", again.ID, org.ID)
	}

	game1, _, err := repo.GetOrCreateGame(ctx, org.ID, "sweetspace", "1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	game2, created, err := repo.GetOrCreateGame(ctx, org.ID, "sweetspace", "1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || game2.ID != game1.ID {
		t.Errorf("expected game reuse, created=%v id=%d/%d", created, game1.ID, game2.ID)
	}

	// 버전이 다르면 별도 행
	game3, created, err := repo.GetOrCreateGame(ctx, org.ID, "sweetspace", "2.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || game3.ID == game1.ID {
		t.Errorf("expected distinct row per version, created=%v", created)
	}
}

func TestFindMissingEntities(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindOrganization(ctx, "ghost")
	var notFound cerrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Kind != "organization" {
		t.Errorf("expected organization kind, got %q", notFound.Kind)
	}

	fx := newFixture(t, repo)

	_, err = repo.FindGame(ctx, fx.org.ID, "sweetspace", "9.9")
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for game, got %v", err)
	}

	_, err = repo.FindUser(ctx, fx.game, "unknown-vendor", "ios")
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for user, got %v", err)
	}

	_, err = repo.FindTask(ctx, fx.game.ID, "ghost-task")
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for task, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := newFixture(t, repo)

	active, err := repo.FindActiveSession(ctx, fx.user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active == nil || active.ID != fx.session.ID {
		t.Fatal("expected fixture session to be active")
	}

	// 활성 세션이 있는 동안 두 번째 세션 생성은 거부된다.
	_, err = repo.CreateSession(ctx, fx.user.ID, time.Now().UTC())
	var conflict cerrors.ConflictingActiveSessionError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictingActiveSessionError, got %v", err)
	}

	ended, didEnd, err := repo.EndSession(ctx, fx.session.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !didEnd || !ended.Ended || ended.EndedAt == nil {
		t.Fatalf("expected session to end, got didEnd=%v row=%+v", didEnd, ended)
	}

	// 이미 종료된 세션의 재종료는 no-op
	_, didEnd, err = repo.EndSession(ctx, fx.session.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if didEnd {
		t.Error("expected second end to be a no-op")
	}

	active, err = repo.FindActiveSession(ctx, fx.user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active != nil {
		t.Error("expected no active session after end")
	}

	// 종료 후에는 새 세션을 만들 수 있다.
	if _, err := repo.CreateSession(ctx, fx.user.ID, time.Now().UTC()); err != nil {
		t.Fatalf("expected new session after end, got %v", err)
	}
}

func TestEndSessionPreemptsPendingAttempts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := newFixture(t, repo)
	now := time.Now().UTC()

	pending, _, err := repo.GetOrCreateTaskAttempt(ctx, TaskAttemptParams{
		TaskID:      fx.task.ID,
		SessionID:   fx.session.ID,
		AttemptUUID: uuid.NewString(),
		Status:      model.StatusPending,
		Statistics:  datatypes.JSON(`{}`),
		Now:         now,
	})
	if err != nil {
		t.Fatalf("create pending attempt failed: %v", err)
	}

	succeeded, _, err := repo.GetOrCreateTaskAttempt(ctx, TaskAttemptParams{
		TaskID:      fx.task.ID,
		SessionID:   fx.session.ID,
		AttemptUUID: uuid.NewString(),
		Status:      model.StatusSucceeded,
		Statistics:  datatypes.JSON(`{}`),
		Now:         now,
	})
	if err != nil {
		t.Fatalf("create succeeded attempt failed: %v", err)
	}

	if _, _, err := repo.EndSession(ctx, fx.session.ID, time.Now().UTC()); err != nil {
		t.Fatalf("end session failed: %v", err)
	}

	got, err := repo.FindTaskAttemptByUUID(ctx, pending.TaskAttemptUUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != string(model.StatusPreempted) {
		t.Errorf("expected pending attempt preempted, got %q", got.Status)
	}
	if got.EndedAt == nil {
		t.Error("expected ended_at on preempted attempt")
	}

	got, err = repo.FindTaskAttemptByUUID(ctx, succeeded.TaskAttemptUUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != string(model.StatusSucceeded) {
		t.Errorf("expected succeeded attempt untouched, got %q", got.Status)
	}
}

func TestGetOrCreateTaskAttemptIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := newFixture(t, repo)
	attemptUUID := uuid.NewString()

	params := TaskAttemptParams{
		TaskID:      fx.task.ID,
		SessionID:   fx.session.ID,
		AttemptUUID: attemptUUID,
		Status:      model.StatusPending,
		NumFailures: 1,
		Statistics:  datatypes.JSON(`{"hints":2}`),
		Now:         time.Now().UTC(),
	}

	first, created, err := repo.GetOrCreateTaskAttempt(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected first call to create")
	}

	params.NumFailures = 99 // 재전송의 값 차이는 무시된다
	second, created, err := repo.GetOrCreateTaskAttempt(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected replay to reuse existing row")
	}
	if second.ID != first.ID || second.NumFailures != 1 {
		t.Errorf("expected original row preserved, got %+v", second)
	}
}

func TestSyncTaskAttempt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := newFixture(t, repo)
	attemptUUID := uuid.NewString()

	_, _, err := repo.GetOrCreateTaskAttempt(ctx, TaskAttemptParams{
		TaskID:      fx.task.ID,
		SessionID:   fx.session.ID,
		AttemptUUID: attemptUUID,
		Status:      model.StatusPending,
		Statistics:  datatypes.JSON(`{}`),
		Now:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create attempt failed: %v", err)
	}

	t.Run("pending_to_terminal", func(t *testing.T) {
		row, err := repo.SyncTaskAttempt(ctx, attemptUUID, model.StatusSucceeded,
			datatypes.JSON(`{"score":10}`), 3, time.Now().UTC())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if row.Status != string(model.StatusSucceeded) || row.NumFailures != 3 {
			t.Errorf("unexpected row: %+v", row)
		}
		if row.EndedAt == nil {
			t.Error("expected ended_at on terminal transition")
		}
	})

	t.Run("terminal_change_rejected", func(t *testing.T) {
		_, err := repo.SyncTaskAttempt(ctx, attemptUUID, model.StatusFailed,
			datatypes.JSON(`{"score":0}`), 9, time.Now().UTC())
		var violation cerrors.TerminalStateViolationError
		if !errors.As(err, &violation) {
			t.Fatalf("expected TerminalStateViolationError, got %v", err)
		}

		// 거부 시 어떤 필드도 변하지 않는다.
		row, findErr := repo.FindTaskAttemptByUUID(ctx, attemptUUID)
		if findErr != nil {
			t.Fatalf("unexpected error: %v", findErr)
		}
		if row.Status != string(model.StatusSucceeded) || row.NumFailures != 3 {
			t.Errorf("expected row unchanged, got %+v", row)
		}
	})

	t.Run("equal_terminal_replay_allowed", func(t *testing.T) {
		row, err := repo.SyncTaskAttempt(ctx, attemptUUID, model.StatusSucceeded,
			datatypes.JSON(`{"score":11}`), 4, time.Now().UTC())
		if err != nil {
			t.Fatalf("expected replay with equal status to succeed, got %v", err)
		}
		if row.NumFailures != 4 {
			t.Errorf("expected replay to overwrite, got %+v", row)
		}
	})

	t.Run("unknown_uuid", func(t *testing.T) {
		_, err := repo.SyncTaskAttempt(ctx, uuid.NewString(), model.StatusPending,
			datatypes.JSON(`{}`), 0, time.Now().UTC())
		var notFound cerrors.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	})
}

func TestFindTaskAttemptsByUUIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := newFixture(t, repo)

	known := uuid.NewString()
	_, _, err := repo.GetOrCreateTaskAttempt(ctx, TaskAttemptParams{
		TaskID:      fx.task.ID,
		SessionID:   fx.session.ID,
		AttemptUUID: known,
		Status:      model.StatusPending,
		Statistics:  datatypes.JSON(`{}`),
		Now:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create attempt failed: %v", err)
	}

	rows, err := repo.FindTaskAttemptsByUUIDs(ctx, []string{known})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	missing := uuid.NewString()
	_, err = repo.FindTaskAttemptsByUUIDs(ctx, []string{known, missing})
	var notFound cerrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Key != missing {
		t.Errorf("expected error to name %q, got %q", missing, notFound.Key)
	}
}

func TestCreateActionAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := newFixture(t, repo)

	known := uuid.NewString()
	_, _, err := repo.GetOrCreateTaskAttempt(ctx, TaskAttemptParams{
		TaskID:      fx.task.ID,
		SessionID:   fx.session.ID,
		AttemptUUID: known,
		Status:      model.StatusPending,
		Statistics:  datatypes.JSON(`{}`),
		Now:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create attempt failed: %v", err)
	}

	action, attempts, err := repo.CreateAction(ctx, fx.session.ID,
		datatypes.JSON(`{"event":"door_opened"}`), []string{known}, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action.ID == 0 || len(attempts) != 1 {
		t.Fatalf("unexpected result: action=%+v attempts=%d", action, len(attempts))
	}

	// 존재하지 않는 uuid가 섞이면 아무것도 기록되지 않는다.
	_, _, err = repo.CreateAction(ctx, fx.session.ID,
		datatypes.JSON(`{"event":"ghost"}`), []string{known, uuid.NewString()}, time.Now().UTC())
	var notFound cerrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	var count int64
	if err := repo.DB().Model(&model.Action{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected rejected action to write nothing, count=%d", count)
	}

	// 빈 참조 목록도 허용된다.
	if _, _, err := repo.CreateAction(ctx, fx.session.ID,
		datatypes.JSON(`{"event":"idle"}`), nil, time.Now().UTC()); err != nil {
		t.Fatalf("expected action without references to succeed, got %v", err)
	}
}
