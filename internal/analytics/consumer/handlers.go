package consumer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/repository"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/service"
)

// 메시지 종류별 필수 페이로드 필드.
// 각 핸들러는 저장소에 닿기 전에 자기 필드를 먼저 검증한다.
// (누락 필드 에러가 NotFound/InvalidValue보다 항상 우선)
var (
	scopeFields = []string{"organization_name", "game_name", "version_number", "vendor_id", "platform"}

	initFields        = scopeFields
	taskFields        = append(append([]string{}, scopeFields...), "task_name")
	taskAttemptFields = append(append([]string{}, scopeFields...),
		"task_name", "task_attempt_uuid", "status", "statistics", "num_failures")
	syncTaskAttemptFields = []string{"task_attempt_uuid", "status", "statistics", "num_failures"}
	actionFields          = append(append([]string{}, scopeFields...), "data", "task_attempt_uuids")
)

// scopeParams: 페이로드에서 자연 키 필드를 추출한다. 플랫폼 값을 검증하고 정규화한다.
func scopeParams(payload map[string]any) (service.ScopeParams, error) {
	platform := strings.ToLower(strings.TrimSpace(stringField(payload, "platform")))
	if !model.ValidPlatform(platform) {
		return service.ScopeParams{}, cerrors.InvalidValueError{
			Field: "platform",
			Value: stringField(payload, "platform"),
			Legal: model.PlatformValues(),
		}
	}
	return service.ScopeParams{
		OrganizationName: stringField(payload, "organization_name"),
		GameName:         stringField(payload, "game_name"),
		VersionNumber:    stringField(payload, "version_number"),
		VendorID:         stringField(payload, "vendor_id"),
		Platform:         platform,
	}, nil
}

// activeSession: 연결의 현재 세션을 반환한다. 연결에 바인딩된 세션이 해당 사용자의
// 활성 세션이면 재사용하고, 아니면 저장소에서 활성 세션을 찾아 바인딩한다.
// 어느 쪽도 없으면 NoActiveSessionError — 비-init 메시지는 세션을 만들지 않는다.
func (d *Dispatcher) activeSession(ctx context.Context, state *ConnState, user *model.User) (*model.Session, error) {
	sess, bound := state.Session()
	if sess != nil && !sess.Ended && bound != nil && bound.ID == user.ID {
		return sess, nil
	}

	found, err := d.sessions.Active(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, cerrors.NoActiveSessionError{}
	}
	state.BindSession(found, user)
	return found, nil
}

// handleInit: organization/game/user를 멱등 초기화하고 연결 세션을 수립한다.
// 게임 시작 시마다 보내도 안전하다.
func (d *Dispatcher) handleInit(ctx context.Context, state *ConnState, payload map[string]any) *Response {
	if err := checkFields(payload, initFields); err != nil {
		return errorResponse(err)
	}
	params, err := scopeParams(payload)
	if err != nil {
		return errorResponse(err)
	}

	scope, err := d.resolver.Init(ctx, params)
	if err != nil {
		return errorResponse(err)
	}
	sess, err := d.sessions.Ensure(ctx, scope.User.ID)
	if err != nil {
		return errorResponse(err)
	}
	state.BindSession(sess, scope.User)

	return &Response{
		Message: "Init recorded",
		Data: map[string]any{
			"organization": serializeOrganization(scope.Organization),
			"game":         serializeGame(scope.Game, scope.Organization),
			"user":         serializeUser(scope.User, scope.Game),
			"session":      serializeSession(sess, scope.User),
		},
	}
}

// handleTask: 게임 범위에 과제 정의를 멱등 등록한다.
// 스코프는 조회 전용으로 해석한다 — init이 선행되지 않았으면 NotFound다.
func (d *Dispatcher) handleTask(ctx context.Context, payload map[string]any) *Response {
	if err := checkFields(payload, taskFields); err != nil {
		return errorResponse(err)
	}
	params, err := scopeParams(payload)
	if err != nil {
		return errorResponse(err)
	}

	scope, err := d.resolver.Lookup(ctx, params)
	if err != nil {
		return errorResponse(err)
	}
	task, _, err := d.resolver.GetOrCreateTask(ctx, scope, stringField(payload, "task_name"))
	if err != nil {
		return errorResponse(err)
	}

	return &Response{Message: "Task recorded", Data: serializeTask(task, scope.Game)}
}

// handleTaskAttempt: attempt_uuid 기준으로 TaskAttempt를 멱등 생성한다.
// 동일 uuid 재전송은 기존 행을 그대로 반환한다. (중복 생성 없음)
func (d *Dispatcher) handleTaskAttempt(ctx context.Context, state *ConnState, payload map[string]any) *Response {
	if err := checkFields(payload, taskAttemptFields); err != nil {
		return errorResponse(err)
	}
	params, err := scopeParams(payload)
	if err != nil {
		return errorResponse(err)
	}

	scope, err := d.resolver.Lookup(ctx, params)
	if err != nil {
		return errorResponse(err)
	}
	task, err := d.resolver.FindTask(ctx, scope, stringField(payload, "task_name"))
	if err != nil {
		return errorResponse(err)
	}

	status := model.AttemptStatus(stringField(payload, "status"))
	if !status.Valid() {
		return errorResponse(cerrors.InvalidValueError{
			Field: "status",
			Value: stringField(payload, "status"),
			Legal: model.AttemptStatusValues(),
		})
	}
	numFailures, ok := intField(payload, "num_failures")
	if !ok {
		return errorResponse(cerrors.InvalidValueError{
			Field: "num_failures",
			Value: fmt.Sprint(payload["num_failures"]),
			Legal: []string{"integer"},
		})
	}
	statistics, err := jsonField(payload, "statistics")
	if err != nil {
		return errorResponse(err)
	}

	sess, err := d.activeSession(ctx, state, scope.User)
	if err != nil {
		return errorResponse(err)
	}

	attempt, created, err := d.repo.GetOrCreateTaskAttempt(ctx, repository.TaskAttemptParams{
		TaskID:      task.ID,
		SessionID:   sess.ID,
		AttemptUUID: stringField(payload, "task_attempt_uuid"),
		Status:      status,
		NumFailures: numFailures,
		Statistics:  datatypes.JSON(statistics),
		Now:         time.Now().UTC(),
	})
	if err != nil {
		return errorResponse(err)
	}

	// 멱등 재전송이면 기존 행이 다른 세션에 속해 있을 수 있다.
	attemptSess := sess
	if !created && attempt.SessionID != sess.ID {
		attemptSess, err = d.repo.FindSessionByID(ctx, attempt.SessionID)
		if err != nil {
			return errorResponse(err)
		}
	}

	return &Response{Message: "Task Attempt recorded", Data: serializeAttempt(attempt, task, attemptSess)}
}

// handleSyncTaskAttempt: 기존 TaskAttempt의 status/statistics/num_failures를 갱신한다.
// 터미널 상태의 변경 시도는 거부되며 어떤 필드도 바뀌지 않는다.
func (d *Dispatcher) handleSyncTaskAttempt(ctx context.Context, payload map[string]any) *Response {
	if err := checkFields(payload, syncTaskAttemptFields); err != nil {
		return errorResponse(err)
	}

	status := model.AttemptStatus(stringField(payload, "status"))
	if !status.Valid() {
		return errorResponse(cerrors.InvalidValueError{
			Field: "status",
			Value: stringField(payload, "status"),
			Legal: model.AttemptStatusValues(),
		})
	}
	numFailures, ok := intField(payload, "num_failures")
	if !ok {
		return errorResponse(cerrors.InvalidValueError{
			Field: "num_failures",
			Value: fmt.Sprint(payload["num_failures"]),
			Legal: []string{"integer"},
		})
	}
	statistics, err := jsonField(payload, "statistics")
	if err != nil {
		return errorResponse(err)
	}

	attempt, err := d.repo.SyncTaskAttempt(ctx,
		stringField(payload, "task_attempt_uuid"),
		status,
		datatypes.JSON(statistics),
		numFailures,
		time.Now().UTC(),
	)
	if err != nil {
		return errorResponse(err)
	}

	task, err := d.repo.FindTaskByID(ctx, attempt.TaskID)
	if err != nil {
		return errorResponse(err)
	}
	sess, err := d.repo.FindSessionByID(ctx, attempt.SessionID)
	if err != nil {
		return errorResponse(err)
	}

	return &Response{Message: "Task Attempt synced", Data: serializeAttempt(attempt, task, sess)}
}

// handleAction: 현재 세션에 Action을 기록한다. 참조된 uuid 중 하나라도 없으면
// 아무것도 기록하지 않는다. (부분 연결 금지)
func (d *Dispatcher) handleAction(ctx context.Context, state *ConnState, payload map[string]any) *Response {
	if err := checkFields(payload, actionFields); err != nil {
		return errorResponse(err)
	}
	params, err := scopeParams(payload)
	if err != nil {
		return errorResponse(err)
	}

	scope, err := d.resolver.Lookup(ctx, params)
	if err != nil {
		return errorResponse(err)
	}

	uuids, ok := stringSliceField(payload, "task_attempt_uuids")
	if !ok {
		return errorResponse(cerrors.InvalidValueError{
			Field: "task_attempt_uuids",
			Value: fmt.Sprint(payload["task_attempt_uuids"]),
			Legal: []string{"array of strings"},
		})
	}
	blob, err := jsonField(payload, "data")
	if err != nil {
		return errorResponse(err)
	}

	sess, err := d.activeSession(ctx, state, scope.User)
	if err != nil {
		return errorResponse(err)
	}

	action, attempts, err := d.repo.CreateAction(ctx, sess.ID, datatypes.JSON(blob), uuids, time.Now().UTC())
	if err != nil {
		return errorResponse(err)
	}

	return &Response{Message: "Action recorded", Data: serializeAction(action, attempts, sess)}
}
