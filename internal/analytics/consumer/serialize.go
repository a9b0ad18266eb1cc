package consumer

import (
	"time"

	"gorm.io/datatypes"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
)

// 응답 직렬화 형태. 외래 참조는 깊은 중첩을 피하기 위해 단순화된 형태로 내장한다.

type organizationData struct {
	OrganizationName string `json:"organization_name"`
}

type gameData struct {
	GameName      string           `json:"game_name"`
	VersionNumber string           `json:"version_number"`
	Organization  organizationData `json:"organization"`
}

type gameSimpleData struct {
	GameName      string `json:"game_name"`
	VersionNumber string `json:"version_number"`
}

type userData struct {
	VendorID string         `json:"vendor_id"`
	Platform string         `json:"platform"`
	Game     gameSimpleData `json:"game"`
}

type userSimpleData struct {
	VendorID string `json:"vendor_id"`
	Platform string `json:"platform"`
}

type sessionData struct {
	User      userSimpleData `json:"user"`
	Ended     bool           `json:"ended"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at"`
}

type sessionSimpleData struct {
	Ended     bool       `json:"ended"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

type taskData struct {
	TaskName string         `json:"task_name"`
	Game     gameSimpleData `json:"game"`
}

type taskSimpleData struct {
	TaskName string `json:"task_name"`
}

type attemptData struct {
	TaskAttemptUUID string            `json:"task_attempt_uuid"`
	Task            taskSimpleData    `json:"task"`
	Session         sessionSimpleData `json:"session"`
	StartedAt       time.Time         `json:"started_at"`
	EndedAt         *time.Time        `json:"ended_at"`
	Status          string            `json:"status"`
	NumFailures     int               `json:"num_failures"`
	Statistics      datatypes.JSON    `json:"statistics"`
}

type attemptSimpleData struct {
	TaskAttemptUUID string     `json:"task_attempt_uuid"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	Status          string     `json:"status"`
}

type actionData struct {
	JSONBlob     datatypes.JSON      `json:"json_blob"`
	Timestamp    time.Time           `json:"timestamp"`
	TaskAttempts []attemptSimpleData `json:"task_attempts"`
	Session      sessionSimpleData   `json:"session"`
}

func serializeOrganization(org *model.Organization) organizationData {
	return organizationData{OrganizationName: org.OrganizationName}
}

func serializeGame(game *model.Game, org *model.Organization) gameData {
	return gameData{
		GameName:      game.GameName,
		VersionNumber: game.VersionNumber,
		Organization:  serializeOrganization(org),
	}
}

func serializeGameSimple(game *model.Game) gameSimpleData {
	return gameSimpleData{GameName: game.GameName, VersionNumber: game.VersionNumber}
}

func serializeUser(user *model.User, game *model.Game) userData {
	return userData{
		VendorID: user.VendorID,
		Platform: user.Platform,
		Game:     serializeGameSimple(game),
	}
}

func serializeSession(sess *model.Session, user *model.User) sessionData {
	return sessionData{
		User:      userSimpleData{VendorID: user.VendorID, Platform: user.Platform},
		Ended:     sess.Ended,
		StartedAt: sess.StartedAt,
		EndedAt:   sess.EndedAt,
	}
}

func serializeSessionSimple(sess *model.Session) sessionSimpleData {
	return sessionSimpleData{Ended: sess.Ended, StartedAt: sess.StartedAt, EndedAt: sess.EndedAt}
}

func serializeTask(task *model.Task, game *model.Game) taskData {
	return taskData{TaskName: task.TaskName, Game: serializeGameSimple(game)}
}

func serializeAttempt(attempt *model.TaskAttempt, task *model.Task, sess *model.Session) attemptData {
	return attemptData{
		TaskAttemptUUID: attempt.TaskAttemptUUID,
		Task:            taskSimpleData{TaskName: task.TaskName},
		Session:         serializeSessionSimple(sess),
		StartedAt:       attempt.StartedAt,
		EndedAt:         attempt.EndedAt,
		Status:          attempt.Status,
		NumFailures:     attempt.NumFailures,
		Statistics:      attempt.Statistics,
	}
}

func serializeAttemptSimple(attempt *model.TaskAttempt) attemptSimpleData {
	return attemptSimpleData{
		TaskAttemptUUID: attempt.TaskAttemptUUID,
		StartedAt:       attempt.StartedAt,
		EndedAt:         attempt.EndedAt,
		Status:          attempt.Status,
	}
}

func serializeAction(action *model.Action, attempts []model.TaskAttempt, sess *model.Session) actionData {
	refs := make([]attemptSimpleData, 0, len(attempts))
	for i := range attempts {
		refs = append(refs, serializeAttemptSimple(&attempts[i]))
	}
	return actionData{
		JSONBlob:     action.JSONBlob,
		Timestamp:    action.Timestamp,
		TaskAttempts: refs,
		Session:      serializeSessionSimple(sess),
	}
}
