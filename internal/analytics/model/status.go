package model

import "strings"

// AttemptStatus: TaskAttempt의 진행 상태.
// not_started → pending → {succeeded, failed, preempted} 순으로 전이하며,
// 뒤의 세 상태는 터미널이다. 세션 종료 시 pending은 일괄 preempted로 전이된다.
type AttemptStatus string

const (
	// StatusNotStarted: 아직 시작되지 않은 시도
	StatusNotStarted AttemptStatus = "not_started"
	// StatusPending: 현재 진행 중인 시도
	StatusPending AttemptStatus = "pending"
	// StatusSucceeded: 과제를 성공적으로 완료한 시도 (터미널)
	StatusSucceeded AttemptStatus = "succeeded"
	// StatusFailed: 돌이킬 수 없이 실패한 시도 (터미널)
	StatusFailed AttemptStatus = "failed"
	// StatusPreempted: 세션 종료로 중단된 시도 (터미널)
	StatusPreempted AttemptStatus = "preempted"
)

// attemptStatuses: 허용되는 상태 값 전체 (선언 순서 = 상태 전이 순서)
var attemptStatuses = []AttemptStatus{
	StatusNotStarted,
	StatusPending,
	StatusSucceeded,
	StatusFailed,
	StatusPreempted,
}

// Valid: 다섯 가지 합법 상태 중 하나인지 확인한다.
func (s AttemptStatus) Valid() bool {
	for _, v := range attemptStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal: 더 이상 전이가 허용되지 않는 상태인지 확인한다.
func (s AttemptStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusPreempted
}

// AttemptStatusValues: 합법 상태 목록을 문자열로 반환한다. (에러 메시지용)
func AttemptStatusValues() []string {
	out := make([]string, len(attemptStatuses))
	for i, v := range attemptStatuses {
		out[i] = string(v)
	}
	return out
}

// 플랫폼 값. User는 (game, vendor_id, platform)으로 유일하다.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformOther   = "other"
)

// platforms: 허용되는 플랫폼 값 전체
var platforms = []string{PlatformIOS, PlatformAndroid, PlatformOther}

// ValidPlatform: 플랫폼 값이 허용 목록에 포함되는지 확인한다. (대소문자 무시)
func ValidPlatform(p string) bool {
	p = strings.ToLower(strings.TrimSpace(p))
	for _, v := range platforms {
		if p == v {
			return true
		}
	}
	return false
}

// PlatformValues: 허용 플랫폼 목록을 반환한다. (에러 메시지용)
func PlatformValues() []string {
	out := make([]string, len(platforms))
	copy(out, platforms)
	return out
}
