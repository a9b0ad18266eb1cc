// Package errors: 분석 서버 전체에서 공용으로 사용되는 에러 타입들을 정의한다.
// 메시지 핸들러는 이 타입들을 판별하여 일관된 에러 응답 프레임으로 변환한다.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// MissingFieldsError: 요청 페이로드에 필수 필드가 하나 이상 누락됐을 때 발생하는 에러
type MissingFieldsError struct {
	Fields []string
}

func (e MissingFieldsError) Error() string {
	return fmt.Sprintf("missing fields: %s", strings.Join(e.Fields, ", "))
}

// InvalidValueError: 필드 값이 허용 목록을 벗어났을 때 발생하는 에러
type InvalidValueError struct {
	Field string
	Value string
	Legal []string
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s: %q must be one of [%s]", e.Field, e.Value, strings.Join(e.Legal, ", "))
}

// NotFoundError: 참조된 엔티티가 존재하지 않을 때 발생하는 에러
// Kind는 엔티티 종류(organization, game, user, task, task attempt), Key는 조회 키.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s does not exist: %q", e.Kind, e.Key)
}

// TerminalStateViolationError: 이미 터미널 상태인 TaskAttempt의 상태 변경 시도 에러
type TerminalStateViolationError struct {
	UUID      string
	Current   string
	Requested string
}

func (e TerminalStateViolationError) Error() string {
	return fmt.Sprintf("can not change already ended task attempt status: %s != %s", e.Current, e.Requested)
}

// ConflictingActiveSessionError: 동일 사용자의 활성 세션 생성 레이스에서 패배했을 때 발생하는 에러
// (사용자당 활성 세션 1개 제약의 유니크 인덱스 위반을 도메인 에러로 번역한 것)
type ConflictingActiveSessionError struct {
	UserID uint64
}

func (e ConflictingActiveSessionError) Error() string {
	return fmt.Sprintf("another connection already has an active session for user %d", e.UserID)
}

// NoActiveSessionError: 열린 세션이 없는 상태에서 세션 의존 작업을 시도했을 때 발생하는 에러
type NoActiveSessionError struct{}

func (e NoActiveSessionError) Error() string { return "no active session" }

// DatabaseError: 데이터베이스 작업을 수행하는 도중 발생한 에러
type DatabaseError struct {
	Operation string
	Err       error
}

func (e DatabaseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("db error operation=%s", e.Operation)
	}
	return fmt.Sprintf("db error operation=%s: %v", e.Operation, e.Err)
}

func (e DatabaseError) Unwrap() error { return e.Err }

// clientFaultTypes: 클라이언트 요청 자체의 문제로 간주되는 에러 타입들
// IsClientFault 함수에서 공통으로 체크하는 타입 리스트
var clientFaultTypes = []func() any{
	func() any { return new(MissingFieldsError) },
	func() any { return new(InvalidValueError) },
	func() any { return new(NotFoundError) },
	func() any { return new(TerminalStateViolationError) },
	func() any { return new(ConflictingActiveSessionError) },
	func() any { return new(NoActiveSessionError) },
}

// IsClientFault: 에러가 클라이언트 잘못(페이로드/상태 위반)인지 확인한다.
// (서버 장애가 아니므로 로그 레벨을 낮추고 연결은 유지하는 용도)
func IsClientFault(err error) bool {
	if err == nil {
		return false
	}
	for _, targetFn := range clientFaultTypes {
		if errors.As(err, targetFn()) {
			return true
		}
	}
	return false
}
