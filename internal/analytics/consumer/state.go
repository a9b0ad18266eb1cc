package consumer

import (
	"sync"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/model"
)

// ConnState: 연결 범위의 가변 상태.
// 핸들러가 암묵적으로 공유하는 전역 상태 대신, 모든 핸들러에 명시적으로 전달된다.
// 프레임은 연결당 순차 처리되지만 종료 정리는 다른 고루틴에서 올 수 있어 뮤텍스로 보호한다.
type ConnState struct {
	mu           sync.Mutex
	session      *model.Session
	user         *model.User
	isBinary     bool
	disconnected bool
}

// NewConnState: 새 연결 상태를 생성한다.
func NewConnState() *ConnState {
	return &ConnState{}
}

// Session: 현재 세션과 그 소유 사용자를 반환한다. 없으면 (nil, nil).
func (s *ConnState) Session() (*model.Session, *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.user
}

// BindSession: 현재 세션 참조를 갱신한다.
func (s *ConnState) BindSession(sess *model.Session, user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	s.user = user
}

// SetBinary: 직전 프레임의 프레이밍 모드를 기록한다.
func (s *ConnState) SetBinary(binary bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isBinary = binary
}

// IsBinary: 응답을 바이너리 프레임으로 보낼지 여부를 반환한다.
func (s *ConnState) IsBinary() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isBinary
}

// markDisconnected: 종료 정리의 1회 실행을 보장한다.
// 이미 정리가 수행됐으면 false를 반환한다.
func (s *ConnState) markDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return false
	}
	s.disconnected = true
	return true
}
