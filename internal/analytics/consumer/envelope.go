// Package consumer: 수신 프레임의 해석과 디스패치.
// 연결당 하나의 논리 핸들러가 프레임을 순서대로 처리하며, 프레임 하나당
// 정확히 하나의 응답(또는 무응답)을 만든다.
package consumer

import (
	"fmt"

	json "github.com/goccy/go-json"

	cerrors "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/errors"
)

// 메시지 종류. 닫힌 집합이며 명시적 switch로 라우팅한다.
const (
	MessageInit            = "init"
	MessageTask            = "task"
	MessageTaskAttempt     = "task_attempt"
	MessageSyncTaskAttempt = "sync_task_attempt"
	MessageAction          = "action"
)

// Envelope: 모든 수신 프레임의 외곽 형태
// {"message_type": <kind>, "message_payload": {...}}
type Envelope struct {
	MessageType    *string        `json:"message_type"`
	MessagePayload map[string]any `json:"message_payload"`
}

// Response: 송신 프레임의 외곽 형태.
// 성공은 {"message", "data"}, 실패는 {"error"}이며 실패에 부분 데이터는 싣지 않는다.
// Session 필드는 연결 종료 시의 비요청(unsolicited) "Session ended" 프레임 전용이다.
type Response struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
	Session any    `json:"session,omitempty"`
}

// Encode: 응답을 UTF-8 JSON으로 직렬화한다. 텍스트/바이너리 프레이밍 모두 동일 바이트다.
func (r *Response) Encode() ([]byte, error) {
	out, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode response failed: %w", err)
	}
	return out, nil
}

// errorResponse: 도메인 에러를 에러 봉투로 변환한다.
func errorResponse(err error) *Response {
	return &Response{Error: fmt.Sprintf("%s. Not processing request.", err.Error())}
}

// checkFields: 페이로드에 필수 필드가 모두 있는지 확인한다.
// 값이 JSON null인 필드도 누락으로 취급한다. (원격 클라이언트 호환 규칙)
// 누락 필드가 있으면 MissingFieldsError를 반환한다.
func checkFields(payload map[string]any, fields []string) error {
	var missing []string
	for _, field := range fields {
		if v, ok := payload[field]; !ok || v == nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return cerrors.MissingFieldsError{Fields: missing}
	}
	return nil
}

// stringField: 페이로드에서 문자열 필드를 꺼낸다. 문자열이 아니면 빈 값을 반환한다.
func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// intField: 페이로드에서 정수 필드를 꺼낸다. (JSON 숫자는 float64로 디코딩됨)
func intField(payload map[string]any, key string) (int, bool) {
	switch v := payload[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// jsonField: 페이로드의 임의 JSON 값을 원문 그대로 재직렬화한다.
// (statistics/data 블롭은 스키마 검증 없이 불투명하게 저장)
func jsonField(payload map[string]any, key string) ([]byte, error) {
	raw, err := json.Marshal(payload[key])
	if err != nil {
		return nil, fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return raw, nil
}

// stringSliceField: 페이로드에서 문자열 배열 필드를 꺼낸다.
func stringSliceField(payload map[string]any, key string) ([]string, bool) {
	arr, ok := payload[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
