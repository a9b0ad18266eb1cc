// Package ptr: 옵셔널 컬럼(ended_at 등)에 쓰는 포인터 생성 헬퍼
package ptr

import "time"

// Time: time.Time 값의 포인터를 만든다.
func Time(v time.Time) *time.Time { return &v }

// String: 문자열 값의 포인터를 만든다.
func String(v string) *string { return &v }

// Int: int 값의 포인터를 만든다.
func Int(v int) *int { return &v }

// Bool: bool 값의 포인터를 만든다.
func Bool(v bool) *bool { return &v }
