// Package health: 서비스 상태 정보
package health

import (
	"runtime"
	"sync"
	"time"
)

var (
	mu        sync.RWMutex
	service   = "unknown"
	version   = "dev"
	startTime = time.Now()
)

// Init: 서비스 시작 시 식별 정보를 설정합니다. 최초 호출만 유효하다.
var initOnce sync.Once

func Init(serviceName, v string) {
	initOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		startTime = time.Now()
		if serviceName != "" {
			service = serviceName
		}
		if v != "" {
			version = v
		}
	})
}

// Response: 헬스체크 표준 응답
type Response struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
}

// Get: 현재 상태를 반환합니다.
func Get() Response {
	mu.RLock()
	defer mu.RUnlock()
	return Response{
		Status:     "ok",
		Service:    service,
		Version:    version,
		Uptime:     time.Since(startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}
}
