package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ServerApp: 실행 준비가 끝난 서버 애플리케이션 묶음.
// 초기화(Initialize)와 실행(Run)을 분리해 초기화 실패 시 정리가 단순해진다.
type ServerApp struct {
	Service         string
	Logger          *slog.Logger
	Server          *http.Server
	ShutdownTimeout time.Duration
	Tasks           []BackgroundTask
}

// NewServerApp: ServerApp을 조립합니다.
func NewServerApp(
	service string,
	logger *slog.Logger,
	server *http.Server,
	shutdownTimeout time.Duration,
	tasks ...BackgroundTask,
) *ServerApp {
	return &ServerApp{
		Service:         service,
		Logger:          logger,
		Server:          server,
		ShutdownTimeout: shutdownTimeout,
		Tasks:           tasks,
	}
}

// Run: 서버를 실행하고 종료까지 블록합니다.
func (a *ServerApp) Run(ctx context.Context) error {
	if a == nil {
		return nil
	}
	return RunHTTPServer(ctx, a.Logger, a.Service, a.Server, a.ShutdownTimeout, a.Tasks...)
}
