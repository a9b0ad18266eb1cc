package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/httpserver"
)

// BackgroundTask: HTTP 서버와 같은 수명을 갖는 부수 작업.
// 하나라도 실패하면 전체가 내려간다.
type BackgroundTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunHTTPServer: 시그널 처리와 함께 HTTP 서버(및 부수 작업)를 실행합니다.
// SIGINT/SIGTERM에 컨텍스트가 취소되고, 서버는 shutdownTimeout 내에서
// 우아하게 종료된다. 어느 한 작업의 에러는 나머지 전부를 중단시킨다.
func RunHTTPServer(
	ctx context.Context,
	logger *slog.Logger,
	service string,
	server *http.Server,
	shutdownTimeout time.Duration,
	tasks ...BackgroundTask,
) error {
	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(signalCtx)

	for _, task := range tasks {
		if task.Run == nil {
			continue
		}
		g.Go(func() error {
			if err := task.Run(gctx); err != nil {
				logger.Error("background_task_failed",
					slog.String("task", task.Name), slog.Any("error", err))
				return fmt.Errorf("%s failed: %w", task.Name, err)
			}
			return nil
		})
	}

	logger.Info("server_start",
		slog.String("service", service), slog.String("addr", server.Addr))
	g.Go(func() error {
		if err := httpserver.Serve(gctx, server, shutdownTimeout); err != nil {
			return fmt.Errorf("http server serve failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run %s failed: %w", service, err)
	}
	logger.Info("server_stopped", slog.String("service", service))
	return nil
}
