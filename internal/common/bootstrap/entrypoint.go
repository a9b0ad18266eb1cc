// Package bootstrap: 서비스 공통 시작 경로 (env → 설정 → 로거 → 초기화 → 실행)
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	commonconfig "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/config"
)

// ConfigLoader: 설정 로드 함수 타입
type ConfigLoader[C any] func() (*C, error)

// LogConfigGetter: 설정에서 로그 설정을 꺼내는 함수 타입
type LogConfigGetter[C any] func(*C) commonconfig.LogConfig

// AppInitializer: 애플리케이션을 조립하는 함수 타입. 정리 함수는 nil일 수 있다.
type AppInitializer[C any] func(context.Context, *C, *slog.Logger) (*ServerApp, func(), error)

// RunServiceEntrypoint: 서비스 프로세스의 공통 시작점.
// 실행 중 로거가 파일 로거로 교체될 수 있으므로, 호출자가 마지막 에러를
// 올바른 로거로 남길 수 있게 최종 로거를 함께 반환한다.
func RunServiceEntrypoint[C any](
	ctx context.Context,
	logger *slog.Logger,
	logFileName string,
	loadConfig ConfigLoader[C],
	getLogConfig LogConfigGetter[C],
	initialize AppInitializer[C],
) (*slog.Logger, error) {
	if err := commonconfig.LoadDotenvIfPresent(); err != nil {
		return logger, fmt.Errorf("load dotenv failed: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return logger, fmt.Errorf("load config failed: %w", err)
	}

	if getLogConfig != nil {
		fileLogger, logErr := EnableFileLogging(getLogConfig(cfg), logFileName)
		if logErr != nil {
			return logger, fmt.Errorf("enable file logging failed: %w", logErr)
		}
		if fileLogger != nil {
			logger = fileLogger
		}
	}

	app, cleanup, err := initialize(ctx, cfg, logger)
	if err != nil {
		return logger, fmt.Errorf("initialize app failed: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	if err := app.Run(ctx); err != nil {
		return logger, fmt.Errorf("run app failed: %w", err)
	}
	return logger, nil
}
