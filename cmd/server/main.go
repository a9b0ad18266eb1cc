package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/app"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/bootstrap"
	commonconfig "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/config"
)

func main() {
	logger := bootstrap.NewLogger()
	slog.SetDefault(logger)

	finalLogger, err := bootstrap.RunServiceEntrypoint(
		context.Background(),
		logger,
		"analytics-server.log",
		app.LoadConfig,
		func(cfg *commonconfig.Config) commonconfig.LogConfig { return cfg.Log },
		app.Initialize,
	)
	if err != nil {
		logger = finalLogger
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
