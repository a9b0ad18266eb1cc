// Package app: 서버 구성 요소 조립과 수명 주기 관리
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 드라이버 등록
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/consumer"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/repository"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/service"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/bootstrap"
	commonconfig "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/config"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/dbutil"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/health"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/telemetry"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/server"
)

// ServiceName: 로그와 트레이스에 쓰이는 서비스 식별자
const ServiceName = "analytics-server"

// Version: 빌드 시 -ldflags로 주입됩니다.
var Version = "dev"

// LoadConfig: 서버 설정을 환경 변수에서 로드합니다.
func LoadConfig() (*commonconfig.Config, error) {
	return commonconfig.LoadFromEnv(ServiceName)
}

// Initialize: DB 연결, 저장소 마이그레이션, 서비스와 라우터를 조립하고
// 실행 가능한 ServerApp과 정리 함수를 반환합니다.
func Initialize(ctx context.Context, cfg *commonconfig.Config, logger *slog.Logger) (*bootstrap.ServerApp, func(), error) {
	health.Init(ServiceName, Version)

	provider, err := telemetry.NewProvider(ctx, cfg.Telemetry, Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init telemetry failed: %w", err)
	}

	gormDB, sqlDB, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		shutdownTelemetry(provider, logger)
		return nil, nil, err
	}

	cleanup := func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Warn("db_close_failed", slog.Any("error", closeErr))
		}
		shutdownTelemetry(provider, logger)
	}

	repo := repository.New(gormDB)
	if err := repo.AutoMigrate(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate schema failed: %w", err)
	}

	resolver := service.NewResolver(repo, logger)
	sessions := service.NewSessions(repo, logger)
	dispatcher := consumer.NewDispatcher(resolver, sessions, repo, logger)

	srv := server.New(cfg, logger, dispatcher, sqlDB)

	serverApp := bootstrap.NewServerApp(
		ServiceName,
		logger,
		srv.HTTPServer(),
		cfg.ShutdownTimeout,
	)
	return serverApp, cleanup, nil
}

// openDatabase: 재시도와 함께 PostgreSQL 연결을 열고 GORM 인스턴스를 초기화합니다.
func openDatabase(ctx context.Context, cfg commonconfig.DatabaseConfig, logger *slog.Logger) (*gorm.DB, *sql.DB, error) {
	openFn := func(openCtx context.Context) (*gorm.DB, *sql.DB, error) {
		db, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres failed: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		if err := db.PingContext(openCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping postgres failed: %w", err)
		}

		// TranslateError: unique 제약 위반을 gorm.ErrDuplicatedKey로 표준화
		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("init gorm failed: %w", err)
		}
		return gormDB, db, nil
	}

	gormDB, sqlDB, err := dbutil.OpenWithRetry(ctx, openFn, dbutil.DefaultRetryConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database failed: %w", err)
	}

	logger.Info("postgres_connected",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
	)
	return gormDB, sqlDB, nil
}

func shutdownTelemetry(provider *telemetry.Provider, logger *slog.Logger) {
	if provider == nil || !provider.IsEnabled() {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry_shutdown_failed", slog.Any("error", err))
	}
}
