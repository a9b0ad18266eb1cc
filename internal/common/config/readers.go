package config

import (
	"fmt"
	"strings"
	"time"
)

// ReadServerConfigFromEnv: HTTP 서버 호스트와 포트 설정을 환경 변수에서 읽어옵니다.
func ReadServerConfigFromEnv(defaultPort int) (ServerConfig, error) {
	serverPort, err := IntFromEnv("SERVER_PORT", defaultPort)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("read SERVER_PORT failed: %w", err)
	}

	return ServerConfig{
		Host: StringFromEnv("SERVER_HOST", "0.0.0.0"),
		Port: serverPort,
	}, nil
}

// ReadServerTuningConfigFromEnv: HTTP 서버 튜닝 설정(Timeouts, Limits)을 환경 변수에서 읽어옵니다.
func ReadServerTuningConfigFromEnv() (ServerTuningConfig, error) {
	readHeaderTimeout, err := DurationSecondsFromEnv("SERVER_READ_HEADER_TIMEOUT_SECONDS", 5)
	if err != nil {
		return ServerTuningConfig{}, fmt.Errorf(
			"read SERVER_READ_HEADER_TIMEOUT_SECONDS failed: %w",
			err,
		)
	}

	// 보안/안정성 기본값 적용함 (명시적으로 0을 주면 비활성화 가능)
	idleTimeout, err := DurationSecondsFromEnv("SERVER_IDLE_TIMEOUT_SECONDS", 90)
	if err != nil {
		return ServerTuningConfig{}, fmt.Errorf("read SERVER_IDLE_TIMEOUT_SECONDS failed: %w", err)
	}

	maxHeaderBytes, err := IntFromEnv("SERVER_MAX_HEADER_BYTES", 1<<20) // 1MiB
	if err != nil {
		return ServerTuningConfig{}, fmt.Errorf("read SERVER_MAX_HEADER_BYTES failed: %w", err)
	}
	if maxHeaderBytes < 0 {
		return ServerTuningConfig{}, fmt.Errorf("invalid SERVER_MAX_HEADER_BYTES: %d", maxHeaderBytes)
	}

	return ServerTuningConfig{
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}, nil
}

// ReadDatabaseConfigFromEnv: PostgreSQL 연결 설정을 환경 변수에서 읽어옵니다.
// DATABASE_* 키를 우선하고, 호환을 위해 POSTGRES_* 키도 허용합니다.
func ReadDatabaseConfigFromEnv() (DatabaseConfig, error) {
	port, err := IntFromEnvFirstNonEmpty([]string{"DATABASE_PORT", "POSTGRES_PORT"}, 5432)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("read database port failed: %w", err)
	}

	maxOpenConns, err := IntFromEnv("DATABASE_MAX_OPEN_CONNS", DefaultDBMaxOpenConns)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("read DATABASE_MAX_OPEN_CONNS failed: %w", err)
	}

	maxIdleConns, err := IntFromEnv("DATABASE_MAX_IDLE_CONNS", DefaultDBMaxIdleConns)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("read DATABASE_MAX_IDLE_CONNS failed: %w", err)
	}

	connMaxLifetimeMinutes, err := Int64FromEnv(
		"DATABASE_CONN_MAX_LIFETIME_MINUTES",
		DefaultDBConnMaxLifetimeMinutes,
	)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("read DATABASE_CONN_MAX_LIFETIME_MINUTES failed: %w", err)
	}

	return DatabaseConfig{
		Host:     StringFromEnvFirstNonEmpty([]string{"DATABASE_HOST", "POSTGRES_HOST"}, "localhost"),
		Port:     port,
		User:     StringFromEnvFirstNonEmpty([]string{"DATABASE_USER", "POSTGRES_USER"}, "postgres"),
		Password: StringFromEnvFirstNonEmpty([]string{"DATABASE_PASSWORD", "POSTGRES_PASSWORD"}, ""),
		Database: StringFromEnvFirstNonEmpty([]string{"DATABASE_NAME", "POSTGRES_DB"}, "analytics"),
		SSLMode:  StringFromEnv("DATABASE_SSLMODE", "disable"),

		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: time.Duration(connMaxLifetimeMinutes) * time.Minute,
	}, nil
}

// DSN: lib/pq 형식의 접속 문자열을 만듭니다.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// ReadIngestConfigFromEnv: WebSocket 수집 엔드포인트 설정을 환경 변수에서 읽어옵니다.
func ReadIngestConfigFromEnv() (IngestConfig, error) {
	maxFrameBytes, err := Int64FromEnv("INGEST_MAX_FRAME_BYTES", DefaultMaxFrameBytes)
	if err != nil {
		return IngestConfig{}, fmt.Errorf("read INGEST_MAX_FRAME_BYTES failed: %w", err)
	}
	if maxFrameBytes <= 0 {
		return IngestConfig{}, fmt.Errorf("invalid INGEST_MAX_FRAME_BYTES: %d", maxFrameBytes)
	}

	frameRate, err := Float64FromEnv("INGEST_FRAME_RATE", DefaultFrameRate)
	if err != nil {
		return IngestConfig{}, fmt.Errorf("read INGEST_FRAME_RATE failed: %w", err)
	}
	if frameRate < 0 {
		return IngestConfig{}, fmt.Errorf("invalid INGEST_FRAME_RATE: %f", frameRate)
	}

	frameBurst, err := IntFromEnv("INGEST_FRAME_BURST", DefaultFrameBurst)
	if err != nil {
		return IngestConfig{}, fmt.Errorf("read INGEST_FRAME_BURST failed: %w", err)
	}
	if frameBurst <= 0 {
		frameBurst = DefaultFrameBurst
	}

	writeTimeout, err := DurationSecondsFromEnv("INGEST_WRITE_TIMEOUT_SECONDS", DefaultWriteTimeoutSeconds)
	if err != nil {
		return IngestConfig{}, fmt.Errorf("read INGEST_WRITE_TIMEOUT_SECONDS failed: %w", err)
	}

	return IngestConfig{
		MaxFrameBytes:  maxFrameBytes,
		FrameRate:      frameRate,
		FrameBurst:     frameBurst,
		WriteTimeout:   writeTimeout,
		AllowedOrigins: StringListFromEnv("INGEST_ALLOWED_ORIGINS", nil),
	}, nil
}

// ReadTelemetryConfigFromEnv: OpenTelemetry 트레이싱 설정을 환경 변수에서 읽어옵니다.
func ReadTelemetryConfigFromEnv(defaultServiceName string) (TelemetryConfig, error) {
	enabled, err := BoolFromEnv("OTEL_ENABLED", false)
	if err != nil {
		return TelemetryConfig{}, fmt.Errorf("read OTEL_ENABLED failed: %w", err)
	}

	sampleRatio, err := Float64FromEnv("OTEL_TRACES_SAMPLER_RATIO", 1.0)
	if err != nil {
		return TelemetryConfig{}, fmt.Errorf("read OTEL_TRACES_SAMPLER_RATIO failed: %w", err)
	}
	if sampleRatio < 0 || sampleRatio > 1 {
		return TelemetryConfig{}, fmt.Errorf("invalid OTEL_TRACES_SAMPLER_RATIO: %f", sampleRatio)
	}

	insecureConn, err := BoolFromEnv("OTEL_EXPORTER_OTLP_INSECURE", true)
	if err != nil {
		return TelemetryConfig{}, fmt.Errorf("read OTEL_EXPORTER_OTLP_INSECURE failed: %w", err)
	}

	return TelemetryConfig{
		Enabled: enabled,
		Endpoint: StringFromEnvFirstNonEmpty(
			[]string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"},
			"localhost:4317",
		),
		ServiceName:  StringFromEnv("OTEL_SERVICE_NAME", defaultServiceName),
		SampleRatio:  sampleRatio,
		InsecureConn: insecureConn,
	}, nil
}

// ReadLogConfigFromEnv: 로그 레벨과 파일 출력 설정을 환경 변수에서 읽어옵니다.
func ReadLogConfigFromEnv() (LogConfig, error) {
	level := strings.ToLower(StringFromEnv("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL: %q", level)
	}

	dir := StringFromEnv("LOG_DIR", "")
	if strings.TrimSpace(dir) == "" {
		return LogConfig{Level: level}, nil
	}

	maxSizeMB, err := IntFromEnv("LOG_FILE_MAX_SIZE_MB", 1)
	if err != nil {
		return LogConfig{}, fmt.Errorf("read LOG_FILE_MAX_SIZE_MB failed: %w", err)
	}
	if maxSizeMB <= 0 {
		return LogConfig{}, fmt.Errorf("invalid LOG_FILE_MAX_SIZE_MB: %d", maxSizeMB)
	}

	maxBackups, err := IntFromEnv("LOG_FILE_MAX_BACKUPS", 30)
	if err != nil {
		return LogConfig{}, fmt.Errorf("read LOG_FILE_MAX_BACKUPS failed: %w", err)
	}
	if maxBackups <= 0 {
		return LogConfig{}, fmt.Errorf("invalid LOG_FILE_MAX_BACKUPS: %d", maxBackups)
	}

	maxAgeDays, err := IntFromEnv("LOG_FILE_MAX_AGE_DAYS", 7)
	if err != nil {
		return LogConfig{}, fmt.Errorf("read LOG_FILE_MAX_AGE_DAYS failed: %w", err)
	}
	if maxAgeDays <= 0 {
		return LogConfig{}, fmt.Errorf("invalid LOG_FILE_MAX_AGE_DAYS: %d", maxAgeDays)
	}

	compress, err := BoolFromEnv("LOG_FILE_COMPRESS", true)
	if err != nil {
		return LogConfig{}, fmt.Errorf("read LOG_FILE_COMPRESS failed: %w", err)
	}

	return LogConfig{
		Level:      level,
		Dir:        dir,
		MaxSizeMB:  maxSizeMB,
		MaxBackups: maxBackups,
		MaxAgeDays: maxAgeDays,
		Compress:   compress,
	}, nil
}

// LoadFromEnv: 서버 전체 설정을 환경 변수에서 조립합니다.
func LoadFromEnv(serviceName string) (*Config, error) {
	server, err := ReadServerConfigFromEnv(DefaultServerPort)
	if err != nil {
		return nil, err
	}

	tuning, err := ReadServerTuningConfigFromEnv()
	if err != nil {
		return nil, err
	}

	database, err := ReadDatabaseConfigFromEnv()
	if err != nil {
		return nil, err
	}

	ingest, err := ReadIngestConfigFromEnv()
	if err != nil {
		return nil, err
	}

	telemetry, err := ReadTelemetryConfigFromEnv(serviceName)
	if err != nil {
		return nil, err
	}

	logCfg, err := ReadLogConfigFromEnv()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := DurationSecondsFromEnv(
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		DefaultShutdownTimeoutSeconds,
	)
	if err != nil {
		return nil, fmt.Errorf("read SERVER_SHUTDOWN_TIMEOUT_SECONDS failed: %w", err)
	}

	// 트레이싱이 켜져 있으면 로그에도 추적 식별자를 첨부한다.
	logCfg.TraceCorrelation = telemetry.Enabled

	return &Config{
		Server:          server,
		ServerTuning:    tuning,
		Database:        database,
		Ingest:          ingest,
		Telemetry:       telemetry,
		Log:             logCfg,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}
