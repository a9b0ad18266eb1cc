package config

import "time"

// ServerConfig: HTTP 서버 주소/포트 설정입니다.
type ServerConfig struct {
	Host string // 서버 바인딩 호스트
	Port int    // 서버 리스닝 포트
}

// ServerTuningConfig: HTTP 서버 튜닝 설정(Timeouts, Limits)입니다.
type ServerTuningConfig struct {
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

// DatabaseConfig: PostgreSQL 연결 설정입니다.
type DatabaseConfig struct {
	Host     string // 서버 호스트
	Port     int    // 서버 포트
	User     string // 접속 사용자
	Password string // 인증 패스워드
	Database string // 데이터베이스 이름
	SSLMode  string // sslmode (disable/require/...)

	MaxOpenConns    int           // 최대 커넥션 수
	MaxIdleConns    int           // 최대 유휴 커넥션 수
	ConnMaxLifetime time.Duration // 커넥션 최대 수명
}

// IngestConfig: WebSocket 수집 엔드포인트 설정입니다.
type IngestConfig struct {
	MaxFrameBytes  int64         // 수신 프레임 최대 크기
	FrameRate      float64       // 연결당 초당 허용 프레임 수 (0이면 무제한)
	FrameBurst     int           // 순간 허용 버스트 크기
	WriteTimeout   time.Duration // 프레임 쓰기 타임아웃
	AllowedOrigins []string      // CORS 허용 오리진 (비어있으면 전체 허용)
}

// TelemetryConfig: OpenTelemetry 트레이싱 설정입니다.
type TelemetryConfig struct {
	Enabled      bool    // 트레이싱 활성화 여부
	Endpoint     string  // OTLP gRPC 엔드포인트 (host:port)
	ServiceName  string  // 리소스 service.name
	SampleRatio  float64 // 샘플링 비율 (0.0 ~ 1.0)
	InsecureConn bool    // TLS 없이 연결할지 여부
}

// LogConfig: 로그 레벨과 파일 로테이션 설정입니다.
type LogConfig struct {
	Level string // 최소 로그 레벨 (debug|info|warn|error)
	Dir   string // 로그 파일 디렉터리 (비면 stdout 전용)

	MaxSizeMB  int  // 단일 파일 최대 크기 (MB)
	MaxBackups int  // 보관할 백업 파일 수
	MaxAgeDays int  // 백업 파일 보관 일수
	Compress   bool // 백업 파일 압축 여부

	// TraceCorrelation: 로그에 trace_id/span_id를 첨부할지 여부.
	// LoadFromEnv가 텔레메트리 활성화 여부를 따라 채운다.
	TraceCorrelation bool
}

// Config: 서버 전체 설정입니다. LoadFromEnv로 조립합니다.
type Config struct {
	Server       ServerConfig
	ServerTuning ServerTuningConfig
	Database     DatabaseConfig
	Ingest       IngestConfig
	Telemetry    TelemetryConfig
	Log          LogConfig

	ShutdownTimeout time.Duration
}
