package config

// 서버 공통 상수.
const (
	// DefaultServerPort: 수집 서버 기본 포트
	DefaultServerPort = 8000
	// DefaultShutdownTimeoutSeconds: 종료 시 드레인 대기 시간(초)
	DefaultShutdownTimeoutSeconds = 15
)

// 수집 엔드포인트 상수.
const (
	// DefaultMaxFrameBytes: 수신 프레임 최대 크기 (1MiB)
	DefaultMaxFrameBytes = 1 << 20
	// DefaultFrameRate: 연결당 초당 허용 프레임 수
	DefaultFrameRate = 100
	// DefaultFrameBurst: 순간 허용 버스트 크기
	DefaultFrameBurst = 200
	// DefaultWriteTimeoutSeconds: 프레임 쓰기 타임아웃(초)
	DefaultWriteTimeoutSeconds = 10
)

// 데이터베이스 상수.
const (
	// DefaultDBMaxOpenConns: 최대 DB 커넥션 수
	DefaultDBMaxOpenConns = 25
	// DefaultDBMaxIdleConns: 최대 유휴 DB 커넥션 수
	DefaultDBMaxIdleConns = 5
	// DefaultDBConnMaxLifetimeMinutes: 커넥션 최대 수명(분)
	DefaultDBConnMaxLifetimeMinutes = 30
)
