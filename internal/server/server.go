// Package server: HTTP 서버 및 라우팅
package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/analytics/consumer"
	commonconfig "github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/config"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/health"
	"github.com/park285/llm-kakao-bots/analytics-server-go/internal/common/httpserver"
)

// Server: 텔레메트리 수집 HTTP/WebSocket 서버
type Server struct {
	engine     *gin.Engine
	cfg        *commonconfig.Config
	logger     *slog.Logger
	dispatcher *consumer.Dispatcher
	sqlDB      *sql.DB
}

// New: 서버를 생성하고 라우트를 구성합니다.
func New(
	cfg *commonconfig.Config,
	logger *slog.Logger,
	dispatcher *consumer.Dispatcher,
	sqlDB *sql.DB,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// OTel 미들웨어: 활성화된 경우 모든 HTTP 요청을 추적함 (가장 앞에 배치)
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
		logger.Info("otel_http_middleware_enabled", slog.String("service", cfg.Telemetry.ServiceName))
	}

	engine.Use(gin.Recovery())

	// CORS 설정: 허용 오리진이 비어있으면 전체 허용 (게임 클라이언트는 출처가 다양함)
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.Ingest.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Ingest.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	engine.Use(cors.New(corsCfg))

	s := &Server{
		engine:     engine,
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatcher,
		sqlDB:      sqlDB,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/ws", s.handleIngest)
	s.engine.GET("/greeting/:name", s.handleGreeting)
	s.setupHealthRoute()
}

// handleGreeting: 연결성 확인용 인사 엔드포인트
func (s *Server) handleGreeting(c *gin.Context) {
	c.String(http.StatusOK, fmt.Sprintf("Hello, %s!", c.Param("name")))
}

// setupHealthRoute: 헬스체크 라우트 (DB ping 포함)
func (s *Server) setupHealthRoute() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		if s.sqlDB != nil {
			if err := s.sqlDB.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, health.Get())
	})
}

// HTTPServer: net/http.Server 인스턴스를 반환합니다.
func (s *Server) HTTPServer() *http.Server {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	return httpserver.NewServer(addr, s.engine, httpserver.ServerOptions{
		UseH2C:            true,
		ReadHeaderTimeout: s.cfg.ServerTuning.ReadHeaderTimeout,
		IdleTimeout:       s.cfg.ServerTuning.IdleTimeout,
		MaxHeaderBytes:    s.cfg.ServerTuning.MaxHeaderBytes,
	})
}

// Engine: 테스트에서 라우터에 직접 접근할 때 사용합니다.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
