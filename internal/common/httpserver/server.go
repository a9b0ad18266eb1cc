// Package httpserver: http.Server 구성과 우아한 종료.
// 수집 트래픽의 대부분이 장수 웹소켓 연결이므로 서버 전역
// ReadTimeout/WriteTimeout은 설정하지 않는다. (설정하면 업그레이드된
// 연결까지 끊어버린다 — 프레임 단위 데드라인은 핸들러가 직접 건다)
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServerOptions: http.Server 구성 옵션.
// ReadHeaderTimeout은 업그레이드 전 핸드셰이크에만 적용되므로 웹소켓과 안전하다.
type ServerOptions struct {
	UseH2C            bool
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

// NewServer: 옵션을 적용한 http.Server를 생성합니다.
// UseH2C가 켜져 있으면 cleartext HTTP/2를 수락하되, HTTP/1.1 Upgrade 요청은
// 그대로 통과시키므로 웹소켓 하이잭과 공존한다.
func NewServer(addr string, handler http.Handler, opts ServerOptions) *http.Server {
	if handler == nil {
		handler = http.NewServeMux()
	}
	if opts.UseH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
	if server.ReadHeaderTimeout <= 0 {
		server.ReadHeaderTimeout = 5 * time.Second
	}
	if opts.IdleTimeout > 0 {
		server.IdleTimeout = opts.IdleTimeout
	}
	if opts.MaxHeaderBytes > 0 {
		server.MaxHeaderBytes = opts.MaxHeaderBytes
	}
	return server
}

// Serve: 서버를 시작하고 컨텍스트 취소 시 우아하게 종료합니다.
// Shutdown은 유휴 연결만 닫는다. 열린 웹소켓은 핸들러가 컨텍스트 취소를
// 감지해 스스로 내려가야 하며, shutdownTimeout이 그 상한이다.
func Serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server listen failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		// 기한 내에 비워지지 않은 연결은 강제로 닫는다.
		server.Close()
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server stopped with error: %w", err)
	}
	return nil
}
