package bootstrap

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// OTelHandler: 로그 레코드에 현재 스팬의 trace_id/span_id를 첨부하는 slog.Handler.
// 수집 파이프라인의 로그를 분산 추적과 상호 참조할 수 있게 한다.
// 스팬이 없는 컨텍스트(연결 정리, 부팅)에서는 아무것도 추가하지 않는다.
type OTelHandler struct {
	inner slog.Handler
}

// NewOTelHandler: 내부 핸들러를 감싸는 OTelHandler를 생성합니다.
func NewOTelHandler(inner slog.Handler) *OTelHandler {
	return &OTelHandler{inner: inner}
}

// Enabled: 내부 핸들러의 레벨 판정을 그대로 따릅니다.
func (h *OTelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle: 유효한 스팬 컨텍스트가 있으면 추적 식별자를 첨부해 전달합니다.
func (h *OTelHandler) Handle(ctx context.Context, record slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	//nolint:wrapcheck // slog.Handler interface implementation
	return h.inner.Handle(ctx, record)
}

// WithAttrs: 속성이 추가된 새 핸들러를 반환합니다.
func (h *OTelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &OTelHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup: 그룹이 추가된 새 핸들러를 반환합니다.
func (h *OTelHandler) WithGroup(name string) slog.Handler {
	return &OTelHandler{inner: h.inner.WithGroup(name)}
}
