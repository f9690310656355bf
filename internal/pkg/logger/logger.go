// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// 全局基础 logger，默认输出到 stderr。
// 各服务在启动时通过 Init 绑定服务名。
var base = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init 初始化全局 logger，附加服务名字段。
func Init(serviceName string) {
	base = zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Logger 返回全局 logger，用于没有请求上下文的场合。
func Logger() *zerolog.Logger {
	return &base
}

// Ctx 返回一个绑定了当前链路 trace_id/span_id 的 logger。
// 上下文中没有活跃 Span 时，退化为全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &base
	}
	l := base.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &l
}
