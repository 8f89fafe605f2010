package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// HeaderName trace ID 的 HTTP header 名称，同时转发给上游 API
const HeaderName = "X-Trace-ID"

// GenerateTraceID 生成一个新的 trace ID
func GenerateTraceID() string {
	return uuid.NewString()
}

// FromContext 从 context 中获取 trace_id
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(ctxKey{}).(string); ok {
		return traceID
	}
	return ""
}

// WithContext 将 trace_id 添加到 context 中
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// Ensure 如果 context 中没有 trace_id 则生成一个
func Ensure(ctx context.Context) context.Context {
	if FromContext(ctx) != "" {
		return ctx
	}
	return WithContext(ctx, GenerateTraceID())
}

// FromHeader 优先使用 X-Trace-ID，其次 X-Request-ID，都没有时生成新的
func FromHeader(traceHeader, requestHeader string) string {
	if traceHeader != "" {
		return traceHeader
	}
	if requestHeader != "" {
		return requestHeader
	}
	return GenerateTraceID()
}
