package reqid

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// HeaderName 是请求 ID 的 HTTP header 名称
const HeaderName = "X-Request-ID"

// New 生成一个新的请求 ID
func New() string {
	return uuid.NewString()
}

// FromContext 从 context 中获取 request_id
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// WithContext 将 request_id 添加到 context 中
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}
