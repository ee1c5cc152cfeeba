package logger

import (
	"context"

	"go.uber.org/zap"

	"resops/pkg/reqid"
)

func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// WithRequestID 从 context 中提取 request_id 并添加到 logger
func WithRequestID(ctx context.Context, logger *zap.Logger) *zap.Logger {
	id := reqid.FromContext(ctx)
	if id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
