package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"resops/pkg/reqid"
)

func TestWithRequestID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)

	ctx := reqid.WithContext(context.Background(), "req-42")
	WithRequestID(ctx, l).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-42" {
		t.Fatalf("request_id = %v, want req-42", fields["request_id"])
	}
}

func TestWithRequestIDNoID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)

	WithRequestID(context.Background(), l).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	if _, ok := entries[0].ContextMap()["request_id"]; ok {
		t.Fatal("request_id field attached without an id in context")
	}
}
