package services_test

import (
	"context"
	"testing"

	"hlsbot/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "4f1c")
	ctx = services.WithStage(ctx, "transcode")
	ctx = services.WithChatID(ctx, -1001)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "4f1c" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcode" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if chat, ok := services.ChatIDFromContext(ctx); !ok || chat != -1001 {
		t.Fatalf("unexpected chat id: %v %v", chat, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithJobID(ctx, "")
	ctx = services.WithChatID(ctx, 0)
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("expected no job id value")
	}
	if _, ok := services.ChatIDFromContext(ctx); ok {
		t.Fatal("expected no chat id value")
	}
}
