package postgres

import (
	"context"
	"testing"
	"time"
)

func TestNewPoolRejectsInvalidURL(t *testing.T) {
	ctx := context.Background()

	if _, err := NewPool(ctx, "not-a-url", 1, 0); err == nil {
		t.Fatalf("expected error when parsing invalid URL")
	}
}

func TestNewPoolPingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewPool(ctx, "postgres://invalid.invalid:5432/db", 1, 0); err == nil {
		t.Fatalf("expected error when pool cannot connect")
	}
}
