package infra

import (
	"context"
	"testing"
)

func TestNewPostgresPoolEmptyURL(t *testing.T) {
	pool, err := NewPostgresPool(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool != nil {
		t.Fatalf("expected nil pool for empty url")
	}
}

func TestNewPostgresPoolBadURL(t *testing.T) {
	if _, err := NewPostgresPool(context.Background(), "postgres://%zz"); err == nil {
		t.Fatalf("expected parse error")
	}
}
