package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRateLimitRepository_SlidingWindow(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "taskboard:rate-limit", TTL: 2 * time.Minute})

	ctx := context.Background()
	window := time.Minute
	base := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{0, 10 * time.Second, 10 * time.Second, 40 * time.Second} {
		if err := repo.RecordAttempt(ctx, "login:198.51.100.7", base.Add(offset)); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	if !server.Exists("taskboard:rate-limit:login:198.51.100.7") {
		t.Fatal("expected prefixed key to exist")
	}
	if ttl := server.TTL("taskboard:rate-limit:login:198.51.100.7"); ttl != 2*time.Minute {
		t.Fatalf("expected ttl of 2m, got %s", ttl)
	}

	reference := base.Add(45 * time.Second)
	count, err := repo.CountAttempts(ctx, "login:198.51.100.7", window, reference)
	if err != nil {
		t.Fatalf("CountAttempts: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 attempts including simultaneous ones, got %d", count)
	}

	later := base.Add(65 * time.Second)
	if err := repo.TrimWindow(ctx, "login:198.51.100.7", window, later); err != nil {
		t.Fatalf("TrimWindow: %v", err)
	}

	count, err = repo.CountAttempts(ctx, "login:198.51.100.7", window, later)
	if err != nil {
		t.Fatalf("CountAttempts: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts after trimming, got %d", count)
	}

	oldest, ok, err := repo.OldestAttempt(ctx, "login:198.51.100.7", window, later)
	if err != nil {
		t.Fatalf("OldestAttempt: %v", err)
	}
	if !ok || !oldest.Equal(base.Add(10*time.Second)) {
		t.Fatalf("expected oldest attempt at +10s, got %s (ok=%v)", oldest, ok)
	}
}

func TestRateLimitRepository_EmptyWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{})

	_, ok, err := repo.OldestAttempt(context.Background(), "nobody", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("OldestAttempt: %v", err)
	}
	if ok {
		t.Fatal("expected no attempts")
	}
}

func TestRateLimitRepository_RejectsNonPositiveWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{})

	ctx := context.Background()
	if _, err := repo.CountAttempts(ctx, "id", 0, time.Now()); err == nil {
		t.Fatal("expected error for zero window in CountAttempts")
	}
	if err := repo.TrimWindow(ctx, "id", -time.Second, time.Now()); err == nil {
		t.Fatal("expected error for negative window in TrimWindow")
	}
}
