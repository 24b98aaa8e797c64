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

func TestRateLimitRepository_RecordAndCount(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{
		KeyPrefix: "credsvc:rate-limit",
		TTL:       48 * time.Hour,
	})

	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{-30 * time.Hour, -time.Hour, -time.Minute} {
		if err := repo.RecordAttempt(ctx, "password_reset:guest@example.com", base.Add(offset)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "password_reset:guest@example.com", 24*time.Hour, base)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 attempts inside window, got %d", count)
	}

	remaining := server.TTL("credsvc:rate-limit:password_reset:guest@example.com")
	if remaining <= 0 || remaining > 48*time.Hour {
		t.Fatalf("expected ttl within (0, 48h], got %v", remaining)
	}
}

func TestRateLimitRepository_TrimWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "credsvc:rate-limit"})

	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = repo.RecordAttempt(ctx, "key", base.Add(-48*time.Hour))
	_ = repo.RecordAttempt(ctx, "key", base.Add(-time.Hour))

	if err := repo.TrimWindow(ctx, "key", 24*time.Hour, base); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "key", 72*time.Hour, base)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected stale attempt removed, got %d", count)
	}
}

func TestRateLimitRepository_BoundaryAttempts(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "credsvc:rate-limit"})

	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := base.Add(-3 * time.Hour)
	latest := base.Add(-5 * time.Minute)
	_ = repo.RecordAttempt(ctx, "key", oldest)
	_ = repo.RecordAttempt(ctx, "key", base.Add(-time.Hour))
	_ = repo.RecordAttempt(ctx, "key", latest)

	got, found, err := repo.OldestAttempt(ctx, "key", 24*time.Hour, base)
	if err != nil || !found {
		t.Fatalf("OldestAttempt found=%v err=%v", found, err)
	}
	if !got.Equal(oldest) {
		t.Fatalf("expected oldest %v, got %v", oldest, got)
	}

	got, found, err = repo.LatestAttempt(ctx, "key", 24*time.Hour, base)
	if err != nil || !found {
		t.Fatalf("LatestAttempt found=%v err=%v", found, err)
	}
	if !got.Equal(latest) {
		t.Fatalf("expected latest %v, got %v", latest, got)
	}
}

func TestRateLimitRepository_MissingKey(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "credsvc:rate-limit"})

	_, found, err := repo.LatestAttempt(context.Background(), "missing", 24*time.Hour, time.Now())
	if err != nil {
		t.Fatalf("LatestAttempt returned error: %v", err)
	}
	if found {
		t.Fatal("expected no attempt for unknown identifier")
	}
}
