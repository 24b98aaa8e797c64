package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurelhotels/credential-service/internal/infra/config"
	memoryrepo "github.com/aurelhotels/credential-service/internal/repository/memory"
)

func testRateLimitSettings() config.RateLimitSettings {
	return config.RateLimitSettings{
		WindowDuration: 24 * time.Hour,
		MaxAttempts:    3,
		Cooldown:       5 * time.Minute,
	}
}

type failingRateLimitStore struct{}

func (failingRateLimitStore) TrimWindow(context.Context, string, time.Duration, time.Time) error {
	return errors.New("store unavailable")
}

func (failingRateLimitStore) CountAttempts(context.Context, string, time.Duration, time.Time) (int, error) {
	return 0, errors.New("store unavailable")
}

func (failingRateLimitStore) RecordAttempt(context.Context, string, time.Time) error {
	return errors.New("store unavailable")
}

func (failingRateLimitStore) OldestAttempt(context.Context, string, time.Duration, time.Time) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("store unavailable")
}

func (failingRateLimitStore) LatestAttempt(context.Context, string, time.Duration, time.Time) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("store unavailable")
}

func TestResetRateLimiterAllowsUpToCap(t *testing.T) {
	store := memoryrepo.NewRateLimitRepository()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewResetRateLimiter(store, testRateLimitSettings(), nil).
		WithClock(func() time.Time { return now })

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision := limiter.Check(ctx, "guest@example.com")
		if !decision.Allowed {
			t.Fatalf("attempt %d should be allowed, got %+v", i+1, decision)
		}
		limiter.Record(ctx, "guest@example.com")
		now = now.Add(10 * time.Minute)
	}

	decision := limiter.Check(ctx, "guest@example.com")
	if decision.Allowed {
		t.Fatal("fourth attempt inside the window must be denied")
	}
	if decision.AttemptsToday != 3 {
		t.Fatalf("expected 3 attempts reported, got %d", decision.AttemptsToday)
	}
}

func TestResetRateLimiterCooldownBetweenAttempts(t *testing.T) {
	store := memoryrepo.NewRateLimitRepository()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewResetRateLimiter(store, testRateLimitSettings(), nil).
		WithClock(func() time.Time { return now })

	ctx := context.Background()
	limiter.Record(ctx, "guest@example.com")

	now = now.Add(90 * time.Second)
	decision := limiter.Check(ctx, "guest@example.com")
	if decision.Allowed {
		t.Fatal("attempt inside cooldown must be denied")
	}
	// 3.5 minutes remain; rounded up to 4.
	if decision.WaitMinutes != 4 {
		t.Fatalf("expected wait of 4 minutes, got %d", decision.WaitMinutes)
	}

	now = now.Add(4 * time.Minute)
	decision = limiter.Check(ctx, "guest@example.com")
	if !decision.Allowed {
		t.Fatalf("attempt after cooldown should be allowed, got %+v", decision)
	}
}

func TestResetRateLimiterCheckDoesNotConsume(t *testing.T) {
	store := memoryrepo.NewRateLimitRepository()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewResetRateLimiter(store, testRateLimitSettings(), nil).
		WithClock(func() time.Time { return now })

	ctx := context.Background()

	for i := 0; i < 10; i++ {
		decision := limiter.Check(ctx, "guest@example.com")
		if !decision.Allowed {
			t.Fatalf("check %d must not consume quota", i+1)
		}
	}

	count, err := store.CountAttempts(ctx, rateLimitKey("guest@example.com"), 24*time.Hour, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no recorded attempts, got %d", count)
	}
}

func TestResetRateLimiterWindowExpiry(t *testing.T) {
	store := memoryrepo.NewRateLimitRepository()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewResetRateLimiter(store, testRateLimitSettings(), nil).
		WithClock(func() time.Time { return now })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		limiter.Record(ctx, "guest@example.com")
		now = now.Add(10 * time.Minute)
	}

	if decision := limiter.Check(ctx, "guest@example.com"); decision.Allowed {
		t.Fatal("cap reached, expected denial")
	}

	now = now.Add(25 * time.Hour)
	if decision := limiter.Check(ctx, "guest@example.com"); !decision.Allowed {
		t.Fatalf("attempts outside the window must not count, got %+v", decision)
	}
}

func TestResetRateLimiterKeysAreCaseInsensitive(t *testing.T) {
	store := memoryrepo.NewRateLimitRepository()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewResetRateLimiter(store, testRateLimitSettings(), nil).
		WithClock(func() time.Time { return now })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		limiter.Record(ctx, "Guest@Example.COM")
		now = now.Add(10 * time.Minute)
	}

	if decision := limiter.Check(ctx, "guest@example.com"); decision.Allowed {
		t.Fatal("differently-cased addresses must share a limiter bucket")
	}
}

func TestResetRateLimiterFailsOpen(t *testing.T) {
	limiter := NewResetRateLimiter(failingRateLimitStore{}, testRateLimitSettings(), nil)

	decision := limiter.Check(context.Background(), "guest@example.com")
	if !decision.Allowed {
		t.Fatal("an unavailable store must not block resets")
	}

	// Record must swallow the failure.
	limiter.Record(context.Background(), "guest@example.com")
}
