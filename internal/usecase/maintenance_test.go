package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurelhotels/credential-service/internal/core/domain"
)

type maintenanceTokenRepoMock struct {
	purged      int
	purgeErr    error
	purgeBefore time.Time
	statsFrom   time.Time
	statsTo     time.Time
	stats       *domain.ResetTokenStats
	statsErr    error
}

func (m *maintenanceTokenRepoMock) Create(context.Context, domain.ResetToken) error {
	return errors.New("unexpected call: Create")
}

func (m *maintenanceTokenRepoMock) GetByHash(context.Context, string) (*domain.ResetToken, error) {
	return nil, errors.New("unexpected call: GetByHash")
}

func (m *maintenanceTokenRepoMock) Consume(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("unexpected call: Consume")
}

func (m *maintenanceTokenRepoMock) RevokeAllForUser(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("unexpected call: RevokeAllForUser")
}

func (m *maintenanceTokenRepoMock) PurgeExpired(_ context.Context, before time.Time) (int, error) {
	if m.purgeErr != nil {
		return 0, m.purgeErr
	}
	m.purgeBefore = before
	return m.purged, nil
}

func (m *maintenanceTokenRepoMock) Stats(_ context.Context, from, to time.Time) (*domain.ResetTokenStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	m.statsFrom = from
	m.statsTo = to
	return m.stats, nil
}

func TestMaintenanceCleanupExpiredTokens(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &maintenanceTokenRepoMock{purged: 7}
	svc := NewMaintenanceService(repo, nil, nil).WithClock(func() time.Time { return now })

	purged, err := svc.CleanupExpiredTokens(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpiredTokens returned error: %v", err)
	}
	if purged != 7 {
		t.Fatalf("expected 7 purged tokens, got %d", purged)
	}
	if !repo.purgeBefore.Equal(now) {
		t.Fatalf("expected purge cutoff %v, got %v", now, repo.purgeBefore)
	}
}

func TestMaintenanceCleanupPropagatesError(t *testing.T) {
	repo := &maintenanceTokenRepoMock{purgeErr: errors.New("database down")}
	svc := NewMaintenanceService(repo, nil, nil)

	if _, err := svc.CleanupExpiredTokens(context.Background()); err == nil {
		t.Fatal("expected purge error to propagate")
	}
}

func TestMaintenanceResetStatistics(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &maintenanceTokenRepoMock{
		stats: &domain.ResetTokenStats{Issued: 10, Used: 6, Expired: 3, Active: 1},
	}
	svc := NewMaintenanceService(repo, nil, nil).WithClock(func() time.Time { return now })

	stats, err := svc.ResetStatistics(context.Background(), 72*time.Hour)
	if err != nil {
		t.Fatalf("ResetStatistics returned error: %v", err)
	}
	if stats.Issued != 10 || stats.Used != 6 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !repo.statsFrom.Equal(now.Add(-72 * time.Hour)) {
		t.Fatalf("expected window start %v, got %v", now.Add(-72*time.Hour), repo.statsFrom)
	}
	if !repo.statsTo.Equal(now) {
		t.Fatalf("expected window end %v, got %v", now, repo.statsTo)
	}
}

func TestMaintenanceResetStatisticsDefaultWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &maintenanceTokenRepoMock{stats: &domain.ResetTokenStats{}}
	svc := NewMaintenanceService(repo, nil, nil).WithClock(func() time.Time { return now })

	if _, err := svc.ResetStatistics(context.Background(), 0); err != nil {
		t.Fatalf("ResetStatistics returned error: %v", err)
	}
	if !repo.statsFrom.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("expected default 24h window, got start %v", repo.statsFrom)
	}
}
