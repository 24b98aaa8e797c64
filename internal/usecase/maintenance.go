package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/infra/telemetry"
)

// MaintenanceService removes dead reset tokens and reports issuance stats.
type MaintenanceService struct {
	tokens  port.TokenRepository
	metrics *telemetry.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewMaintenanceService constructs the maintenance service.
func NewMaintenanceService(tokens port.TokenRepository, metrics *telemetry.Metrics, log *zap.Logger) *MaintenanceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MaintenanceService{
		tokens:  tokens,
		metrics: metrics,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock overrides the service's time source for tests.
func (s *MaintenanceService) WithClock(now func() time.Time) *MaintenanceService {
	if now != nil {
		s.now = now
	}
	return s
}

// CleanupExpiredTokens deletes expired, used, and revoked reset tokens and
// returns how many rows were removed.
func (s *MaintenanceService) CleanupExpiredTokens(ctx context.Context) (int, error) {
	purged, err := s.tokens.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}

	if purged > 0 {
		s.logger.Info("reset tokens purged", zap.Int("count", purged))
		if s.metrics != nil {
			s.metrics.TokensPurged.Add(float64(purged))
		}
	}
	return purged, nil
}

// ResetStatistics aggregates token counts over the trailing window.
func (s *MaintenanceService) ResetStatistics(ctx context.Context, window time.Duration) (*domain.ResetTokenStats, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	to := s.now().UTC()
	stats, err := s.tokens.Stats(ctx, to.Add(-window), to)
	if err != nil {
		return nil, fmt.Errorf("aggregate reset token stats: %w", err)
	}
	return stats, nil
}

// Run executes cleanup on the given interval until the context is canceled.
// Intended to be launched as a background goroutine at startup.
func (s *MaintenanceService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("token maintenance loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("token maintenance loop stopped")
			return
		case <-ticker.C:
			if _, err := s.CleanupExpiredTokens(ctx); err != nil {
				s.logger.Error("token cleanup failed", zap.Error(err))
			}
		}
	}
}
