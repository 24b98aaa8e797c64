package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/infra/security"
	"github.com/aurelhotels/credential-service/internal/repository"
)

type sessionRepoMock struct {
	byHash    map[string]domain.Session
	revoked   int
	revokeErr error
	reason    string
}

func (m *sessionRepoMock) GetByTokenHash(_ context.Context, hash string) (*domain.Session, error) {
	if session, ok := m.byHash[hash]; ok {
		s := session
		return &s, nil
	}
	return nil, repository.ErrNotFound
}

func (m *sessionRepoMock) ListByUser(context.Context, string) ([]domain.Session, error) {
	return nil, errors.New("unexpected call: ListByUser")
}

func (m *sessionRepoMock) RevokeAllForUser(_ context.Context, _ string, reason string, _ time.Time) (int, error) {
	if m.revokeErr != nil {
		return 0, m.revokeErr
	}
	m.reason = reason
	return m.revoked, nil
}

func TestSessionServiceRevokeAllSessions(t *testing.T) {
	repo := &sessionRepoMock{revoked: 2}
	svc := NewSessionService(repo, nil)

	count, err := svc.RevokeAllSessions(context.Background(), "user-1", RevokeReasonPasswordReset)
	if err != nil {
		t.Fatalf("RevokeAllSessions returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 revoked sessions, got %d", count)
	}
	if repo.reason != RevokeReasonPasswordReset {
		t.Fatalf("expected revoke reason %s, got %s", RevokeReasonPasswordReset, repo.reason)
	}
}

func TestSessionServiceRevokeAllSessionsNoActive(t *testing.T) {
	repo := &sessionRepoMock{revoked: 0}
	svc := NewSessionService(repo, nil)

	count, err := svc.RevokeAllSessions(context.Background(), "user-1", RevokeReasonPasswordReset)
	if err != nil {
		t.Fatalf("zero active sessions must be a no-op success: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 revoked sessions, got %d", count)
	}
}

func TestSessionServiceValidateSessionToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := "session-token-raw"
	revokedAt := now.Add(-time.Minute)

	cases := []struct {
		name    string
		session *domain.Session
		token   string
		wantErr error
	}{
		{
			name:    "active session",
			session: &domain.Session{ID: "sess-1", UserID: "user-1", ExpiresAt: now.Add(time.Hour)},
			token:   raw,
		},
		{
			name:    "expired session",
			session: &domain.Session{ID: "sess-2", UserID: "user-1", ExpiresAt: now.Add(-time.Hour)},
			token:   raw,
			wantErr: ErrSessionInvalid,
		},
		{
			name:    "revoked session",
			session: &domain.Session{ID: "sess-3", UserID: "user-1", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt},
			token:   raw,
			wantErr: ErrSessionInvalid,
		},
		{
			name:    "unknown token",
			token:   "different-token",
			wantErr: ErrSessionInvalid,
		},
		{
			name:    "blank token",
			token:   "  ",
			wantErr: ErrSessionInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &sessionRepoMock{byHash: map[string]domain.Session{}}
			if tc.session != nil {
				session := *tc.session
				session.TokenHash = security.HashToken(raw)
				repo.byHash[session.TokenHash] = session
			}

			svc := NewSessionService(repo, nil).WithClock(func() time.Time { return now })

			session, err := svc.ValidateSessionToken(context.Background(), tc.token)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateSessionToken returned error: %v", err)
			}
			if session.ID != tc.session.ID {
				t.Fatalf("expected session %s, got %s", tc.session.ID, session.ID)
			}
		})
	}
}
