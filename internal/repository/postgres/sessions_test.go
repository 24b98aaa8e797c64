package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/aurelhotels/credential-service/internal/repository"
)

func TestSessionRepository_RevokeAllForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE hotel\.sessions SET revoked_at = \$1, revoke_reason = \$2 WHERE user_id = \$3 AND revoked_at IS NULL AND expires_at > \$4`).
		WithArgs(at, "password_reset", "user-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	revoked, err := repo.RevokeAllForUser(context.Background(), "user-1", "password_reset", at)
	if err != nil {
		t.Fatalf("RevokeAllForUser returned error: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("expected 3 revoked sessions, got %d", revoked)
	}
}

func TestSessionRepository_RevokeAllForUserNoSessions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE hotel\.sessions SET revoked_at = \$1`).
		WithArgs(at, "password_reset", "user-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	revoked, err := repo.RevokeAllForUser(context.Background(), "user-1", "password_reset", at)
	if err != nil {
		t.Fatalf("zero active sessions must not error: %v", err)
	}
	if revoked != 0 {
		t.Fatalf("expected 0 revoked sessions, got %d", revoked)
	}
}

func TestSessionRepository_GetByTokenHashNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM hotel\.sessions WHERE token_hash = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByTokenHash(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
