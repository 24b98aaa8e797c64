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

func TestTokenRepository_ConsumeClaimsLiveToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE hotel\.reset_tokens SET used_at = \$1 WHERE id = \$2 AND used_at IS NULL AND revoked_at IS NULL AND expires_at > \$3`).
		WithArgs(at, "token-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	claimed, err := repo.Consume(context.Background(), "token-1", at)
	if err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if !claimed {
		t.Fatal("expected token to be claimed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_ConsumeLosesRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Already used, revoked, or expired: the conditional update matches nothing.
	mock.ExpectExec(`UPDATE hotel\.reset_tokens SET used_at = \$1`).
		WithArgs(at, "token-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	claimed, err := repo.Consume(context.Background(), "token-1", at)
	if err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if claimed {
		t.Fatal("expected claim to fail when no row matches")
	}
}

func TestTokenRepository_GetByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	created := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	expires := created.Add(time.Hour)

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "token_hash", "email", "ip", "user_agent",
		"created_at", "expires_at", "used_at", "revoked_at",
	}).AddRow("token-1", "user-1", "hash-abc", "guest@example.com", nil, nil, created, expires, nil, nil)

	mock.ExpectQuery(`SELECT id, user_id, token_hash, email, ip, user_agent, created_at, expires_at, used_at, revoked_at FROM hotel\.reset_tokens WHERE token_hash = \$1 LIMIT 1`).
		WithArgs("hash-abc").
		WillReturnRows(rows)

	token, err := repo.GetByHash(context.Background(), "hash-abc")
	if err != nil {
		t.Fatalf("GetByHash returned error: %v", err)
	}
	if token.ID != "token-1" || token.UserID != "user-1" {
		t.Fatalf("unexpected token: %+v", token)
	}
	if token.UsedAt != nil || token.RevokedAt != nil {
		t.Fatalf("expected live token, got %+v", token)
	}
	if !token.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expiry %v, got %v", expires, token.ExpiresAt)
	}
}

func TestTokenRepository_GetByHashNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM hotel\.reset_tokens WHERE token_hash = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByHash(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenRepository_RevokeAllForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE hotel\.reset_tokens SET revoked_at = \$1 WHERE user_id = \$2 AND used_at IS NULL AND revoked_at IS NULL`).
		WithArgs(at, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	revoked, err := repo.RevokeAllForUser(context.Background(), "user-1", at)
	if err != nil {
		t.Fatalf("RevokeAllForUser returned error: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("expected 2 revoked tokens, got %d", revoked)
	}
}

func TestTokenRepository_PurgeExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	before := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM hotel\.reset_tokens WHERE \(expires_at <= \$1 OR used_at IS NOT NULL OR revoked_at IS NOT NULL\)`).
		WithArgs(before).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	purged, err := repo.PurgeExpired(context.Background(), before)
	if err != nil {
		t.Fatalf("PurgeExpired returned error: %v", err)
	}
	if purged != 5 {
		t.Fatalf("expected 5 purged tokens, got %d", purged)
	}
}

func TestTokenRepository_Stats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows := pgxmock.NewRows([]string{"issued", "used", "expired", "active"}).AddRow(10, 6, 3, 1)
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\) FILTER`).
		WithArgs(from, to).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Issued != 10 || stats.Used != 6 || stats.Expired != 3 || stats.Active != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.WindowStart.Equal(from) || !stats.WindowEnd.Equal(to) {
		t.Fatalf("unexpected window: %+v", stats)
	}
}
