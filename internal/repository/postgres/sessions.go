package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/repository"
)

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	repo := &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

var sessionColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"ip",
	"user_agent",
	"created_at",
	"expires_at",
	"revoked_at",
	"revoke_reason",
}

// GetByTokenHash retrieves a session by its hashed credential.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	stmt, args, err := r.builder.Select(sessionColumns...).
		From("hotel.sessions").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	return scanSession(r.exec.QueryRow(ctx, stmt, args...))
}

// ListByUser returns every session belonging to the user.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	stmt, args, err := r.builder.Select(sessionColumns...).
		From("hotel.sessions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		session, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// RevokeAllForUser terminates every active session for the user in a single
// statement and reports how many rows changed.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, reason string, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update("hotel.sessions").
		Set("revoked_at", at).
		Set("revoke_reason", reason).
		Where(squirrel.Eq{"user_id": userID}).
		Where("revoked_at IS NULL").
		Where(squirrel.Gt{"expires_at": at}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke sessions sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	session, err := scanSessionFrom(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

func scanSessionRow(rows pgx.Rows) (*domain.Session, error) {
	return scanSessionFrom(rows.Scan)
}

func scanSessionFrom(scan func(dest ...any) error) (*domain.Session, error) {
	var (
		session      domain.Session
		ip           sql.NullString
		userAgent    sql.NullString
		revokedAt    sql.NullTime
		revokeReason sql.NullString
	)

	if err := scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&ip,
		&userAgent,
		&session.CreatedAt,
		&session.ExpiresAt,
		&revokedAt,
		&revokeReason,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if ip.Valid {
		value := ip.String
		session.IP = &value
	}
	if userAgent.Valid {
		value := userAgent.String
		session.UserAgent = &value
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		session.RevokedAt = &t
	}
	if revokeReason.Valid {
		value := revokeReason.String
		session.RevokeReason = &value
	}

	return &session, nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
