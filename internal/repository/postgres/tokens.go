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

// TokenRepository implements port.TokenRepository using PostgreSQL.
type TokenRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a new token repository.
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	repo := &TokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *TokenRepository) WithTx(tx pgx.Tx) *TokenRepository {
	if tx == nil {
		return r
	}
	return &TokenRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a password reset token row.
func (r *TokenRepository) Create(ctx context.Context, token domain.ResetToken) error {
	stmt, args, err := r.builder.Insert("hotel.reset_tokens").
		Columns(
			"id",
			"user_id",
			"token_hash",
			"email",
			"ip",
			"user_agent",
			"created_at",
			"expires_at",
			"used_at",
			"revoked_at",
		).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.Email,
			token.IP,
			token.UserAgent,
			token.CreatedAt,
			token.ExpiresAt,
			token.UsedAt,
			token.RevokedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reset token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}

	return nil
}

// GetByHash fetches a password reset token by its hash.
func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*domain.ResetToken, error) {
	stmt, args, err := r.builder.Select(
		"id",
		"user_id",
		"token_hash",
		"email",
		"ip",
		"user_agent",
		"created_at",
		"expires_at",
		"used_at",
		"revoked_at",
	).
		From("hotel.reset_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reset token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		token     domain.ResetToken
		ip        sql.NullString
		userAgent sql.NullString
		usedAt    sql.NullTime
		revokedAt sql.NullTime
	)

	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Email,
		&ip,
		&userAgent,
		&token.CreatedAt,
		&token.ExpiresAt,
		&usedAt,
		&revokedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset token: %w", err)
	}

	if ip.Valid {
		value := ip.String
		token.IP = &value
	}
	if userAgent.Valid {
		value := userAgent.String
		token.UserAgent = &value
	}
	if usedAt.Valid {
		t := usedAt.Time
		token.UsedAt = &t
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		token.RevokedAt = &t
	}

	return &token, nil
}

// Consume marks a reset token as used with a single conditional update so a
// token can be claimed by at most one caller under concurrent completion
// attempts.
func (r *TokenRepository) Consume(ctx context.Context, id string, at time.Time) (bool, error) {
	stmt, args, err := r.builder.Update("hotel.reset_tokens").
		Set("used_at", at).
		Where(squirrel.Eq{"id": id}).
		Where("used_at IS NULL").
		Where("revoked_at IS NULL").
		Where(squirrel.Gt{"expires_at": at}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build consume reset token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("consume reset token: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// RevokeAllForUser supersedes every live token for the user, enforcing the
// at-most-one-valid-token invariant when a new token is issued.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update("hotel.reset_tokens").
		Set("revoked_at", at).
		Where(squirrel.Eq{"user_id": userID}).
		Where("used_at IS NULL").
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke reset tokens sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke reset tokens: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// PurgeExpired deletes tokens that are expired or already used. Live tokens
// are untouched, so the purge is safe to run alongside request traffic.
func (r *TokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	stmt, args, err := r.builder.Delete("hotel.reset_tokens").
		Where(squirrel.Or{
			squirrel.LtOrEq{"expires_at": before},
			squirrel.Expr("used_at IS NOT NULL"),
			squirrel.Expr("revoked_at IS NOT NULL"),
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge reset tokens sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// Stats aggregates token counts for the reporting window.
func (r *TokenRepository) Stats(ctx context.Context, from, to time.Time) (*domain.ResetTokenStats, error) {
	stmt := `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2),
			COUNT(*) FILTER (WHERE used_at IS NOT NULL AND used_at >= $1 AND used_at < $2),
			COUNT(*) FILTER (WHERE used_at IS NULL AND revoked_at IS NULL AND expires_at <= $2 AND created_at >= $1),
			COUNT(*) FILTER (WHERE used_at IS NULL AND revoked_at IS NULL AND expires_at > $2)
		  FROM hotel.reset_tokens
	`

	stats := domain.ResetTokenStats{WindowStart: from, WindowEnd: to}
	row := r.exec.QueryRow(ctx, stmt, from, to)
	if err := row.Scan(&stats.Issued, &stats.Used, &stats.Expired, &stats.Active); err != nil {
		return nil, fmt.Errorf("scan reset token stats: %w", err)
	}

	return &stats, nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
