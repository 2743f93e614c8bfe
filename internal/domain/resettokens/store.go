package resettokens

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, t *ResetToken) error
	FindUsable(ctx context.Context, userID int64, tokenHash string) (*ResetToken, error)
	MarkUsed(ctx context.Context, id int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, t *ResetToken) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query, t.UserID, t.TokenHash, t.ExpiresAt, t.IP, t.UserAgent).
		Scan(&t.ID, &t.CreatedAt)
}

// FindUsable returns the newest matching token for the user that is both
// unused and unexpired. Callers cannot tell which of those conditions
// failed; the lookup simply misses.
func (r *Repository) FindUsable(ctx context.Context, userID int64, tokenHash string) (*ResetToken, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	t := &ResetToken{}
	query := `
		SELECT id, user_id, token_hash, expires_at, used_at, COALESCE(ip, ''), COALESCE(user_agent, ''), created_at
		FROM password_reset_tokens
		WHERE user_id = $1 AND token_hash = $2 AND used_at IS NULL AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, userID, tokenHash, time.Now()).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.IP, &t.UserAgent, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// MarkUsed stamps used_at; guarded so the transition only happens once.
func (r *Repository) MarkUsed(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE password_reset_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
