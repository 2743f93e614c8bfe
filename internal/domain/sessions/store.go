package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	CreateShell(ctx context.Context, userID int64, meta Metadata, rotatedFrom *uuid.UUID) (*Session, error)
	AttachToken(ctx context.Context, id uuid.UUID, rawToken string, expiresAt time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	MarkRevoked(ctx context.Context, id uuid.UUID) error
	MarkRotated(ctx context.Context, id uuid.UUID) error
	RevokeChain(ctx context.Context, id uuid.UUID) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// CreateShell inserts an unattached row and returns it with the generated
// id, so the caller can embed that id as the refresh token's jti before the
// token exists. Shell creation and token attachment are two separate writes;
// a crash in between leaves a dead shell that never validates.
func (r *Repository) CreateShell(ctx context.Context, userID int64, meta Metadata, rotatedFrom *uuid.UUID) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	s := &Session{
		UserID:      userID,
		RotatedFrom: rotatedFrom,
		UserAgent:   meta.UserAgent,
		IP:          meta.IP,
	}

	query := `
		INSERT INTO sessions (user_id, token_hash, expires_at, rotated_from, user_agent, ip)
		VALUES ($1, '', to_timestamp(0), $2, $3, $4)
		RETURNING id, expires_at, created_at
	`
	err := r.db.QueryRow(ctx, query, userID, rotatedFrom, meta.UserAgent, meta.IP).
		Scan(&s.ID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AttachToken stores the hash of the signed refresh token plus its expiry
// on the shell, completing the Shell → Attached transition.
func (r *Repository) AttachToken(ctx context.Context, id uuid.UUID, rawToken string, expiresAt time.Time) error {
	hash, err := HashToken(rawToken)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE sessions SET token_hash = $1, expires_at = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, hash, expiresAt, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	s := &Session{}
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked_at, rotated_at, rotated_from,
		       COALESCE(user_agent, ''), COALESCE(ip, ''), created_at
		FROM sessions WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.TokenHash,
		&s.ExpiresAt,
		&s.RevokedAt,
		&s.RotatedAt,
		&s.RotatedFrom,
		&s.UserAgent,
		&s.IP,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// MarkRevoked stamps revoked_at. Idempotent: an already revoked session
// keeps its original timestamp.
func (r *Repository) MarkRevoked(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// MarkRotated stamps rotated_at and clears the stored hash; the lineage
// continues in a new shell. Clearing the hash makes any later
// presentation of the consumed token a guaranteed mismatch, which the
// refresh path treats as reuse.
func (r *Repository) MarkRotated(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE sessions SET rotated_at = NOW(), token_hash = '' WHERE id = $1 AND rotated_at IS NULL`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// RevokeChain revokes every live session in the rotation lineage that
// contains the given id, walking rotated_from links in both directions.
// Not called from the refresh path today; kept as a hardening hook for
// full-chain revocation on reuse detection.
func (r *Repository) RevokeChain(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		WITH RECURSIVE ancestors AS (
			SELECT id, rotated_from FROM sessions WHERE id = $1
			UNION
			SELECT s.id, s.rotated_from FROM sessions s
			JOIN ancestors a ON s.id = a.rotated_from
		), descendants AS (
			SELECT id FROM sessions WHERE id = $1
			UNION
			SELECT s.id FROM sessions s
			JOIN descendants d ON s.rotated_from = d.id
		)
		UPDATE sessions SET revoked_at = NOW()
		WHERE revoked_at IS NULL
		  AND (id IN (SELECT id FROM ancestors) OR id IN (SELECT id FROM descendants))
	`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
