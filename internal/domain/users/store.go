package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/internal/database"
	"backoffice/internal/domain/rbac"
	"backoffice/internal/params"
)

type Store interface {
	Create(ctx context.Context, user *User, roleIDs []int64) error
	List(ctx context.Context, search string, p *params.Pagination) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User, roleIDs []int64) error
	SoftDeleteMany(ctx context.Context, ids []int64) error
	RestoreMany(ctx context.Context, ids []int64) error
	HardDeleteMany(ctx context.Context, ids []int64) error
	ValidateCredentials(ctx context.Context, email, plain string) (*User, error)
	SetPassword(ctx context.Context, userID int64, plain string) error
	SetProfilePicture(ctx context.Context, userID int64, url string) error
}

type Repository struct {
	db    *pgxpool.Pool
	roles rbac.RolesStore
}

func NewRepository(db *pgxpool.Pool, roles rbac.RolesStore) Store {
	return &Repository{db: db, roles: roles}
}

func mapUserConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "document"):
			return ErrDuplicateDocNumber
		}
	}
	return err
}

func (r *Repository) Create(ctx context.Context, user *User, roleIDs []int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO users (name, email, phone, document_type_id, document_number, password, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, true)
			RETURNING id, is_active, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			user.Name, user.Email, user.Phone, user.DocumentTypeID, user.DocumentNumber, user.Password.hash,
		).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return mapUserConstraint(err)
		}
		return r.replaceRoles(ctx, tx, user.ID, roleIDs)
	})
}

func (r *Repository) replaceRoles(ctx context.Context, tx pgx.Tx, userID int64, roleIDs []int64) error {
	if roleIDs == nil {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, rid := range roleIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, userID, rid)
		if err != nil {
			return err
		}
	}
	return nil
}

// List returns users newest first, soft-deleted rows included, with an
// optional free-text search over email, name and document number.
func (r *Repository) List(ctx context.Context, search string, p *params.Pagination) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, name, email, phone, document_type_id, document_number,
		       profile_picture_url, is_active, created_at, updated_at, deleted_at,
		       COUNT(*) OVER() AS total
		FROM users
		WHERE ($1 = '' OR email ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%' OR document_number ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, search, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []User
	total := 0
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.Phone, &u.DocumentTypeID, &u.DocumentNumber,
			&u.ProfilePictureURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
			&total,
		); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.ComputeMeta(total)
	return list, nil
}

// GetByID loads a user regardless of soft-deletion, with roles and their
// permissions attached.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	u := &User{}
	var hash []byte
	query := `
		SELECT id, name, email, phone, document_type_id, document_number, password,
		       profile_picture_url, is_active, created_at, updated_at, deleted_at
		FROM users WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.DocumentTypeID, &u.DocumentNumber, &hash,
		&u.ProfilePictureURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Password.SetHash(hash)

	roles, err := r.roles.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return u, nil
}

// GetByEmail only sees active, non-deleted users; login and password reset
// go through here.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	u := &User{}
	var hash []byte
	query := `
		SELECT id, name, email, phone, document_type_id, document_number, password,
		       profile_picture_url, is_active, created_at, updated_at, deleted_at
		FROM users
		WHERE email = $1 AND is_active = true AND deleted_at IS NULL
	`
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.DocumentTypeID, &u.DocumentNumber, &hash,
		&u.ProfilePictureURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Password.SetHash(hash)

	roles, err := r.roles.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return u, nil
}

func (r *Repository) Update(ctx context.Context, user *User, roleIDs []int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE users
			SET name = $1, email = $2, phone = $3, document_type_id = $4, document_number = $5,
			    password = $6, is_active = $7, updated_at = NOW()
			WHERE id = $8
		`
		result, err := tx.Exec(ctx, query,
			user.Name, user.Email, user.Phone, user.DocumentTypeID, user.DocumentNumber,
			user.Password.hash, user.IsActive, user.ID,
		)
		if err != nil {
			return mapUserConstraint(err)
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		return r.replaceRoles(ctx, tx, user.ID, roleIDs)
	})
}

// SoftDeleteMany stamps deleted_at and deactivates in one statement; the
// rows stay queryable for the admin list and for restore.
func (r *Repository) SoftDeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE users SET is_active = false, deleted_at = NOW(), updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL`
	_, err := r.db.Exec(ctx, query, ids)
	return err
}

func (r *Repository) RestoreMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE users SET is_active = true, deleted_at = NULL, updated_at = NOW() WHERE id = ANY($1)`
	_, err := r.db.Exec(ctx, query, ids)
	return err
}

func (r *Repository) HardDeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = ANY($1)`, ids); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_permission_overrides WHERE user_id = ANY($1)`, ids); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
		return err
	})
}

// ValidateCredentials returns the user only when the account is active and
// the password matches. Every failure collapses to ErrNotFound so callers
// cannot distinguish a wrong password from a missing account.
func (r *Repository) ValidateCredentials(ctx context.Context, email, plain string) (*User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrNotFound
	}
	if err := user.Password.Compare(plain); err != nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SetPassword re-hashes and persists. The old password is not checked here;
// call sites gate this behind a verified reset token or an authenticated
// change-password flow.
func (r *Repository) SetPassword(ctx context.Context, userID int64, plain string) error {
	var p password
	if err := p.Set(plain); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, p.hash, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetProfilePicture(ctx context.Context, userID int64, url string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE users SET profile_picture_url = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, url, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
