package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrAccessNotFound = errors.New("user access not found")
	ErrLoginConflict  = errors.New("user with this login already exists")
	ErrEmailConflict  = errors.New("user with this email already exists")
)

// UserRepository defines the interface for user and credential data access.
// Identity (users) and credentials (user_accesses) are separate rows created
// together; soft-deleted users are invisible to all reads.
type UserRepository interface {
	CreateWithAccess(ctx context.Context, user *domain.User, access *domain.UserAccess) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	FindAccessByLogin(ctx context.Context, login string) (*domain.UserAccess, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateWithAccess inserts the identity and its credential in one transaction
func (r *userRepository) CreateWithAccess(ctx context.Context, user *domain.User, access *domain.UserAccess) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userQuery := `
		INSERT INTO users (id, name, email, birthdate, avatar_url, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(
		ctx,
		userQuery,
		user.ID,
		user.Name,
		user.Email,
		user.Birthdate,
		user.AvatarURL,
		user.RegisteredAt,
	)
	if err != nil {
		if uniqueViolation(err, "users_email_live_key") {
			return ErrEmailConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	accessQuery := `
		INSERT INTO user_accesses (id, user_id, login, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(
		ctx,
		accessQuery,
		access.ID,
		access.UserID,
		access.Login,
		access.PasswordHash,
		access.Role,
		access.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "user_accesses_login_key") {
			return ErrLoginConflict
		}
		return fmt.Errorf("failed to create user access: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user creation: %w", err)
	}

	return nil
}

const userColumns = `id, name, email, birthdate, avatar_url, registered_at, updated_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Birthdate,
		&user.AvatarURL,
		&user.RegisteredAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByLogin resolves a login to its live user identity
func (r *userRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.birthdate, u.avatar_url, u.registered_at, u.updated_at, u.deleted_at
		FROM user_accesses ua
		JOIN users u ON u.id = ua.user_id
		WHERE ua.login = $1 AND u.deleted_at IS NULL
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, login))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by login: %w", err)
	}

	return user, nil
}

// FindAccessByLogin retrieves the credential row for a login whose user is live
func (r *userRepository) FindAccessByLogin(ctx context.Context, login string) (*domain.UserAccess, error) {
	query := `
		SELECT ua.id, ua.user_id, ua.login, ua.password_hash, ua.role, ua.created_at
		FROM user_accesses ua
		JOIN users u ON u.id = ua.user_id
		WHERE ua.login = $1 AND u.deleted_at IS NULL
	`

	access := &domain.UserAccess{}
	err := r.db.QueryRowContext(ctx, query, login).Scan(
		&access.ID,
		&access.UserID,
		&access.Login,
		&access.PasswordHash,
		&access.Role,
		&access.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccessNotFound
		}
		return nil, fmt.Errorf("failed to find user access: %w", err)
	}

	return access, nil
}

// UpdateProfile overwrites the mutable identity fields
func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, birthdate = $4, avatar_url = $5
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.Birthdate,
		user.AvatarURL,
	)

	if err != nil {
		if uniqueViolation(err, "users_email_live_key") {
			return ErrEmailConflict
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SoftDelete anonymizes the personal fields and stamps deleted_at.
// The row is kept so orders and cart history stay consistent.
func (r *userRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET name = 'Deleted User', email = concat('deleted+', id, '@example.com'),
		    birthdate = NULL, avatar_url = '', deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
