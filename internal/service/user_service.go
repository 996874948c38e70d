package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid login or password")
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name      string     `json:"name" validate:"required,min=2,max=100"`
	Email     string     `json:"email" validate:"required,email"`
	Login     string     `json:"login" validate:"required,min=3,max=50,alphanum"`
	Password  string     `json:"password" validate:"required,min=8,max=72"`
	Birthdate *time.Time `json:"birthdate,omitempty"`
}

// UpdateProfileInput updates only the fields that are non-nil. Absent fields
// are left untouched, so a partial update cannot blank a field by accident.
type UpdateProfileInput struct {
	Name      *string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	Birthdate *time.Time `json:"birthdate,omitempty"`
}

// UserService handles registration, sign in/out and profile management.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	SignIn(ctx context.Context, login, password string) (token string, err error)
	SignOut(ctx context.Context, token string) error
	GetProfile(ctx context.Context, login string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	userRepo repository.UserRepository
	sessions session.Store
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, sessions session.Store) UserService {
	return &userService{userRepo: userRepo, sessions: sessions}
}

// Register creates the identity and its credential. New accounts start with
// the Guest role; roles are only ever raised out of band.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		Birthdate:    input.Birthdate,
		RegisteredAt: now,
	}
	access := &domain.UserAccess{
		ID:           uuid.New(),
		UserID:       user.ID,
		Login:        input.Login,
		PasswordHash: string(hash),
		Role:         domain.RoleGuest,
		CreatedAt:    now,
	}

	if err := s.userRepo.CreateWithAccess(ctx, user, access); err != nil {
		return nil, err
	}

	return user, nil
}

// SignIn verifies the credential and issues an opaque session token. Unknown
// logins and wrong passwords are indistinguishable to the caller.
func (s *userService) SignIn(ctx context.Context, login, password string) (string, error) {
	access, err := s.userRepo.FindAccessByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrAccessNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(access.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, session.Record{
		UserID: access.UserID,
		Login:  access.Login,
		Role:   access.Role,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return token, nil
}

// SignOut revokes the presented token. Revoking an unknown token is a no-op.
func (s *userService) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *userService) GetProfile(ctx context.Context, login string) (*domain.User, error) {
	return s.userRepo.FindByLogin(ctx, login)
}

// UpdateProfile applies the non-nil fields of input to the user's profile.
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Birthdate != nil {
		user.Birthdate = input.Birthdate
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteAccount soft-deletes the user and revokes every live session, so the
// account disappears immediately on all devices.
func (s *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		return err
	}

	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return nil
}
