package repository

import (
	"context"
	"time"

	"wrapcrm_backend/internal/activity"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleAdmin    = "admin"
	RoleSalesRep = "sales_rep"
)

// User is a row of the users table.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         string
	Email        *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserParams holds a new user and the activity entry written with it.
type CreateUserParams struct {
	Username     string
	PasswordHash string
	Role         string
	Email        *string
	Activity     activity.Entry
}

// UpdateUserParams replaces the mutable columns. A nil PasswordHash keeps the
// stored hash.
type UpdateUserParams struct {
	ID           uuid.UUID
	Username     string
	Role         string
	Email        *string
	IsActive     bool
	PasswordHash *string
	Activity     activity.Entry
}

// UserRepository reads and writes users.
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	UpdateUser(ctx context.Context, params UpdateUserParams) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, entry activity.Entry) error
	CountActiveAdmins(ctx context.Context) (int, error)
}

// TokenRepository stores refresh token digests.
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	// ConsumeRefreshToken revokes the token and returns its owner. Expired,
	// revoked and unknown tokens are reported as not found.
	ConsumeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

// AuthRepository is everything the auth service persists.
type AuthRepository interface {
	UserRepository
	TokenRepository
}

var _ AuthRepository = (*Repository)(nil)
