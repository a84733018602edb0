// Package auth provides authentication and user administration.
// This file defines the public API of the auth bounded context.
// Only types and interfaces defined here should be imported by other domains.
package auth

import (
	"context"

	"wrapcrm_backend/internal/auth/repository"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleAdmin    = repository.RoleAdmin
	RoleSalesRep = repository.RoleSalesRep
)

// Contact is the user information other modules need to reach a user.
type Contact struct {
	ID       uuid.UUID
	Username string
	Email    *string
	Role     string
}

// Directory lets other domains look users up without depending on the auth
// repository.
type Directory interface {
	// ActiveContacts returns every active user.
	ActiveContacts(ctx context.Context) ([]Contact, error)
}
