package transport

import (
	"time"

	"github.com/google/uuid"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// RefreshRequest is accepted when the refresh cookie is unavailable.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"`
	User         UserResponse `json:"user"`
}

type CreateUserRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,strongpassword"`
	Role     string  `json:"role" validate:"required,oneof=admin sales_rep"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=200"`
}

// UpdateUserRequest is a partial update; an empty password keeps the current one.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Password *string `json:"password,omitempty" validate:"omitempty,strongpassword"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin sales_rep"`
	Email    *string `json:"email,omitempty" validate:"omitempty,max=200"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Email     *string   `json:"email,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
