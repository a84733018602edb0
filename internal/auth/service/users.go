package service

import (
	"context"
	"strings"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/auth/password"
	"wrapcrm_backend/internal/auth/repository"
	"wrapcrm_backend/internal/auth/transport"
	"wrapcrm_backend/platform/apperr"

	"github.com/google/uuid"
)

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]transport.UserResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out, nil
}

// CreateUser adds an account.
func (s *Service) CreateUser(ctx context.Context, actor uuid.UUID, req transport.CreateUserRequest) (transport.UserResponse, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.UserResponse{}, err
	}

	username := NormalizeUsername(req.Username)
	user, err := s.repo.CreateUser(ctx, repository.CreateUserParams{
		Username:     username,
		PasswordHash: hash,
		Role:         req.Role,
		Email:        trimmedOrNil(req.Email),
		Activity: activity.Entry{
			UserID:     &actor,
			Action:     activity.ActionCreateUser,
			EntityType: activity.EntityUser,
			Details:    "Created user: " + username,
		},
	})
	if err != nil {
		return transport.UserResponse{}, err
	}

	s.log.Info("user created", "id", user.ID, "role", user.Role)
	return toUserResponse(user), nil
}

// UpdateUser changes an account. The last active admin cannot be demoted or
// deactivated; deactivating a user revokes its refresh tokens.
func (s *Service) UpdateUser(ctx context.Context, actor uuid.UUID, id uuid.UUID, req transport.UpdateUserRequest) (transport.UserResponse, error) {
	current, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return transport.UserResponse{}, err
	}

	params := repository.UpdateUserParams{
		ID:       id,
		Username: current.Username,
		Role:     current.Role,
		Email:    current.Email,
		IsActive: current.IsActive,
	}
	changed := make([]string, 0)

	if req.Username != nil && NormalizeUsername(*req.Username) != current.Username {
		params.Username = NormalizeUsername(*req.Username)
		changed = append(changed, "username")
	}
	if req.Role != nil && *req.Role != current.Role {
		params.Role = *req.Role
		changed = append(changed, "role")
	}
	if req.Email != nil {
		params.Email = trimmedOrNil(req.Email)
		changed = append(changed, "email")
	}
	if req.IsActive != nil && *req.IsActive != current.IsActive {
		params.IsActive = *req.IsActive
		changed = append(changed, "is_active")
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := password.Hash(*req.Password)
		if err != nil {
			return transport.UserResponse{}, err
		}
		params.PasswordHash = &hash
		changed = append(changed, "password")
	}

	losesAdmin := current.Role == repository.RoleAdmin && current.IsActive &&
		(params.Role != repository.RoleAdmin || !params.IsActive)
	if losesAdmin {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return transport.UserResponse{}, err
		}
	}

	params.Activity = activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionUpdateUser,
		EntityType: activity.EntityUser,
		Details:    activity.UpdateDetails("user", params.Username, changed),
	}
	user, err := s.repo.UpdateUser(ctx, params)
	if err != nil {
		return transport.UserResponse{}, err
	}

	if !user.IsActive || params.PasswordHash != nil {
		if err := s.repo.RevokeAllRefreshTokens(ctx, user.ID); err != nil {
			s.log.Warn("failed to revoke refresh tokens", "userId", user.ID, "error", err)
		}
	}

	s.log.Info("user updated", "id", user.ID, "changes", changed)
	return toUserResponse(user), nil
}

// DeleteUser removes an account. Admins cannot delete themselves or the last
// active admin.
func (s *Service) DeleteUser(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	if actor == id {
		return apperr.Forbidden("cannot delete your own account")
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == repository.RoleAdmin && user.IsActive {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}

	err = s.repo.DeleteUser(ctx, id, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionDeleteUser,
		EntityType: activity.EntityUser,
		Details:    "Deleted user: " + user.Username,
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", "id", id)
	return nil
}

func (s *Service) ensureAnotherAdmin(ctx context.Context) error {
	n, err := s.repo.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return apperr.Conflict("at least one active admin is required")
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
