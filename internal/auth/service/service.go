package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/auth/password"
	"wrapcrm_backend/internal/auth/repository"
	"wrapcrm_backend/internal/auth/token"
	"wrapcrm_backend/internal/auth/transport"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/config"
	"wrapcrm_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType = "access"

	msgInvalidCredentials = "invalid credentials"
	msgTokenInvalid       = "invalid or expired refresh token"
)

type Service struct {
	repo     repository.AuthRepository
	cfg      config.AuthServiceConfig
	recorder activity.Recorder
	log      *logger.Logger
	now      func() time.Time
}

func New(repo repository.AuthRepository, cfg config.AuthServiceConfig, recorder activity.Recorder, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, recorder: recorder, log: log, now: time.Now}
}

// NormalizeUsername is the stored form of a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Login verifies credentials and issues an access and refresh token pair.
// Unknown users, wrong passwords and inactive accounts share one error.
func (s *Service) Login(ctx context.Context, username, plainPassword string) (transport.AuthResponse, error) {
	username = NormalizeUsername(username)

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.AuthEvent("login", username, false, "unknown user")
			return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return transport.AuthResponse{}, err
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("login", username, false, "wrong password")
		return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}
	if !user.IsActive {
		s.log.AuthEvent("login", username, false, "inactive account")
		return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	s.log.AuthEvent("login", username, true, "")
	s.recorder.Record(ctx, activity.Entry{
		UserID:     &user.ID,
		Action:     activity.ActionLogin,
		EntityType: activity.EntityUser,
		EntityID:   user.ID.String(),
		Details:    "User logged in: " + user.Username,
	})
	return resp, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (transport.AuthResponse, error) {
	if refreshToken == "" {
		return transport.AuthResponse{}, apperr.Unauthorized(msgTokenInvalid)
	}

	userID, err := s.repo.ConsumeRefreshToken(ctx, token.Digest(refreshToken), s.now())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.AuthResponse{}, apperr.Unauthorized(msgTokenInvalid)
		}
		return transport.AuthResponse{}, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.AuthResponse{}, apperr.Unauthorized(msgTokenInvalid)
		}
		return transport.AuthResponse{}, err
	}
	if !user.IsActive {
		s.log.AuthEvent("refresh", user.Username, false, "inactive account")
		return transport.AuthResponse{}, apperr.Unauthorized(msgTokenInvalid)
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, actor *uuid.UUID, refreshToken string) error {
	if refreshToken != "" {
		if err := s.repo.RevokeRefreshToken(ctx, token.Digest(refreshToken)); err != nil {
			return err
		}
	}
	if actor != nil {
		s.recorder.Record(ctx, activity.Entry{
			UserID:     actor,
			Action:     activity.ActionLogout,
			EntityType: activity.EntityUser,
			EntityID:   actor.String(),
			Details:    "User logged out",
		})
	}
	return nil
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *Service) issueTokens(ctx context.Context, user repository.User) (transport.AuthResponse, error) {
	ttl := s.cfg.GetAccessTokenTTL()
	accessToken, err := s.signJWT(user, ttl)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	refreshToken, err := token.Generate(token.RefreshTokenBytes)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	expiresAt := s.now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, user.ID, token.Digest(refreshToken), expiresAt); err != nil {
		return transport.AuthResponse{}, err
	}

	return transport.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(ttl / time.Second),
		User:         toUserResponse(user),
	}, nil
}

func (s *Service) signJWT(user repository.User, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"type":     accessTokenType,
		"roles":    []string{user.Role},
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func toUserResponse(u repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
