package auth

import (
	"context"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/auth/handler"
	"wrapcrm_backend/internal/auth/repository"
	"wrapcrm_backend/internal/auth/service"
	authvalidator "wrapcrm_backend/internal/auth/validator"
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/config"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, recorder activity.Recorder, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := authvalidator.RegisterValidation(val); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, cfg, recorder, log.WithComponent("auth"))
	h := handler.New(svc, val, cfg.GetRefreshTokenTTL())

	return &Module{handler: h, service: svc}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service.
func (m *Module) Service() *service.Service {
	return m.service
}

// ActiveContacts implements Directory.
func (m *Module) ActiveContacts(ctx context.Context) ([]Contact, error) {
	users, err := m.service.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(users))
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		out = append(out, Contact{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
	}
	return out, nil
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes with stricter rate limiting
	authGroup := ctx.V1.Group("/auth")
	authGroup.POST("/login", ctx.LoginRateLimiter.RateLimit(), m.handler.Login)
	authGroup.POST("/refresh", ctx.LoginRateLimiter.RateLimit(), m.handler.Refresh)

	ctx.Protected.POST("/auth/logout", m.handler.Logout)
	ctx.Protected.GET("/auth/me", m.handler.Me)

	ctx.Admin.GET("/users", m.handler.ListUsers)
	ctx.Admin.POST("/users", m.handler.CreateUser)
	ctx.Admin.PUT("/users/:id", m.handler.UpdateUser)
	ctx.Admin.DELETE("/users/:id", m.handler.DeleteUser)
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ Directory      = (*Module)(nil)
)
