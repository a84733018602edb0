package activity

import (
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module owns the activity log. Other modules receive its Service as a
// Recorder.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repo
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, log)
	return &Module{handler: NewHandler(svc, val), service: svc, repo: repo}
}

func (m *Module) Name() string { return "activity" }

// Service returns the writer used by other modules.
func (m *Module) Service() *Service { return m.service }

// Repository exposes the reads the leads module needs for sold-date inference.
func (m *Module) Repository() *Repo { return m.repo }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/activity-logs", m.handler.List)
}

var _ apphttp.Module = (*Module)(nil)
