package leadorigins

import (
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *Handler
	service *Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), log.WithComponent("leadorigins"))
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string { return "leadorigins" }

func (m *Module) Service() *Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/lead-origins", m.handler.List)

	ctx.Admin.POST("/lead-origins", m.handler.Create)
	ctx.Admin.PUT("/lead-origins/:id", m.handler.Update)
	ctx.Admin.DELETE("/lead-origins/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)
