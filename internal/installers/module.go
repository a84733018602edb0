package installers

import (
	"wrapcrm_backend/internal/auth"
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/httpkit"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *Handler
	service *Service
}

// NewModule expects val to already carry the calendardate tag.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), log.WithComponent("installers"))
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string { return "installers" }

func (m *Module) Service() *Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/installers", m.handler.List)
	ctx.Protected.GET("/installers/:id", m.handler.GetByID)

	adminOnly := httpkit.RequireRole(auth.RoleAdmin)
	ctx.Protected.POST("/installers", adminOnly, m.handler.Create)
	ctx.Protected.PUT("/installers/:id", adminOnly, m.handler.Update)
	ctx.Protected.DELETE("/installers/:id", adminOnly, m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)
