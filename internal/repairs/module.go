package repairs

import (
	"time"

	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *Handler
}

// NewModule expects val to already carry the calendardate tag.
func NewModule(pool *pgxpool.Pool, loc *time.Location, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), loc, log.WithComponent("repairs"))
	return &Module{handler: NewHandler(svc, val)}
}

func (m *Module) Name() string { return "repairs" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/repair-requests")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/:id", m.handler.GetByID)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)
