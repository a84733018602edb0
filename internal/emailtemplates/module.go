package emailtemplates

import (
	"wrapcrm_backend/internal/booklets"
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
	svc := NewService(NewRepository(pool), log.WithComponent("emailtemplates"))
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string { return "emailtemplates" }

func (m *Module) Service() *Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Admin.Group("/email-templates")
	g.GET("", m.handler.List)
	g.GET("/variables", m.handler.Variables)
	g.POST("", m.handler.Create)
	g.GET("/:id", m.handler.GetByID)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
	g.POST("/:id/preview", m.handler.Preview)
}

var _ apphttp.Module = (*Module)(nil)

var _ booklets.TemplateRenderer = (*Service)(nil)
