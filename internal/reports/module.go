package reports

import (
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"
)

type Module struct {
	handler *Handler
}

func NewModule(leads LeadLister, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(leads, log.WithComponent("reports"))
	return &Module{handler: NewHandler(svc, val)}
}

func (m *Module) Name() string { return "reports" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/reports/analytics", m.handler.Analytics)
	ctx.Protected.GET("/reports/years", m.handler.Years)
}

var _ apphttp.Module = (*Module)(nil)
