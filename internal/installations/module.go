package installations

import (
	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/email"
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/config"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"
)

type Module struct {
	handler *Handler
	service *Service
}

// NewModule expects val to already carry the calendardate tag.
func NewModule(leads LeadReader, installers InstallerDirectory, sender email.Sender, recorder activity.Recorder, cfg config.EmailConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(leads, installers, sender, recorder, cfg.GetInstallerFallbackEmail(), log.WithComponent("installations"))
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string { return "installations" }

func (m *Module) Service() *Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/installations", m.handler.List)
	ctx.Protected.POST("/installations/email", m.handler.SendEmail)
	ctx.Protected.GET("/completed-projects", m.handler.Completed)
}

var _ apphttp.Module = (*Module)(nil)
