package smtpsettings

import (
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/config"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *Handler
	service *Service
}

func NewModule(pool *pgxpool.Pool, cfg config.SMTPCryptoConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), cfg.GetSMTPEncryptionKey(), log.WithComponent("smtpsettings"))
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string { return "smtpsettings" }

// Service is the email.SettingsSource for the runtime transport.
func (m *Module) Service() *Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/smtp-settings", m.handler.Get)
	ctx.Admin.PUT("/smtp-settings", m.handler.Update)
	ctx.Admin.POST("/smtp-settings/test", m.handler.Test)
}

var _ apphttp.Module = (*Module)(nil)
