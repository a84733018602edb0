package exports

import (
	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/adapters/storage"
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule wires the export endpoints. store may be nil, in which case every
// export answers 503.
func NewModule(leads LeadQuery, store storage.StorageService, bucket string, recorder activity.Recorder, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(leads, store, bucket, recorder, log.WithComponent("exports"))
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "exports"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	adminGroup := ctx.Admin.Group("/exports")
	adminGroup.POST("/leads", m.handler.ExportLeads)
}

var _ apphttp.Module = (*Module)(nil)
