// Package leads provides the leads bounded context: lead records, the
// follow-up dashboard and sold-date inference.
package leads

import (
	"time"

	"wrapcrm_backend/internal/events"
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/internal/leads/domain"
	"wrapcrm_backend/internal/leads/handler"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/leads/service"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule wires the leads module. The validator gains the leadstatus and
// calendardate tags.
func NewModule(pool *pgxpool.Pool, audit service.AuditReader, bus events.Bus, loc *time.Location, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := domain.RegisterValidation(val); err != nil {
		return nil, err
	}
	if err := calendar.RegisterValidation(val); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, audit, bus, loc, log.WithComponent("leads"))
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for other modules and jobs.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for read-only consumers such as reports
// and the installation schedule.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads")
	leads.GET("", m.handler.List)
	leads.POST("", m.handler.Create)
	leads.GET("/:id", m.handler.GetByID)
	leads.PUT("/:id", m.handler.Update)
	leads.DELETE("/:id", m.handler.Delete)
	leads.GET("/:id/sold-date", m.handler.SoldDate)

	ctx.Protected.GET("/followups", m.handler.Followups)
	ctx.Protected.GET("/dashboard/stats", m.handler.DashboardStats)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
