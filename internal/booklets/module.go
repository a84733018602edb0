package booklets

import (
	"time"

	"wrapcrm_backend/internal/events"
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *Handler
	service *Service
	repo    *Repo
}

// NewModule expects val to already carry the calendardate tag.
func NewModule(pool *pgxpool.Pool, bus events.Bus, loc *time.Location, trackingURL TrackingURLFunc, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, bus, loc, trackingURL, log.WithComponent("booklets"))
	return &Module{handler: NewHandler(svc, val), service: svc, repo: repo}
}

func (m *Module) Name() string { return "booklets" }

func (m *Module) Service() *Service { return m.service }

// Repository is shared with the tracking sync job.
func (m *Module) Repository() *Repo { return m.repo }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/sample-booklets")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/stats/dashboard", m.handler.Stats)
	g.GET("/:id", m.handler.GetByID)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
	g.GET("/:id/tracking-qr", m.handler.TrackingQR)
	g.POST("/:id/refresh-tracking", m.handler.RefreshTracking)
}

var _ apphttp.Module = (*Module)(nil)
