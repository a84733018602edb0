package metrics

import (
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/internal/leads/service"
	"wrapcrm_backend/internal/tracking"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Module struct {
	metrics *Metrics
}

func NewModule(m *Metrics) *Module {
	return &Module{metrics: m}
}

func (m *Module) Name() string { return "metrics" }

// RegisterRoutes serves /metrics on the root engine, outside /api/v1.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	h := promhttp.HandlerFor(m.metrics.Registry(), promhttp.HandlerOpts{})
	ctx.Engine.GET("/metrics", gin.WrapH(h))
}

var _ apphttp.Module = (*Module)(nil)

var (
	_ service.FollowupObserver = (*Metrics)(nil)
	_ tracking.SyncObserver    = (*Metrics)(nil)
)
