package tracking

import (
	"net/http"
	"strings"
	"time"

	"wrapcrm_backend/internal/auth"
	"wrapcrm_backend/internal/booklets"
	"wrapcrm_backend/internal/events"
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/platform/config"
	"wrapcrm_backend/platform/httpkit"
	"wrapcrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const modeMock = "mock"

// NewCarrier builds the carrier chain for cfg: the USPS scraper with the mock
// behind it, or the mock alone, cached in Redis when rdb is set.
func NewCarrier(cfg config.TrackingConfig, rdb redis.Cmdable, log *logger.Logger) Carrier {
	var c Carrier = NewMockCarrier()
	if cfg.GetTrackingMode() != modeMock {
		c = NewFallbackCarrier(NewUSPSScraper(cfg.GetUSPSTrackingURL(), log), c, log)
	}
	if rdb != nil && cfg.GetTrackingCacheTTL() > 0 {
		c = NewCachedCarrier(c, NewCache(rdb, cfg.GetTrackingCacheTTL()), log)
	}
	return c
}

// URLFunc returns the public tracking page builder for cfg.
func URLFunc(cfg config.TrackingConfig) booklets.TrackingURLFunc {
	base := cfg.GetUSPSTrackingURL()
	return func(n string) string { return PublicURL(base, n) }
}

type Module struct {
	syncer *Syncer
}

func NewModule(repo booklets.Repository, cfg config.TrackingConfig, rdb redis.Cmdable, bus events.Bus, loc *time.Location, log *logger.Logger) *Module {
	log = log.WithComponent("tracking")
	carrier := NewCarrier(cfg, rdb, log)
	return &Module{syncer: NewSyncer(repo, carrier, bus, cfg.GetTrackingConcurrency(), loc, log)}
}

func (m *Module) Name() string { return "tracking" }

func (m *Module) Syncer() *Syncer { return m.syncer }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/tracking/:trackingNumber", m.lookup)
	ctx.Protected.POST("/tracking/sync", httpkit.RequireRole(auth.RoleAdmin), m.syncAll)
}

func (m *Module) lookup(c *gin.Context) {
	number := strings.ToUpper(strings.TrimSpace(c.Param("trackingNumber")))
	if number == "" || len(number) > 60 {
		httpkit.Error(c, http.StatusBadRequest, "invalid tracking number", nil)
		return
	}
	res, err := m.syncer.Lookup(c.Request.Context(), number)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

func (m *Module) syncAll(c *gin.Context) {
	sum, err := m.syncer.SyncAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, sum)
}

var _ apphttp.Module = (*Module)(nil)
