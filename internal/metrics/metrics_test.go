package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "wrapcrm_backend/internal/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFollowupsOverwrites(t *testing.T) {
	m := New()
	m.ObserveFollowups(map[string]int{"overdue": 4, "due_today": 2})
	m.ObserveFollowups(map[string]int{"overdue": 1, "due_today": 2})

	if got := testutil.ToFloat64(m.Followups.WithLabelValues("overdue")); got != 1 {
		t.Errorf("overdue = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Followups.WithLabelValues("due_today")); got != 2 {
		t.Errorf("due_today = %v, want 2", got)
	}
}

func TestObserveTrackingSyncCounts(t *testing.T) {
	m := New()
	m.ObserveTrackingSync("updated")
	m.ObserveTrackingSync("updated")
	m.ObserveTrackingSync("failed")

	if got := testutil.ToFloat64(m.TrackingSync.WithLabelValues("updated")); got != 2 {
		t.Errorf("updated = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TrackingSync.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	m := New()
	m.ObserveFollowups(map[string]int{"overdue": 3})
	NewModule(m).RegisterRoutes(&apphttp.RouterContext{Engine: engine})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `wrapcrm_followups{bucket="overdue"} 3`) {
		t.Errorf("metrics output missing follow-up gauge:\n%s", body)
	}
}
