package tracking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wrapcrm_backend/platform/logger"
)

const deliveredPage = `<!DOCTYPE html>
<html><head><title>USPS Tracking</title><style>.status{}</style></head>
<body>
  <div class="tracking-wrapper">
    <p class="tb-status">
      Delivered, In/At Mailbox
    </p>
    <div class="delivery-date">Delivered 03/08/2025</div>
  </div>
  <table>
    <tr><th>Date</th><th>Status</th><th>Location</th></tr>
    <tr><td>03/08/2025 11:42 am</td><td>Delivered, In/At Mailbox</td><td>PORTLAND, OR 97201</td></tr>
    <tr><td>03/08/2025 7:10 am</td><td>Out for Delivery</td><td>PORTLAND, OR 97201</td></tr>
    <tr><td>03/06/2025</td><td>In Transit to Next Facility</td></tr>
    <tr><td>n/a</td><td>ignored</td></tr>
  </table>
</body></html>`

func TestParseTrackingPage(t *testing.T) {
	res, err := ParseTrackingPage(strings.NewReader(deliveredPage), "EZ1")
	if err != nil {
		t.Fatalf("ParseTrackingPage: %v", err)
	}
	if res.Status != StatusDelivered {
		t.Errorf("Status = %q, want delivered", res.Status)
	}
	if res.Description != "Delivered, In/At Mailbox" {
		t.Errorf("Description = %q", res.Description)
	}
	if res.DeliveryDate != "03/08/2025" {
		t.Errorf("DeliveryDate = %q", res.DeliveryDate)
	}
	if len(res.Events) != 3 {
		t.Fatalf("events = %+v, want 3", res.Events)
	}
	first := res.Events[0]
	if first.Date != "03/08/2025" || first.Time != "11:42 am" || first.Location != "PORTLAND, OR 97201" {
		t.Errorf("first event = %+v", first)
	}
	if res.Events[2].Time != "12:00 PM" {
		t.Errorf("event without time = %+v", res.Events[2])
	}
}

func TestParseTrackingPageGenericStatusClass(t *testing.T) {
	page := `<html><body><span class="banner-status-text">Arrived at USPS Regional Facility</span></body></html>`
	res, err := ParseTrackingPage(strings.NewReader(page), "EZ2")
	if err != nil {
		t.Fatalf("ParseTrackingPage: %v", err)
	}
	if res.Status != StatusInTransit {
		t.Errorf("Status = %q, want in-transit", res.Status)
	}
}

func TestParseTrackingPageWithoutStatus(t *testing.T) {
	_, err := ParseTrackingPage(strings.NewReader(`<html><body><p>Maintenance</p></body></html>`), "EZ3")
	if !errors.Is(err, ErrNoStatus) {
		t.Fatalf("err = %v, want ErrNoStatus", err)
	}
}

func TestUSPSScraperFallsBackToMock(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("tLabels")
		if gotQuery == "BROKEN" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(deliveredPage))
	}))
	defer srv.Close()

	scraper := NewUSPSScraper(srv.URL+"/go/TrackConfirmAction", logger.Nop())
	carrier := NewFallbackCarrier(scraper, NewMockCarrier(), logger.Nop())

	res, err := carrier.Track(context.Background(), "EZ1")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if gotQuery != "EZ1" || res.Source != SourceUSPS || res.Status != StatusDelivered {
		t.Errorf("query %q result %+v", gotQuery, res)
	}
	if res.CheckedAt.IsZero() {
		t.Errorf("CheckedAt not set")
	}

	res, err = carrier.Track(context.Background(), "BROKEN")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if res.Source != SourceMock {
		t.Errorf("Source = %q, want mock after upstream failure", res.Source)
	}
}
