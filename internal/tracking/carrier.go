package tracking

import (
	"context"
	"net/url"
	"time"
)

// Result sources.
const (
	SourceUSPS = "usps"
	SourceMock = "mock"
)

// Event is one line of a carrier's tracking history.
type Event struct {
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// Result is a carrier's answer for one tracking number.
type Result struct {
	TrackingNumber string        `json:"trackingNumber"`
	Status         CarrierStatus `json:"status"`
	Description    string        `json:"statusDescription"`
	DeliveryDate   string        `json:"deliveryDate,omitempty"`
	Events         []Event       `json:"trackingEvents"`
	Source         string        `json:"source"`
	CheckedAt      time.Time     `json:"lastUpdated"`
}

// Carrier looks up shipments.
type Carrier interface {
	Track(ctx context.Context, trackingNumber string) (Result, error)
}

// PublicURL builds the customer-facing tracking page for a number.
func PublicURL(base, trackingNumber string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?tLabels=" + url.QueryEscape(trackingNumber)
	}
	q := u.Query()
	q.Set("tLabels", trackingNumber)
	u.RawQuery = q.Encode()
	return u.String()
}
