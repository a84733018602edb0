package tracking

import (
	"context"
	"time"
)

// MockCarrier answers with a status derived from a hash of the tracking
// number, so a given number always reports the same progress.
type MockCarrier struct {
	now func() time.Time
}

func NewMockCarrier() *MockCarrier {
	return &MockCarrier{now: time.Now}
}

func (m *MockCarrier) Track(_ context.Context, trackingNumber string) (Result, error) {
	status := mockStatus(trackingNumber)
	now := m.now()
	desc := Describe(status)

	res := Result{
		TrackingNumber: trackingNumber,
		Status:         status,
		Description:    desc,
		Events: []Event{{
			Date:        now.Format("2006-01-02"),
			Time:        now.Format("15:04:05"),
			Description: desc,
			Location:    "MIAMI, FL 33101",
		}},
		Source:    SourceMock,
		CheckedAt: now,
	}
	if status == StatusDelivered {
		res.DeliveryDate = now.Format("2006-01-02")
	}
	return res, nil
}

// mockStatus maps the 32-bit string hash h = h*31 + c onto 0-6 simulated
// days in transit.
func mockStatus(trackingNumber string) CarrierStatus {
	var h int32
	for _, r := range trackingNumber {
		h = (h << 5) - h + int32(r)
	}
	days := int64(h)
	if days < 0 {
		days = -days
	}
	days %= 7

	switch {
	case days >= 6:
		return StatusDelivered
	case days >= 5:
		return StatusOutForDelivery
	case days >= 3:
		return StatusInTransit
	case days >= 1:
		return StatusShipped
	}
	return StatusPending
}

var _ Carrier = (*MockCarrier)(nil)
