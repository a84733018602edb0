// Package tracking follows carrier shipments for booklet orders and keeps
// their status current.
package tracking

import (
	"strings"

	"wrapcrm_backend/internal/booklets"
)

// CarrierStatus is the carrier-side progress of a shipment.
type CarrierStatus string

const (
	StatusPending        CarrierStatus = "pending"
	StatusShipped        CarrierStatus = "shipped"
	StatusInTransit      CarrierStatus = "in-transit"
	StatusOutForDelivery CarrierStatus = "out-for-delivery"
	StatusDelivered      CarrierStatus = "delivered"
)

var descriptions = map[CarrierStatus]string{
	StatusPending:        "Package information received",
	StatusShipped:        "Package accepted and processed",
	StatusInTransit:      "Package in transit to destination",
	StatusOutForDelivery: "Out for delivery",
	StatusDelivered:      "Package delivered successfully",
}

// Describe returns the stock description of a status.
func Describe(s CarrierStatus) string {
	if d, ok := descriptions[s]; ok {
		return d
	}
	return "Status unknown"
}

// MapDescription reads a carrier's free-text status line. Checks run in
// order, so "Arrived at facility, out for delivery" is out for delivery.
func MapDescription(desc string) CarrierStatus {
	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "delivered"):
		return StatusDelivered
	case strings.Contains(d, "out for delivery"), strings.Contains(d, "on vehicle"):
		return StatusOutForDelivery
	case strings.Contains(d, "transit"):
		return StatusInTransit
	case strings.Contains(d, "shipped"), strings.Contains(d, "accepted"), strings.Contains(d, "processed"):
		return StatusShipped
	case strings.Contains(d, "label created"), strings.Contains(d, "pre-shipment"):
		return StatusPending
	case strings.Contains(d, "pick up"), strings.Contains(d, "pickup"):
		return StatusShipped
	case strings.Contains(d, "arrival"), strings.Contains(d, "arrived"):
		return StatusInTransit
	}
	return StatusPending
}

// BookletStatus collapses a carrier status onto the order statuses.
func BookletStatus(s CarrierStatus) string {
	switch s {
	case StatusDelivered:
		return booklets.StatusDelivered
	case StatusShipped, StatusInTransit, StatusOutForDelivery:
		return booklets.StatusShipped
	}
	return booklets.StatusPending
}

var orderRank = map[string]int{
	booklets.StatusPending:   0,
	booklets.StatusShipped:   1,
	booklets.StatusDelivered: 2,
}

// advances reports whether moving an order from cur to next is forward
// progress. Carrier data never moves an order backwards or out of Refunded.
func advances(cur, next string) bool {
	c, okCur := orderRank[cur]
	n, okNext := orderRank[next]
	if !okCur || !okNext {
		return false
	}
	return n > c
}
