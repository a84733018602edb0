// Package events defines the CRM's domain events.
// Infrastructure (Bus, Handler) lives in platform/events.
package events

import (
	"wrapcrm_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// LeadStatusChanged is published after a status transition has been committed.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	LeadName  string     `json:"leadName"`
	OldStatus string     `json:"oldStatus"`
	NewStatus string     `json:"newStatus"`
	ChangedBy *uuid.UUID `json:"changedBy,omitempty"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// InstallationScheduled is published when a sold lead gets an installation date.
type InstallationScheduled struct {
	BaseEvent
	LeadID           uuid.UUID `json:"leadId"`
	InstallationDate string    `json:"installationDate"`
	Installer        string    `json:"installer"`
}

func (e InstallationScheduled) EventName() string { return "leads.installation.scheduled" }

// BookletStatusChanged is published when carrier tracking moves a booklet order.
type BookletStatusChanged struct {
	BaseEvent
	BookletID      uuid.UUID `json:"bookletId"`
	CustomerName   string    `json:"customerName"`
	CustomerEmail  string    `json:"customerEmail"`
	TrackingNumber string    `json:"trackingNumber"`
	OldStatus      string    `json:"oldStatus"`
	NewStatus      string    `json:"newStatus"`
}

func (e BookletStatusChanged) EventName() string { return "booklets.status.changed" }
