package events

import (
	platformevents "wrapcrm_backend/platform/events"
	"wrapcrm_backend/platform/logger"
)

// InMemoryBus is the process-local bus shared by all modules.
type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
