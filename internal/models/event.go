package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события
type EventType string

const (
	EventTypeQuoteCalculated  EventType = "quote.calculated"
	EventTypeDistanceResolved EventType = "distance.resolved"
	EventTypeSettingsChanged  EventType = "pricing.settings_changed"
)

// Event представляет событие в Kafka
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// NewEvent создает событие с новым ID и текущим временем
func NewEvent(eventType EventType, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
