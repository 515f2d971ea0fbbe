package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOfferCreated        EventType = "offer_created"
	EventOfferAccepted       EventType = "offer_accepted"
	EventOfferRefused        EventType = "offer_refused"
	EventPropertySold        EventType = "property_sold"
	EventPropertyCanceled    EventType = "property_canceled"
	EventPropertyTypeDeleted EventType = "property_type_deleted"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventOfferCreated, EventOfferAccepted, EventOfferRefused,
		EventPropertySold, EventPropertyCanceled, EventPropertyTypeDeleted:
		return true
	}
	return false
}

// Event describes a committed workflow transition.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	PropertyID   int64     `json:"property_id,omitempty"`
	PropertyName string    `json:"property_name,omitempty"`
	OfferID      int64     `json:"offer_id,omitempty"`
	Price        float64   `json:"price,omitempty"`
	Count        int       `json:"count,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewEvent(eventType EventType, at time.Time) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: at,
	}
}
