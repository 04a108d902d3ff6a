package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by approval events
const (
	KeyStatus         = "status"
	KeyPreviousStatus = "previous_status"
	KeyApplicantID    = "applicant_id"
	KeyActorID        = "actor_id"
	KeyTitle          = "title"
	KeyRemarks        = "remarks"
)

// Event represents a domain event
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	RecordID      string                 `json:"record_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, recordID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, recordID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, recordID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		RecordID:      recordID,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a new Event with an added payload key-value pair (immutable operation)
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	c := *e
	c.Payload = newPayload
	return &c
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case string:
			return v
		case interface{ String() string }:
			return v.String()
		}
	}
	return ""
}

// GetPayloadTime retrieves a time value from the payload
func (e *Event) GetPayloadTime(key string) (time.Time, bool) {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case time.Time:
			return v, true
		case *time.Time:
			if v != nil {
				return *v, true
			}
		}
	}
	return time.Time{}, false
}
