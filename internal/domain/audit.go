package domain

import (
	"encoding/json"
	"time"
)

// AuditEntry is one recorded domain event.
type AuditEntry struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	ActorID       string          `json:"actorId,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
	RecordedAt    time.Time       `json:"recordedAt"`
}

// AuditFilter narrows audit listings. Empty fields match everything.
type AuditFilter struct {
	AggregateID string
	EventType   string
}
