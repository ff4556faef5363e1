package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/plexnet/pkg/errors"
)

// Event types
const (
	EventSpeciesCreated = "species.created"
)

// SchemaVersion of every envelope this package produces.
const SchemaVersion = "v1"

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope wraps payload in a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogEncode, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeCatalogEncode, "failed to decode payload")
	}
	return nil
}

// ToMessage encodes the envelope as a message keyed by key.
func (e *EventEnvelope) ToMessage(key string) (Message, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return Message{}, errors.Wrap(err, errors.ErrCodeCatalogEncode, "failed to marshal envelope")
	}
	return Message{
		Key:   []byte(key),
		Value: val,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"source":         e.Source,
			"schema_version": e.SchemaVersion,
		},
		Timestamp: e.Timestamp,
	}, nil
}

// DecodeEnvelope parses a message value produced by ToMessage.
func DecodeEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogEncode, "failed to unmarshal envelope")
	}
	return &env, nil
}
