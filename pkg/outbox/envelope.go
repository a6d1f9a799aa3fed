package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// CurrentEnvelopeVersion is stamped on events that do not set a version.
const CurrentEnvelopeVersion = 1

// DomainEvent is what checkout and the payments processor hand to Emit.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   int64
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	if !e.EventType.IsValid() {
		return fmt.Errorf("unknown event type %q", e.EventType)
	}
	if !e.AggregateType.IsValid() {
		return fmt.Errorf("unknown aggregate type %q", e.AggregateType)
	}
	if e.AggregateID <= 0 {
		return fmt.Errorf("aggregate id must be positive, got %d", e.AggregateID)
	}
	return nil
}

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID int64  `json:"userId,omitempty"`
	Source string `json:"source,omitempty"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and published
// as the Pub/Sub message body. EventID equals the outbox row id.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func newEnvelope(id uuid.UUID, event DomainEvent, now time.Time) (PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return PayloadEnvelope{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	version := event.Version
	if version == 0 {
		version = CurrentEnvelopeVersion
	}
	return PayloadEnvelope{
		Version:    version,
		EventID:    id.String(),
		OccurredAt: occurredAt.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}, nil
}

// DecodeEnvelope parses a stored or published envelope. Envelopes written
// before versioning are read as CurrentEnvelopeVersion.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode payload envelope: %w", err)
	}
	if envelope.Version < 0 {
		return PayloadEnvelope{}, errors.New("payload envelope has negative version")
	}
	if envelope.Version == 0 {
		envelope.Version = CurrentEnvelopeVersion
	}
	return envelope, nil
}

func (e PayloadEnvelope) marshal() (json.RawMessage, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode payload envelope: %w", err)
	}
	return raw, nil
}
