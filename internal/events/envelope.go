package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire shape published on tenant channels.
type Envelope struct {
	Event      string          `json:"event"`
	BusinessID uuid.UUID       `json:"business_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func Wrap(event Event) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Event:      event.EventName(),
		BusinessID: event.Tenant(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}, nil
}
