package live

import (
	"encoding/json"
	"fmt"

	"github.com/colin-cd72/cards/internal/domain"
)

// Event names on the live channel.
const (
	EventCardDisplay     = "card:display"
	EventCardBlank       = "card:blank"
	EventCardCurrent     = "card:current"
	EventConnectionCount = "connection:count"
	EventSettingsUpdate  = "settings:update"
)

// Envelope is the wire format for live events.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// CurrentCard is the payload of a join-time snapshot. Card is null when
// nothing is on air.
type CurrentCard struct {
	Card *domain.LiveCard `json:"card"`
}

// SettingsUpdate is the payload broadcast when an admin changes a setting.
type SettingsUpdate struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func marshalEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event, err)
	}
	return data, nil
}
