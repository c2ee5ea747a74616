package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pickten/pickten/internal/game/events"
)

// GameEvent is the envelope for every server-to-client message.
type GameEvent struct {
	ID        string          `json:"id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType is the wire tag of a server-to-client message.
type EventType string

const (
	EventTypeSessionInfo      EventType = "session_info"
	EventTypeSessionStarted   EventType = "session_started"
	EventTypeSessionCountdown EventType = "session_countdown"
	EventTypePlayerJoined     EventType = "player_joined"
	EventTypeSessionEnded     EventType = "session_ended"
	EventTypeJoinAck          EventType = "join_ack"
	EventTypeNumberSelected   EventType = "number_selected"
	EventTypeInfo             EventType = "info"
	EventTypeError            EventType = "error"
)

// wireEventType maps a domain event tag to its wire tag.
func wireEventType(domainType string) (EventType, error) {
	switch domainType {
	case events.TypeSessionStarted:
		return EventTypeSessionStarted, nil
	case events.TypeCountdownUpdate:
		return EventTypeSessionCountdown, nil
	case events.TypePlayerJoined:
		return EventTypePlayerJoined, nil
	case events.TypeSessionEnded:
		return EventTypeSessionEnded, nil
	default:
		return "", fmt.Errorf("unknown event type: %s", domainType)
	}
}

// ParseEventPayload parses event data into the appropriate payload
// struct.
func ParseEventPayload(event *GameEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeSessionStarted:
		var payload events.SessionStartedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeSessionCountdown:
		var payload events.CountdownUpdatePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypePlayerJoined:
		var payload events.PlayerJoinedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeSessionEnded:
		var payload events.SessionEndedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("no payload parser for event type: %s", event.Type)
	}
}
