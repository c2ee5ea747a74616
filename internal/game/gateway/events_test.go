package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pickten/pickten/internal/game/events"
)

func TestWireEventType(t *testing.T) {
	tests := []struct {
		domain string
		want   EventType
	}{
		{events.TypeSessionStarted, EventTypeSessionStarted},
		{events.TypeCountdownUpdate, EventTypeSessionCountdown},
		{events.TypePlayerJoined, EventTypePlayerJoined},
		{events.TypeSessionEnded, EventTypeSessionEnded},
	}
	for _, tt := range tests {
		got, err := wireEventType(tt.domain)
		if err != nil {
			t.Errorf("wireEventType(%s): %v", tt.domain, err)
			continue
		}
		if got != tt.want {
			t.Errorf("wireEventType(%s) = %s, want %s", tt.domain, got, tt.want)
		}
	}

	if _, err := wireEventType("SomethingElse"); err == nil {
		t.Error("unknown domain type should be rejected")
	}
}

func TestParseEventPayload(t *testing.T) {
	n := 7
	payload, err := json.Marshal(events.SessionEndedPayload{
		SessionID:     "s1",
		WinningNumber: 7,
		Winners:       []string{"alice"},
		Participations: []events.ParticipationResult{
			{Username: "alice", SelectedNumber: &n, IsWinner: true},
			{Username: "bob", IsWinner: false},
		},
		EndedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	event := &GameEvent{Type: EventTypeSessionEnded, Data: payload}
	parsed, err := ParseEventPayload(event)
	if err != nil {
		t.Fatalf("ParseEventPayload: %v", err)
	}
	ended, ok := parsed.(events.SessionEndedPayload)
	if !ok {
		t.Fatalf("parsed type = %T", parsed)
	}
	if ended.WinningNumber != 7 || len(ended.Winners) != 1 {
		t.Errorf("payload = %+v", ended)
	}

	event = &GameEvent{Type: EventTypeError, Data: []byte(`{}`)}
	if _, err := ParseEventPayload(event); err == nil {
		t.Error("reply-only event types have no payload parser")
	}
}

func TestPersonalizeResult(t *testing.T) {
	payload, err := json.Marshal(events.SessionEndedPayload{
		SessionID:     "s1",
		WinningNumber: 3,
		Winners:       []string{"alice"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	event := &GameEvent{
		Type:      EventTypeSessionEnded,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}

	loser, winner, err := personalizeResult(event)
	if err != nil {
		t.Fatalf("personalizeResult: %v", err)
	}

	check := func(data []byte, want bool) {
		var envelope GameEvent
		if err := json.Unmarshal(data, &envelope); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(envelope.Data, &body); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		got, ok := body["is_winner"].(bool)
		if !ok || got != want {
			t.Errorf("is_winner = %v, want %v", body["is_winner"], want)
		}
		if body["winning_number"].(float64) != 3 {
			t.Errorf("winning_number = %v, want 3", body["winning_number"])
		}
	}
	check(loser, false)
	check(winner, true)
}
