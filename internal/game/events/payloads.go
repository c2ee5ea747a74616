package events

import (
	"time"
)

// Event type tags shared between the engine, outbox and gateway.
const (
	TypeSessionStarted  = "SessionStarted"
	TypeCountdownUpdate = "CountdownUpdate"
	TypePlayerJoined    = "PlayerJoined"
	TypeSessionEnded    = "SessionEnded"
)

// SessionStartedPayload is the payload for a SessionStarted event.
type SessionStartedPayload struct {
	SessionID string    `json:"session_id"`
	StartTime time.Time `json:"start_time"`
	EndsAt    time.Time `json:"ends_at"`
}

// CountdownUpdatePayload is the payload for a CountdownUpdate event.
type CountdownUpdatePayload struct {
	SessionID string `json:"session_id"`
	TimeLeft  int    `json:"time_left"`
}

// PlayerJoinedPayload is the payload for a PlayerJoined event.
type PlayerJoinedPayload struct {
	SessionID   string `json:"session_id"`
	Username    string `json:"username"`
	PlayerCount int    `json:"player_count"`
}

// ParticipationResult is one player's final line in a SessionEnded
// event.
type ParticipationResult struct {
	Username       string `json:"username"`
	SelectedNumber *int   `json:"selected_number,omitempty"`
	IsWinner       bool   `json:"is_winner"`
}

// SessionEndedPayload is the payload for a SessionEnded event. Winners
// share the prize equally; an empty winner set is valid.
type SessionEndedPayload struct {
	SessionID      string                `json:"session_id"`
	WinningNumber  int                   `json:"winning_number"`
	Winners        []string              `json:"winners"`
	Participations []ParticipationResult `json:"participations"`
	EndedAt        time.Time             `json:"ended_at"`
}
