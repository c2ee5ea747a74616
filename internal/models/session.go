package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus defines the lifecycle status of a game session.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "ACTIVE"
	SessionStatusClosed SessionStatus = "CLOSED"
)

// Session represents one timed round of the number game.
type Session struct {
	ID            uuid.UUID     `json:"id"`
	Seq           int64         `json:"seq"`
	Status        SessionStatus `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	EndsAt        time.Time     `json:"ends_at"`
	WinningNumber *int          `json:"winning_number,omitempty"`
	PlayerCount   int           `json:"player_count"`
	ClosedAt      *time.Time    `json:"closed_at,omitempty"`
	SettledAt     *time.Time    `json:"settled_at,omitempty"`
}

// TimeRemaining returns the whole seconds left in the session window,
// clamped at zero.
func (s *Session) TimeRemaining(now time.Time) int {
	if s.Status != SessionStatusActive {
		return 0
	}
	remaining := s.EndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Round(time.Second) / time.Second)
}

// Expired reports whether the session window has lapsed.
func (s *Session) Expired(now time.Time) bool {
	return !s.EndsAt.After(now)
}
