package models

import (
	"time"

	"github.com/google/uuid"
)

// Participation represents one user's membership and pick within a
// session. A user has at most one participation per session.
type Participation struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      uuid.UUID  `json:"session_id"`
	Username       string     `json:"username"`
	SelectedNumber *int       `json:"selected_number,omitempty"`
	IsWinner       bool       `json:"is_winner"`
	JoinedAt       time.Time  `json:"joined_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
}
