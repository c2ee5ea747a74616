package game

import (
	"errors"
	"time"
)

var (
	// ErrNoActiveSession is returned when an operation requires an
	// active session and none exists. Callers may retry after the next
	// tick creates one.
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidNumber is returned for picks outside [1,10]. No state
	// is mutated.
	ErrInvalidNumber = errors.New("selected number must be between 1 and 10")

	// ErrAlreadySettled is returned when a close targets a session that
	// is already closed. It is the expected outcome of a close race and
	// callers swallow it as a no-op.
	ErrAlreadySettled = errors.New("session already settled")

	// ErrStoreUnavailable wraps session store failures surfaced from
	// Tick so the driver can retry on the next cadence.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Config holds the engine's tuning values, passed explicitly at
// construction.
type Config struct {
	SessionDuration time.Duration
	PostClosePause  time.Duration
}

// DefaultConfig returns the documented defaults: 20s sessions with a 3s
// pause between a result announcement and the successor session.
func DefaultConfig() Config {
	return Config{
		SessionDuration: 20 * time.Second,
		PostClosePause:  3 * time.Second,
	}
}

// JoinOutcome is the repository-level result of a guarded join.
// Active is false when the session was closed or its window lapsed
// before the join transaction locked the row.
type JoinOutcome struct {
	Active      bool
	Created     bool
	PlayerCount int
}

// JoinResult is the outcome of a join.
type JoinResult struct {
	PlayerCount   int  `json:"player_count"`
	AlreadyJoined bool `json:"already_joined"`
}

// PickResult is the outcome of a pick. For a session whose window has
// lapsed the pick is not applied and the settled outcome is reported
// instead; WinningNumber stays nil if the draw has not committed yet.
type PickResult struct {
	Applied        bool     `json:"applied"`
	SelectedNumber *int     `json:"selected_number,omitempty"`
	WinningNumber  *int     `json:"winning_number,omitempty"`
	Winners        []string `json:"winners,omitempty"`
	IsWinner       bool     `json:"is_winner"`
}

// SessionSnapshot is the read-only view sent to a client on connect.
type SessionSnapshot struct {
	SessionID     string    `json:"session_id"`
	StartedAt     time.Time `json:"started_at"`
	TimeRemaining int       `json:"time_remaining"`
	PlayerCount   int       `json:"player_count"`
	IsActive      bool      `json:"is_active"`
}
