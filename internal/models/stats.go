package models

import "time"

// UserGameStats is a per-user running aggregate, mutated only at
// session settlement.
type UserGameStats struct {
	Username      string     `json:"username"`
	Wins          int        `json:"wins"`
	GamesPlayed   int        `json:"games_played"`
	CurrentStreak int        `json:"current_streak"`
	BestStreak    int        `json:"best_streak"`
	LastPlayed    *time.Time `json:"last_played,omitempty"`
}

// WinRate returns the win percentage rounded to two decimals.
// A user with no settled games has a rate of zero.
func (s *UserGameStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	rate := float64(s.Wins) / float64(s.GamesPlayed) * 100
	return float64(int(rate*100+0.5)) / 100
}
