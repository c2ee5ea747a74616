package models

import "testing"

func TestWinRate(t *testing.T) {
	tests := []struct {
		name   string
		wins   int
		played int
		want   float64
	}{
		{"no games", 0, 0, 0},
		{"no wins", 0, 10, 0},
		{"all wins", 5, 5, 100},
		{"one third", 1, 3, 33.33},
		{"two thirds", 2, 3, 66.67},
		{"one in eight", 1, 8, 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &UserGameStats{Wins: tt.wins, GamesPlayed: tt.played}
			if got := s.WinRate(); got != tt.want {
				t.Errorf("WinRate() = %v, want %v", got, tt.want)
			}
		})
	}
}
