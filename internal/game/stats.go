package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pickten/pickten/internal/models"
	"github.com/rs/zerolog/log"
)

// StatsRepository defines what the aggregator needs from the store.
type StatsRepository interface {
	SettleParticipationOnce(ctx context.Context, participationID uuid.UUID, settledAt time.Time) (bool, error)
	GetOrCreateStats(ctx context.Context, username string) (*models.UserGameStats, error)
	SaveStats(ctx context.Context, stats *models.UserGameStats) error
}

// Aggregator applies a session outcome to a user's running statistics.
// Stats updates are not naturally idempotent, so every settlement is
// gated on the participation's settled flag: a retried or duplicated
// close is detected there and suppressed.
type Aggregator struct {
	repo StatsRepository
}

// NewAggregator creates a new stats aggregator.
func NewAggregator(repo StatsRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Settle applies one participation's outcome. It reports false, without
// touching stats, when the participation was already settled.
func (g *Aggregator) Settle(ctx context.Context, participation models.Participation, won bool, now time.Time) (bool, error) {
	first, err := g.repo.SettleParticipationOnce(ctx, participation.ID, now)
	if err != nil {
		return false, err
	}
	if !first {
		log.Debug().
			Str("session_id", participation.SessionID.String()).
			Str("username", participation.Username).
			Msg("participation already settled, skipping")
		return false, nil
	}

	stats, err := g.repo.GetOrCreateStats(ctx, participation.Username)
	if err != nil {
		return false, err
	}

	stats.GamesPlayed++
	stats.LastPlayed = &now
	if won {
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
	} else {
		stats.CurrentStreak = 0
	}

	if err := g.repo.SaveStats(ctx, stats); err != nil {
		return false, err
	}
	return true, nil
}
