package game

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pickten/pickten/internal/models"
)

func newParticipation(store *fakeStore, username string) models.Participation {
	p := models.Participation{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		Username:  username,
		JoinedAt:  time.Now(),
	}
	store.partByID[p.ID] = &p
	return p
}

func TestSettleWinAdvancesStreak(t *testing.T) {
	store := newFakeStore()
	agg := NewAggregator(store)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		applied, err := agg.Settle(ctx, newParticipation(store, "alice"), true, now)
		if err != nil {
			t.Fatalf("Settle: %v", err)
		}
		if !applied {
			t.Fatal("settle should apply for a fresh participation")
		}
	}

	stats := store.statsFor("alice")
	if stats.GamesPlayed != 3 || stats.Wins != 3 {
		t.Errorf("stats = %+v, want 3 games 3 wins", stats)
	}
	if stats.CurrentStreak != 3 || stats.BestStreak != 3 {
		t.Errorf("streaks = %d/%d, want 3/3", stats.CurrentStreak, stats.BestStreak)
	}
	if stats.LastPlayed == nil || !stats.LastPlayed.Equal(now) {
		t.Errorf("last played = %v, want %v", stats.LastPlayed, now)
	}
}

func TestSettleLossResetsStreakKeepsBest(t *testing.T) {
	store := newFakeStore()
	agg := NewAggregator(store)
	ctx := context.Background()
	now := time.Now()

	outcomes := []bool{true, true, false, true}
	for _, won := range outcomes {
		if _, err := agg.Settle(ctx, newParticipation(store, "bob"), won, now); err != nil {
			t.Fatalf("Settle: %v", err)
		}
	}

	stats := store.statsFor("bob")
	if stats.GamesPlayed != 4 || stats.Wins != 3 {
		t.Errorf("stats = %+v, want 4 games 3 wins", stats)
	}
	if stats.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", stats.CurrentStreak)
	}
	if stats.BestStreak != 2 {
		t.Errorf("best streak = %d, want 2", stats.BestStreak)
	}
}

func TestSettleSameParticipationOnlyOnce(t *testing.T) {
	store := newFakeStore()
	agg := NewAggregator(store)
	ctx := context.Background()
	now := time.Now()

	p := newParticipation(store, "carol")

	applied, err := agg.Settle(ctx, p, true, now)
	if err != nil || !applied {
		t.Fatalf("first settle: applied=%v err=%v", applied, err)
	}
	applied, err = agg.Settle(ctx, p, true, now)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if applied {
		t.Error("second settle of the same participation must be suppressed")
	}

	stats := store.statsFor("carol")
	if stats.GamesPlayed != 1 || stats.Wins != 1 {
		t.Errorf("stats = %+v, want single game", stats)
	}
}
