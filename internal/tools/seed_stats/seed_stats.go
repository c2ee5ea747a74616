package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pickten/pickten/internal/dbconfig"
)

const insertStatsSQL = `
    INSERT INTO user_game_stats (
      username, games_played, wins, current_streak, best_streak, last_played
    ) VALUES (
      $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (username) DO NOTHING
`

// StatsRow mirrors the JSON snapshot structure
type StatsRow struct {
	Username      string `json:"username"`
	GamesPlayed   int    `json:"games_played"`
	Wins          int    `json:"wins"`
	CurrentStreak int    `json:"current_streak"`
	BestStreak    int    `json:"best_streak"`
	LastPlayedAt  string `json:"last_played_at"`
}

func main() {
	// 1) Load the JSON snapshot
	data, err := os.ReadFile("internal/assets/demo_stats.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var rows []StatsRow
	if err := json.Unmarshal(data, &rows); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total    = len(rows)
		inserted int
		skipped  int
		errs     int
	)

	for _, r := range rows {
		cmdTag, err := pool.Exec(context.Background(), insertStatsSQL,
			r.Username, r.GamesPlayed, r.Wins, r.CurrentStreak, r.BestStreak, r.LastPlayedAt,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting stats for %s: %v\n", r.Username, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Stats seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
