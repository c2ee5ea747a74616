package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pickten/pickten/internal/game/db"
	"github.com/pickten/pickten/internal/models"
	"github.com/pickten/pickten/internal/sqlutil"
)

// Querier defines what the repository needs from the database layer.
type Querier interface {
	GetActiveSession(ctx context.Context) (db.GameSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (db.GameSession, error)
	CreateSession(ctx context.Context, arg db.CreateSessionParams) (db.GameSession, error)
	CloseSessionIfActive(ctx context.Context, arg db.CloseSessionIfActiveParams) (int64, error)
	SetWinningNumber(ctx context.Context, arg db.SetWinningNumberParams) error
	MarkSessionSettled(ctx context.Context, arg db.MarkSessionSettledParams) error
	GetLatestUnsettledClosedSession(ctx context.Context) (db.GameSession, error)
	GetLatestClosedSession(ctx context.Context) (db.GameSession, error)
	IncrementPlayerCount(ctx context.Context, id uuid.UUID) (int32, error)
	InsertParticipation(ctx context.Context, arg db.InsertParticipationParams) (int64, error)
	GetParticipation(ctx context.Context, arg db.GetParticipationParams) (db.GameParticipation, error)
	ListParticipations(ctx context.Context, sessionID uuid.UUID) ([]db.GameParticipation, error)
	MarkWinners(ctx context.Context, arg db.MarkWinnersParams) error
	SettleParticipation(ctx context.Context, arg db.SettleParticipationParams) (int64, error)
	GetStats(ctx context.Context, username string) (db.UserGameStat, error)
	UpsertStats(ctx context.Context, arg db.UpsertStatsParams) error
}

// Repository implements session store access for the lifecycle engine.
type Repository struct {
	queries Querier
	sqlDB   *sql.DB
}

// NewRepository creates a new game repository. sqlDB is used for the
// multi-statement pick transaction.
func NewRepository(querier Querier, sqlDB *sql.DB) *Repository {
	return &Repository{
		queries: querier,
		sqlDB:   sqlDB,
	}
}

// GetActiveSession returns the single active session, or nil when none
// exists.
func (r *Repository) GetActiveSession(ctx context.Context) (*models.Session, error) {
	session, err := r.queries.GetActiveSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return dbSessionToModel(session), nil
}

// GetSession returns a session by id.
func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := r.queries.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return dbSessionToModel(session), nil
}

// CreateSession creates a new active session.
func (r *Repository) CreateSession(ctx context.Context, startedAt, endsAt time.Time) (*models.Session, error) {
	session, err := r.queries.CreateSession(ctx, db.CreateSessionParams{
		ID:        uuid.New(),
		StartedAt: startedAt,
		EndsAt:    endsAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return dbSessionToModel(session), nil
}

// CloseSessionIfActive performs the ACTIVE -> CLOSED compare-and-set.
// It reports false when another caller already closed the session.
func (r *Repository) CloseSessionIfActive(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error) {
	rows, err := r.queries.CloseSessionIfActive(ctx, db.CloseSessionIfActiveParams{
		ID:       id,
		ClosedAt: sql.NullTime{Time: closedAt, Valid: true},
	})
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}
	return rows == 1, nil
}

// SetWinningNumber persists the drawn number for a closed session.
func (r *Repository) SetWinningNumber(ctx context.Context, id uuid.UUID, number int) error {
	err := r.queries.SetWinningNumber(ctx, db.SetWinningNumberParams{
		ID:            id,
		WinningNumber: sql.NullInt32{Int32: int32(number), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to set winning number: %w", err)
	}
	return nil
}

// MarkSessionSettled records that a session's outcome has been fully
// applied to player stats.
func (r *Repository) MarkSessionSettled(ctx context.Context, id uuid.UUID, settledAt time.Time) error {
	err := r.queries.MarkSessionSettled(ctx, db.MarkSessionSettledParams{
		ID:        id,
		SettledAt: sql.NullTime{Time: settledAt, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark session settled: %w", err)
	}
	return nil
}

// GetLatestUnsettledClosedSession returns a closed session whose
// settlement did not run to completion, or nil when none exists. Used
// by the tick recovery path after a crash mid-close.
func (r *Repository) GetLatestUnsettledClosedSession(ctx context.Context) (*models.Session, error) {
	session, err := r.queries.GetLatestUnsettledClosedSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unsettled session: %w", err)
	}
	return dbSessionToModel(session), nil
}

// GetLatestClosedSession returns the most recently closed session, or
// nil when no session has ever closed. Used to answer late picks that
// arrive during the post-close pause.
func (r *Repository) GetLatestClosedSession(ctx context.Context) (*models.Session, error) {
	session, err := r.queries.GetLatestClosedSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest closed session: %w", err)
	}
	return dbSessionToModel(session), nil
}

// JoinSessionIfActive creates a participation and bumps the player
// count inside one transaction that re-reads the session row under
// lock, mirroring the pick path. A join racing the close is rejected
// instead of landing a never-settled participation on a CLOSED session.
func (r *Repository) JoinSessionIfActive(ctx context.Context, sessionID uuid.UUID, username string, joinedAt time.Time) (JoinOutcome, error) {
	var outcome JoinOutcome
	err := sqlutil.Run(ctx, r.sqlDB, newTxQueries, func(q *db.Queries) error {
		session, err := q.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to lock session: %w", err)
		}
		if session.Status != string(models.SessionStatusActive) || !session.EndsAt.After(joinedAt) {
			return nil
		}
		outcome.Active = true

		rows, err := q.InsertParticipation(ctx, db.InsertParticipationParams{
			ID:        uuid.New(),
			SessionID: sessionID,
			Username:  username,
			JoinedAt:  joinedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to insert participation: %w", err)
		}
		if rows == 0 {
			outcome.PlayerCount = int(session.PlayerCount)
			return nil
		}
		outcome.Created = true

		count, err := q.IncrementPlayerCount(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to increment player count: %w", err)
		}
		outcome.PlayerCount = int(count)
		return nil
	})
	if err != nil {
		return JoinOutcome{}, err
	}
	return outcome, nil
}

// IncrementPlayerCount atomically bumps a session's player count and
// returns the new value.
func (r *Repository) IncrementPlayerCount(ctx context.Context, sessionID uuid.UUID) (int, error) {
	count, err := r.queries.IncrementPlayerCount(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment player count: %w", err)
	}
	return int(count), nil
}

// UpsertPick applies a pick inside one transaction that re-reads the
// session row under lock, so a pick can never land on a session after
// its ACTIVE -> CLOSED transition commits. It reports whether the pick
// was applied and whether it created the participation.
func (r *Repository) UpsertPick(ctx context.Context, sessionID uuid.UUID, username string, number int, now time.Time) (applied bool, created bool, err error) {
	err = sqlutil.Run(ctx, r.sqlDB, newTxQueries, func(q *db.Queries) error {
		session, err := q.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to lock session: %w", err)
		}
		if session.Status != string(models.SessionStatusActive) || !session.EndsAt.After(now) {
			return nil
		}

		rows, err := q.InsertParticipation(ctx, db.InsertParticipationParams{
			ID:             uuid.New(),
			SessionID:      sessionID,
			Username:       username,
			SelectedNumber: sql.NullInt32{Int32: int32(number), Valid: true},
			JoinedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("failed to insert participation: %w", err)
		}
		if rows == 0 {
			if err := q.UpdateSelectedNumber(ctx, db.UpdateSelectedNumberParams{
				SessionID:      sessionID,
				Username:       username,
				SelectedNumber: sql.NullInt32{Int32: int32(number), Valid: true},
			}); err != nil {
				return fmt.Errorf("failed to update selected number: %w", err)
			}
		}
		created = rows == 1
		applied = true
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return applied, created, nil
}

// GetParticipation returns a user's participation in a session, or nil
// when the user never joined.
func (r *Repository) GetParticipation(ctx context.Context, sessionID uuid.UUID, username string) (*models.Participation, error) {
	participation, err := r.queries.GetParticipation(ctx, db.GetParticipationParams{
		SessionID: sessionID,
		Username:  username,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return dbParticipationToModel(participation), nil
}

// ListParticipations returns all participations of a session in join
// order.
func (r *Repository) ListParticipations(ctx context.Context, sessionID uuid.UUID) ([]models.Participation, error) {
	participations, err := r.queries.ListParticipations(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	result := make([]models.Participation, len(participations))
	for i, p := range participations {
		result[i] = *dbParticipationToModel(p)
	}
	return result, nil
}

// MarkWinners flags every participation of the session that picked the
// winning number.
func (r *Repository) MarkWinners(ctx context.Context, sessionID uuid.UUID, winningNumber int) error {
	err := r.queries.MarkWinners(ctx, db.MarkWinnersParams{
		SessionID:      sessionID,
		SelectedNumber: sql.NullInt32{Int32: int32(winningNumber), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark winners: %w", err)
	}
	return nil
}

// SettleParticipationOnce flips the settlement guard for one
// participation. It reports false when the participation was already
// settled, which callers treat as a signal to skip the stats update.
func (r *Repository) SettleParticipationOnce(ctx context.Context, participationID uuid.UUID, settledAt time.Time) (bool, error) {
	rows, err := r.queries.SettleParticipation(ctx, db.SettleParticipationParams{
		ID:        participationID,
		SettledAt: sql.NullTime{Time: settledAt, Valid: true},
	})
	if err != nil {
		return false, fmt.Errorf("failed to settle participation: %w", err)
	}
	return rows == 1, nil
}

// GetOrCreateStats returns a user's running stats, starting from zero
// values for a user with no settled games yet.
func (r *Repository) GetOrCreateStats(ctx context.Context, username string) (*models.UserGameStats, error) {
	stats, err := r.queries.GetStats(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.UserGameStats{Username: username}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return dbStatsToModel(stats), nil
}

// SaveStats persists a user's running stats.
func (r *Repository) SaveStats(ctx context.Context, stats *models.UserGameStats) error {
	err := r.queries.UpsertStats(ctx, db.UpsertStatsParams{
		Username:      stats.Username,
		Wins:          int32(stats.Wins),
		GamesPlayed:   int32(stats.GamesPlayed),
		CurrentStreak: int32(stats.CurrentStreak),
		BestStreak:    int32(stats.BestStreak),
		LastPlayed:    nullTime(stats.LastPlayed),
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

func newTxQueries(tx *sql.Tx) *db.Queries {
	return db.New(tx)
}

func dbSessionToModel(s db.GameSession) *models.Session {
	session := &models.Session{
		ID:          s.ID,
		Seq:         s.Seq,
		Status:      models.SessionStatus(s.Status),
		StartedAt:   s.StartedAt,
		EndsAt:      s.EndsAt,
		PlayerCount: int(s.PlayerCount),
	}
	if s.WinningNumber.Valid {
		n := int(s.WinningNumber.Int32)
		session.WinningNumber = &n
	}
	if s.ClosedAt.Valid {
		t := s.ClosedAt.Time
		session.ClosedAt = &t
	}
	if s.SettledAt.Valid {
		t := s.SettledAt.Time
		session.SettledAt = &t
	}
	return session
}

func dbParticipationToModel(p db.GameParticipation) *models.Participation {
	participation := &models.Participation{
		ID:        p.ID,
		SessionID: p.SessionID,
		Username:  p.Username,
		IsWinner:  p.IsWinner,
		JoinedAt:  p.JoinedAt,
	}
	if p.SelectedNumber.Valid {
		n := int(p.SelectedNumber.Int32)
		participation.SelectedNumber = &n
	}
	if p.SettledAt.Valid {
		t := p.SettledAt.Time
		participation.SettledAt = &t
	}
	return participation
}

func dbStatsToModel(s db.UserGameStat) *models.UserGameStats {
	stats := &models.UserGameStats{
		Username:      s.Username,
		Wins:          int(s.Wins),
		GamesPlayed:   int(s.GamesPlayed),
		CurrentStreak: int(s.CurrentStreak),
		BestStreak:    int(s.BestStreak),
	}
	if s.LastPlayed.Valid {
		t := s.LastPlayed.Time
		stats.LastPlayed = &t
	}
	return stats
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
