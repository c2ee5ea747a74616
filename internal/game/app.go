package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pickten/pickten/internal/game/events"
	"github.com/pickten/pickten/internal/models"
	"github.com/rs/zerolog/log"
)

// GameRepository defines what the engine needs from the session store.
type GameRepository interface {
	GetActiveSession(ctx context.Context) (*models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	CreateSession(ctx context.Context, startedAt, endsAt time.Time) (*models.Session, error)
	CloseSessionIfActive(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error)
	SetWinningNumber(ctx context.Context, id uuid.UUID, number int) error
	MarkSessionSettled(ctx context.Context, id uuid.UUID, settledAt time.Time) error
	GetLatestUnsettledClosedSession(ctx context.Context) (*models.Session, error)
	GetLatestClosedSession(ctx context.Context) (*models.Session, error)
	JoinSessionIfActive(ctx context.Context, sessionID uuid.UUID, username string, joinedAt time.Time) (JoinOutcome, error)
	IncrementPlayerCount(ctx context.Context, sessionID uuid.UUID) (int, error)
	UpsertPick(ctx context.Context, sessionID uuid.UUID, username string, number int, now time.Time) (applied bool, created bool, err error)
	GetParticipation(ctx context.Context, sessionID uuid.UUID, username string) (*models.Participation, error)
	ListParticipations(ctx context.Context, sessionID uuid.UUID) ([]models.Participation, error)
	MarkWinners(ctx context.Context, sessionID uuid.UUID, winningNumber int) error
	SettleParticipationOnce(ctx context.Context, participationID uuid.UUID, settledAt time.Time) (bool, error)
	GetOrCreateStats(ctx context.Context, username string) (*models.UserGameStats, error)
	SaveStats(ctx context.Context, stats *models.UserGameStats) error
}

// OutboxApp defines what the engine needs from the outbox app.
type OutboxApp interface {
	InsertSessionStarted(ctx context.Context, sessionID uuid.UUID, payload []byte) error
	InsertCountdownUpdate(ctx context.Context, sessionID uuid.UUID, payload []byte) error
	InsertPlayerJoined(ctx context.Context, sessionID uuid.UUID, payload []byte) error
	InsertSessionEnded(ctx context.Context, sessionID uuid.UUID, payload []byte) error
}

// App is the session lifecycle engine. It holds no session state of its
// own; every tick re-reads current truth from the store, so the engine
// is restart-safe. The periodic driver and client-triggered operations
// share these entry points.
type App struct {
	repo       GameRepository
	outbox     OutboxApp
	aggregator *Aggregator
	cfg        Config
	clock      clockwork.Clock
	draw       func() int
}

// Option configures an App.
type Option func(*App)

// WithClock replaces the engine's clock.
func WithClock(clock clockwork.Clock) Option {
	return func(a *App) { a.clock = clock }
}

// WithDraw replaces the winning-number source.
func WithDraw(draw func() int) Option {
	return func(a *App) { a.draw = draw }
}

// NewApp creates a new lifecycle engine.
func NewApp(repo GameRepository, outbox OutboxApp, cfg Config, opts ...Option) *App {
	app := &App{
		repo:       repo,
		outbox:     outbox,
		aggregator: NewAggregator(repo),
		cfg:        cfg,
		clock:      clockwork.NewRealClock(),
		draw:       func() int { return rand.Intn(10) + 1 },
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Tick evaluates the current session once. With no active session it
// finishes any interrupted settlement, then opens a new session. With
// an active session it either emits a countdown update or, once the
// window has lapsed, performs the close-and-rollover. Tick is
// idempotent with respect to racing callers.
func (a *App) Tick(ctx context.Context) error {
	session, err := a.repo.GetActiveSession(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if session == nil {
		if err := a.recoverUnsettled(ctx); err != nil {
			return err
		}
		_, err := a.startSession(ctx)
		return err
	}

	now := a.clock.Now()
	if !session.Expired(now) {
		return a.emitCountdown(ctx, session, now)
	}

	if err := a.CloseAndRollover(ctx, session.ID); err != nil && !errors.Is(err, ErrAlreadySettled) {
		return err
	}
	return nil
}

// CloseAndRollover ends a session and starts its successor. The
// ACTIVE -> CLOSED transition is a compare-and-set at the store; a
// caller that loses the race gets ErrAlreadySettled and must perform no
// further mutation. The committed close runs to completion: draw,
// winner marking, stats settlement, result broadcast, pause, successor.
func (a *App) CloseAndRollover(ctx context.Context, sessionID uuid.UUID) error {
	closed, err := a.repo.CloseSessionIfActive(ctx, sessionID, a.clock.Now())
	if err != nil {
		return err
	}
	if !closed {
		return ErrAlreadySettled
	}

	winningNumber := a.draw()
	if err := a.repo.SetWinningNumber(ctx, sessionID, winningNumber); err != nil {
		return err
	}

	if err := a.settleSession(ctx, sessionID, winningNumber); err != nil {
		return err
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Int("winning_number", winningNumber).
		Msg("session closed")

	if err := a.pause(ctx); err != nil {
		return err
	}

	_, err = a.startSession(ctx)
	return err
}

// Join adds a user to the current active session. Joining twice is a
// no-op; the participation insert and player count bump share one
// transaction that re-checks the session under lock, so a join can
// never land on a session after its close commits.
func (a *App) Join(ctx context.Context, username string) (*JoinResult, error) {
	session, err := a.repo.GetActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	outcome, err := a.repo.JoinSessionIfActive(ctx, session.ID, username, a.clock.Now())
	if err != nil {
		return nil, err
	}
	if !outcome.Active {
		// Close committed between the session read and the join tx.
		return nil, ErrNoActiveSession
	}
	if !outcome.Created {
		return &JoinResult{PlayerCount: outcome.PlayerCount, AlreadyJoined: true}, nil
	}

	if err := a.emitPlayerJoined(ctx, session.ID, username, outcome.PlayerCount); err != nil {
		return nil, err
	}
	return &JoinResult{PlayerCount: outcome.PlayerCount}, nil
}

// Pick records a user's number for the current session, joining the
// session implicitly on a first pick. A pick may be overwritten any
// number of times while the window is open. Once the window has lapsed
// the call is read-only and reports the settled outcome, so a late pick
// can never win against a number drawn after closure.
func (a *App) Pick(ctx context.Context, username string, number int) (*PickResult, error) {
	if number < 1 || number > 10 {
		return nil, ErrInvalidNumber
	}

	session, err := a.repo.GetActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		closed, err := a.repo.GetLatestClosedSession(ctx)
		if err != nil {
			return nil, err
		}
		if closed == nil {
			return nil, ErrNoActiveSession
		}
		return a.settledOutcome(ctx, closed, username)
	}

	now := a.clock.Now()
	if session.Expired(now) {
		return a.settledOutcome(ctx, session, username)
	}

	applied, created, err := a.repo.UpsertPick(ctx, session.ID, username, number, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Close committed between the session read and the pick tx.
		closed, err := a.repo.GetSession(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		return a.settledOutcome(ctx, closed, username)
	}

	if created {
		count, err := a.repo.IncrementPlayerCount(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if err := a.emitPlayerJoined(ctx, session.ID, username, count); err != nil {
			return nil, err
		}
	}

	n := number
	return &PickResult{Applied: true, SelectedNumber: &n}, nil
}

// CurrentSession returns a snapshot of the active session for a client
// connecting mid-round, or nil during the post-close pause.
func (a *App) CurrentSession(ctx context.Context) (*SessionSnapshot, error) {
	session, err := a.repo.GetActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	return &SessionSnapshot{
		SessionID:     session.ID.String(),
		StartedAt:     session.StartedAt,
		TimeRemaining: session.TimeRemaining(a.clock.Now()),
		PlayerCount:   session.PlayerCount,
		IsActive:      true,
	}, nil
}

// startSession creates the successor session and announces it.
func (a *App) startSession(ctx context.Context) (*models.Session, error) {
	now := a.clock.Now()
	session, err := a.repo.CreateSession(ctx, now, now.Add(a.cfg.SessionDuration))
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(events.SessionStartedPayload{
		SessionID: session.ID.String(),
		StartTime: session.StartedAt,
		EndsAt:    session.EndsAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SessionStarted payload: %w", err)
	}
	if err := a.outbox.InsertSessionStarted(ctx, session.ID, payload); err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Time("ends_at", session.EndsAt).
		Msg("session started")
	return session, nil
}

// settleSession marks winners, applies stats for every participation
// exactly once, and announces the result. Safe to re-run: settlement is
// guarded per participation.
func (a *App) settleSession(ctx context.Context, sessionID uuid.UUID, winningNumber int) error {
	if err := a.repo.MarkWinners(ctx, sessionID, winningNumber); err != nil {
		return err
	}

	participations, err := a.repo.ListParticipations(ctx, sessionID)
	if err != nil {
		return err
	}

	winners := make([]string, 0)
	results := make([]events.ParticipationResult, 0, len(participations))
	now := a.clock.Now()
	for _, p := range participations {
		won := p.SelectedNumber != nil && *p.SelectedNumber == winningNumber
		if won {
			winners = append(winners, p.Username)
		}
		results = append(results, events.ParticipationResult{
			Username:       p.Username,
			SelectedNumber: p.SelectedNumber,
			IsWinner:       won,
		})
		if _, err := a.aggregator.Settle(ctx, p, won, now); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(events.SessionEndedPayload{
		SessionID:      sessionID.String(),
		WinningNumber:  winningNumber,
		Winners:        winners,
		Participations: results,
		EndedAt:        now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal SessionEnded payload: %w", err)
	}
	if err := a.outbox.InsertSessionEnded(ctx, sessionID, payload); err != nil {
		return err
	}

	return a.repo.MarkSessionSettled(ctx, sessionID, a.clock.Now())
}

// recoverUnsettled completes the close of a session interrupted
// mid-settlement by a crash. The result broadcast on this path is
// at-least-once; the stats mutations stay exactly-once behind the
// per-participation guard.
func (a *App) recoverUnsettled(ctx context.Context) error {
	session, err := a.repo.GetLatestUnsettledClosedSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	winningNumber := 0
	if session.WinningNumber != nil {
		winningNumber = *session.WinningNumber
	} else {
		winningNumber = a.draw()
		if err := a.repo.SetWinningNumber(ctx, session.ID, winningNumber); err != nil {
			return err
		}
	}

	log.Warn().
		Str("session_id", session.ID.String()).
		Msg("resuming interrupted session settlement")
	return a.settleSession(ctx, session.ID, winningNumber)
}

// settledOutcome reports a closed (or lapsed) session's result without
// mutating anything.
func (a *App) settledOutcome(ctx context.Context, session *models.Session, username string) (*PickResult, error) {
	result := &PickResult{Winners: make([]string, 0)}

	if session.WinningNumber != nil {
		result.WinningNumber = session.WinningNumber
		participations, err := a.repo.ListParticipations(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range participations {
			if p.IsWinner {
				result.Winners = append(result.Winners, p.Username)
			}
		}
	}

	participation, err := a.repo.GetParticipation(ctx, session.ID, username)
	if err != nil {
		return nil, err
	}
	if participation != nil {
		result.SelectedNumber = participation.SelectedNumber
		result.IsWinner = participation.IsWinner
	}
	return result, nil
}

// pause waits out the post-close window so clients can render the
// result before the successor is announced. No locks are held here.
func (a *App) pause(ctx context.Context) error {
	if a.cfg.PostClosePause <= 0 {
		return nil
	}
	select {
	case <-a.clock.After(a.cfg.PostClosePause):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) emitCountdown(ctx context.Context, session *models.Session, now time.Time) error {
	payload, err := json.Marshal(events.CountdownUpdatePayload{
		SessionID: session.ID.String(),
		TimeLeft:  session.TimeRemaining(now),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal CountdownUpdate payload: %w", err)
	}
	return a.outbox.InsertCountdownUpdate(ctx, session.ID, payload)
}

func (a *App) emitPlayerJoined(ctx context.Context, sessionID uuid.UUID, username string, count int) error {
	payload, err := json.Marshal(events.PlayerJoinedPayload{
		SessionID:   sessionID.String(),
		Username:    username,
		PlayerCount: count,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal PlayerJoined payload: %w", err)
	}
	return a.outbox.InsertPlayerJoined(ctx, sessionID, payload)
}
