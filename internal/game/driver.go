package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// TickEngine is the slice of the engine the driver invokes.
type TickEngine interface {
	Tick(ctx context.Context) error
}

// Driver invokes the engine's tick at a fixed cadence. A failed tick is
// logged and retried on the next cadence; nothing on this loop is
// fatal.
type Driver struct {
	engine   TickEngine
	interval time.Duration
	clock    clockwork.Clock
}

// NewDriver creates a driver with the given cadence (default 1s when
// zero).
func NewDriver(engine TickEngine, interval time.Duration, opts ...DriverOption) *Driver {
	if interval <= 0 {
		interval = time.Second
	}
	d := &Driver{
		engine:   engine,
		interval: interval,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithDriverClock replaces the driver's clock.
func WithDriverClock(clock clockwork.Clock) DriverOption {
	return func(d *Driver) { d.clock = clock }
}

// Run loops until ctx is cancelled, ticking the engine once per
// interval.
func (d *Driver) Run(ctx context.Context) error {
	log.Info().Dur("interval", d.interval).Msg("game driver started")

	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.engine.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("game driver shutting down")
				return nil
			}
			log.Error().Err(err).Msg("tick failed, retrying next cadence")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("game driver shutting down")
			return nil
		case <-ticker.Chan():
		}
	}
}
