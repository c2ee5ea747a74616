package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type countingEngine struct {
	ticks chan struct{}
	fail  bool
}

func (e *countingEngine) Tick(ctx context.Context) error {
	e.ticks <- struct{}{}
	if e.fail {
		return errors.New("store down")
	}
	return nil
}

func waitTick(t *testing.T, ticks chan struct{}) {
	t.Helper()
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestDriverTicksAtCadence(t *testing.T) {
	engine := &countingEngine{ticks: make(chan struct{})}
	clock := clockwork.NewFakeClock()
	driver := NewDriver(engine, time.Second, WithDriverClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		driver.Run(ctx)
	}()

	// First tick fires immediately, before any advance.
	waitTick(t, engine.ticks)

	for i := 0; i < 3; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
		waitTick(t, engine.ticks)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop on cancel")
	}
}

func TestDriverSurvivesFailingTicks(t *testing.T) {
	engine := &countingEngine{ticks: make(chan struct{}), fail: true}
	clock := clockwork.NewFakeClock()
	driver := NewDriver(engine, time.Second, WithDriverClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go driver.Run(ctx)

	waitTick(t, engine.ticks)
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	// The loop keeps ticking after an error.
	waitTick(t, engine.ticks)
}

func TestDriverDefaultsInterval(t *testing.T) {
	driver := NewDriver(&countingEngine{ticks: make(chan struct{}, 1)}, 0)
	if driver.interval != time.Second {
		t.Errorf("interval = %v, want 1s default", driver.interval)
	}
}
