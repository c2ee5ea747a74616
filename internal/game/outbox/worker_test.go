package outbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu     sync.Mutex
	events []OutboxEvent
}

func (s *memoryStore) add(eventType string) OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := OutboxEvent{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		EventType: eventType,
		Payload:   []byte(fmt.Sprintf(`{"type":%q}`, eventType)),
		CreatedAt: time.Now(),
	}
	s.events = append(s.events, e)
	return e
}

func (s *memoryStore) FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var unsent []OutboxEvent
	for _, e := range s.events {
		if e.SentAt == nil {
			unsent = append(unsent, e)
			if int32(len(unsent)) >= limit {
				break
			}
		}
	}
	return unsent, nil
}

func (s *memoryStore) MarkSent(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, id := range ids {
		for i := range s.events {
			if s.events[i].ID == id {
				s.events[i].SentAt = &now
			}
		}
	}
	return nil
}

func (s *memoryStore) unsentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.events {
		if e.SentAt == nil {
			count++
		}
	}
	return count
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []OutboxEvent
	failOn    map[uuid.UUID]int // remaining failures per event
}

func (p *recordingPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn != nil && p.failOn[event.ID] > 0 {
		p.failOn[event.ID]--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) publishedTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.published))
	for i, e := range p.published {
		types[i] = e.EventType
	}
	return types
}

func testWorker(store Store, pub EventPublisher) *Worker {
	cfg := Config{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    100,
		MaxRetries:   2,
		RetryDelay:   time.Millisecond,
	}
	return NewWorker(store, pub, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProcessOutboxPublishesInOrder(t *testing.T) {
	store := &memoryStore{}
	store.add("SessionStarted")
	store.add("CountdownUpdate")
	store.add("PlayerJoined")
	store.add("SessionEnded")
	pub := &recordingPublisher{}

	worker := testWorker(store, pub)
	worker.ProcessOutbox(context.Background())

	want := []string{"SessionStarted", "CountdownUpdate", "PlayerJoined", "SessionEnded"}
	got := pub.publishedTypes()
	if len(got) != len(want) {
		t.Fatalf("published %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if n := store.unsentCount(); n != 0 {
		t.Errorf("unsent events = %d, want 0", n)
	}
}

func TestProcessOutboxStopsAtFailedEvent(t *testing.T) {
	store := &memoryStore{}
	store.add("SessionStarted")
	poison := store.add("CountdownUpdate")
	store.add("SessionEnded")
	// Fails more times than the retry budget allows.
	pub := &recordingPublisher{failOn: map[uuid.UUID]int{poison.ID: 10}}

	worker := testWorker(store, pub)
	worker.ProcessOutbox(context.Background())

	got := pub.publishedTypes()
	if len(got) != 1 || got[0] != "SessionStarted" {
		t.Fatalf("published = %v, want only the event before the failure", got)
	}
	// Events at and after the failure stay queued for the next pass.
	if n := store.unsentCount(); n != 2 {
		t.Errorf("unsent events = %d, want 2", n)
	}
}

func TestProcessOutboxRetriesTransientFailure(t *testing.T) {
	store := &memoryStore{}
	flaky := store.add("SessionStarted")
	store.add("SessionEnded")
	pub := &recordingPublisher{failOn: map[uuid.UUID]int{flaky.ID: 1}}

	worker := testWorker(store, pub)
	worker.ProcessOutbox(context.Background())

	got := pub.publishedTypes()
	if len(got) != 2 {
		t.Fatalf("published = %v, want both events after retry", got)
	}
	if n := store.unsentCount(); n != 0 {
		t.Errorf("unsent events = %d, want 0", n)
	}
}

func TestWorkerStartStop(t *testing.T) {
	store := &memoryStore{}
	store.add("SessionStarted")
	pub := &recordingPublisher{}
	worker := testWorker(store, pub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := worker.Start(ctx); err == nil {
		t.Error("second Start should fail while running")
	}

	deadline := time.After(2 * time.Second)
	for store.unsentCount() > 0 {
		select {
		case <-deadline:
			t.Fatal("worker never drained the outbox")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := worker.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := worker.Stop(); err == nil {
		t.Error("second Stop should fail when not running")
	}
}
