package eventing

import (
	"context"
	"testing"
	"time"

	"rentledger/internal/eventing/eventbus"
)

type testEvent struct {
	PropertyID string    `json:"property_id"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

type memoryOutbox struct {
	pending []OutboxRecord
	sent    []string
	failed  []string
}

func (m *memoryOutbox) ListPending(_ context.Context, limit int) ([]OutboxRecord, error) {
	if limit > len(m.pending) {
		limit = len(m.pending)
	}
	return m.pending[:limit], nil
}

func (m *memoryOutbox) MarkSent(_ context.Context, id string) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *memoryOutbox) MarkFailed(_ context.Context, id string) error {
	m.failed = append(m.failed, id)
	return nil
}

type memoryDLQ struct {
	failures []Envelope
}

func (m *memoryDLQ) RecordFailure(_ context.Context, env Envelope, _ error) error {
	m.failures = append(m.failures, env)
	return nil
}

func TestDispatcherDeliversRegisteredEvent(t *testing.T) {
	registry := NewRegistry()
	registry.Register(testEvent{})

	env, err := BuildEnvelope(testEvent{PropertyID: "prop-1", Amount: 250}, Meta{OrgID: "org-1"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if env.PropertyID != "prop-1" {
		t.Fatalf("expected property id extracted, got %q", env.PropertyID)
	}

	outbox := &memoryOutbox{pending: []OutboxRecord{{ID: "ob-1", Envelope: env}}}
	dlq := &memoryDLQ{}
	bus := eventbus.NewInMemoryBus()

	var received testEvent
	bus.Subscribe(eventbus.EventTypeOf[testEvent](), func(ctx context.Context, event any) error {
		evt, ok := event.(testEvent)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		received = evt
		return nil
	})

	dispatcher := NewDispatcher(bus, outbox, registry, dlq)
	if err := dispatcher.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if received.PropertyID != "prop-1" || received.Amount != 250 {
		t.Fatalf("unexpected event delivered: %+v", received)
	}
	if len(outbox.sent) != 1 || outbox.sent[0] != "ob-1" {
		t.Fatalf("expected record marked sent, got %+v", outbox.sent)
	}
	if len(dlq.failures) != 0 {
		t.Fatalf("expected no DLQ failures, got %d", len(dlq.failures))
	}
}

func TestDispatcherUnknownEventGoesToDLQ(t *testing.T) {
	registry := NewRegistry()

	env, err := BuildEnvelope(testEvent{PropertyID: "prop-1"}, Meta{OrgID: "org-1"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	outbox := &memoryOutbox{pending: []OutboxRecord{{ID: "ob-1", Envelope: env}}}
	dlq := &memoryDLQ{}

	dispatcher := NewDispatcher(eventbus.NewInMemoryBus(), outbox, registry, dlq)
	if err := dispatcher.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(outbox.failed) != 1 {
		t.Fatalf("expected record marked failed, got %+v", outbox.failed)
	}
	if len(dlq.failures) != 1 {
		t.Fatalf("expected DLQ failure, got %d", len(dlq.failures))
	}
}

type memoryProcessed struct {
	seen map[string]bool
}

func (m *memoryProcessed) HasProcessed(_ context.Context, eventID, consumer string) (bool, error) {
	return m.seen[eventID+"|"+consumer], nil
}

func (m *memoryProcessed) MarkProcessed(_ context.Context, eventID, consumer string) error {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	m.seen[eventID+"|"+consumer] = true
	return nil
}

func TestSubscribeIdempotency(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	store := &memoryProcessed{}

	calls := 0
	Subscribe(bus, eventbus.EventTypeOf[testEvent](), "billing.test", func(ctx context.Context, event any) error {
		calls++
		return nil
	}, store)

	env, err := BuildEnvelope(testEvent{PropertyID: "prop-1"}, Meta{OrgID: "org-1"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	ctx := WithEnvelope(context.Background(), env)

	if err := bus.Publish(ctx, testEvent{PropertyID: "prop-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(ctx, testEvent{PropertyID: "prop-1"}); err != nil {
		t.Fatalf("republish: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected handler invoked once, got %d", calls)
	}
}

func TestRegistryDecodeRoundtrip(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&testEvent{})

	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	env, err := BuildEnvelope(testEvent{PropertyID: "prop-2", Amount: 99.5, OccurredAt: occurred}, Meta{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if !env.OccurredAt.Equal(occurred) {
		t.Fatalf("expected occurred_at from event, got %v", env.OccurredAt)
	}

	decoded, err := registry.DecodePayload(env)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	evt, ok := decoded.(testEvent)
	if !ok {
		t.Fatalf("expected testEvent, got %T", decoded)
	}
	if evt.Amount != 99.5 {
		t.Fatalf("unexpected amount %v", evt.Amount)
	}
	if _, err := registry.DecodePayload(Envelope{EventType: "missing.Type"}); err == nil {
		t.Fatal("expected unknown event type error")
	}
}
