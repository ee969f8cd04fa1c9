package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"atendo/pkg/models"
)

func TestDispatchRunsSubscribersInRegistrationOrder(t *testing.T) {
	d := NewDispatcher()

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		d.Subscribe(ConversationCreated, func(ctx context.Context, ev Event) error {
			order = append(order, i)
			return nil
		})
	}

	d.Dispatch(context.Background(), Event{Topic: ConversationCreated})

	if len(order) != 3 {
		t.Fatalf("expected 3 subscriber invocations, got %d", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Errorf("subscriber %d ran at position %d", got, i)
		}
	}
}

func TestDispatchIsolatesFailingSubscribers(t *testing.T) {
	d := NewDispatcher()

	var ran []string
	d.Subscribe(ConversationResolved, func(ctx context.Context, ev Event) error {
		ran = append(ran, "failing")
		return errors.New("boom")
	})
	d.Subscribe(ConversationResolved, func(ctx context.Context, ev Event) error {
		ran = append(ran, "panicking")
		panic("boom")
	})
	d.Subscribe(ConversationResolved, func(ctx context.Context, ev Event) error {
		ran = append(ran, "healthy")
		return nil
	})

	d.Dispatch(context.Background(), Event{Topic: ConversationResolved})

	if len(ran) != 3 || ran[2] != "healthy" {
		t.Errorf("later subscribers did not run after failures, got %v", ran)
	}
}

func TestDispatchPassesExplicitTimestampAndPayload(t *testing.T) {
	d := NewDispatcher()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	conv := &models.Conversation{DisplayID: 7}

	var got Event
	d.Subscribe(AssigneeChanged, func(ctx context.Context, ev Event) error {
		got = ev
		return nil
	})

	d.Dispatch(context.Background(), Event{Topic: AssigneeChanged, Timestamp: ts, Conversation: conv})

	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
	if got.Conversation != conv {
		t.Errorf("payload reference was not propagated")
	}
}

func TestDispatchOnlyReachesMatchingTopic(t *testing.T) {
	d := NewDispatcher()

	var created, resolved int
	d.Subscribe(ConversationCreated, func(ctx context.Context, ev Event) error {
		created++
		return nil
	})
	d.Subscribe(ConversationResolved, func(ctx context.Context, ev Event) error {
		resolved++
		return nil
	})

	d.Dispatch(context.Background(), Event{Topic: ConversationCreated})

	if created != 1 || resolved != 0 {
		t.Errorf("created=%d resolved=%d, want 1 and 0", created, resolved)
	}
}
