package assignment

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// memoryRotator mirrors the Redis list semantics for tests: rotate is
// serialized by a mutex, matching the server-side atomicity of
// RPOPLPUSH.
type memoryRotator struct {
	mu     sync.Mutex
	queues map[string][]string
}

func newMemoryRotator() *memoryRotator {
	return &memoryRotator{queues: make(map[string][]string)}
}

func (m *memoryRotator) Rotate(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queues[key]
	if len(q) == 0 {
		return "", nil
	}
	head := q[0]
	m.queues[key] = append(q[1:], head)
	return head, nil
}

func (m *memoryRotator) Replace(ctx context.Context, key string, members []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(members) == 0 {
		delete(m.queues, key)
		return nil
	}
	m.queues[key] = append([]string(nil), members...)
	return nil
}

type staticMembers struct {
	ids []uuid.UUID
}

func (s *staticMembers) ListMemberIDs(inboxID uuid.UUID) ([]uuid.UUID, error) {
	return s.ids, nil
}

func newAgentIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestNextAgentCyclesPoolExactlyOncePerRound(t *testing.T) {
	agents := newAgentIDs(4)
	svc := NewService(newMemoryRotator(), &staticMembers{ids: agents})
	inboxID := uuid.New()
	ctx := context.Background()

	seen := make(map[uuid.UUID]int)
	for i := 0; i < len(agents); i++ {
		id, err := svc.NextAgent(ctx, inboxID)
		if err != nil {
			t.Fatalf("NextAgent: %v", err)
		}
		seen[id]++
	}

	for _, agent := range agents {
		if seen[agent] != 1 {
			t.Errorf("agent %s assigned %d times in one cycle, want 1", agent, seen[agent])
		}
	}

	// Call N+1 wraps around to the first agent
	id, err := svc.NextAgent(ctx, inboxID)
	if err != nil {
		t.Fatalf("NextAgent: %v", err)
	}
	if id != agents[0] {
		t.Errorf("call N+1 returned %s, want first agent %s", id, agents[0])
	}
}

func TestNextAgentEmptyPoolYieldsNilWithoutError(t *testing.T) {
	svc := NewService(newMemoryRotator(), &staticMembers{})

	id, err := svc.NextAgent(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("NextAgent: %v", err)
	}
	if id != uuid.Nil {
		t.Errorf("empty pool returned %s, want uuid.Nil", id)
	}
}

func TestNextAgentRebuildsMissingQueueFromMembers(t *testing.T) {
	agents := newAgentIDs(2)
	rot := newMemoryRotator()
	svc := NewService(rot, &staticMembers{ids: agents})
	inboxID := uuid.New()

	// No ResetQueue was ever called: the first NextAgent must lazily
	// seed the queue from the member pool.
	id, err := svc.NextAgent(context.Background(), inboxID)
	if err != nil {
		t.Fatalf("NextAgent: %v", err)
	}
	if id != agents[0] {
		t.Errorf("first assignment = %s, want %s", id, agents[0])
	}
}

func TestNextAgentConcurrentCallersGetDistinctAgents(t *testing.T) {
	const n = 8
	agents := newAgentIDs(n)
	svc := NewService(newMemoryRotator(), &staticMembers{ids: agents})
	inboxID := uuid.New()

	var wg sync.WaitGroup
	results := make(chan uuid.UUID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.NextAgent(context.Background(), inboxID)
			if err != nil {
				t.Errorf("NextAgent: %v", err)
				return
			}
			results <- id
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uuid.UUID]bool)
	for id := range results {
		if seen[id] {
			t.Errorf("agent %s returned to two concurrent callers in one cycle", id)
		}
		seen[id] = true
	}
}

func TestResetQueueRestartsRotation(t *testing.T) {
	agents := newAgentIDs(3)
	members := &staticMembers{ids: agents}
	svc := NewService(newMemoryRotator(), members)
	inboxID := uuid.New()
	ctx := context.Background()

	if _, err := svc.NextAgent(ctx, inboxID); err != nil {
		t.Fatalf("NextAgent: %v", err)
	}

	// Membership changes: pool shrinks to the last agent only
	members.ids = agents[2:]
	if err := svc.ResetQueue(ctx, inboxID); err != nil {
		t.Fatalf("ResetQueue: %v", err)
	}

	for i := 0; i < 2; i++ {
		id, err := svc.NextAgent(ctx, inboxID)
		if err != nil {
			t.Fatalf("NextAgent: %v", err)
		}
		if id != agents[2] {
			t.Errorf("after reset got %s, want %s", id, agents[2])
		}
	}
}
