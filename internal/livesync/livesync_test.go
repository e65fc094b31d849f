package livesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/store"
	"spendlog/internal/store/memory"
)

// failingSource wraps a working source and fails List after a set number
// of successful snapshots.
type failingSource struct {
	inner     Source
	mu        sync.Mutex
	succeed   int
	listCalls int
}

func (f *failingSource) List(ctx context.Context, ownerID string) ([]core.Expense, error) {
	f.mu.Lock()
	f.listCalls++
	calls := f.listCalls
	f.mu.Unlock()
	if calls > f.succeed {
		return nil, errors.New("watch torn down")
	}
	return f.inner.List(ctx, ownerID)
}

func (f *failingSource) Watch(ownerID string) (<-chan struct{}, func()) {
	return f.inner.Watch(ownerID)
}

func waitFor(t *testing.T, ch <-chan []core.Expense) []core.Expense {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a snapshot")
		return nil
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	st.Create(ctx, "u1", core.Expense{Amount: core.Money{Cents: 4250}, Category: "Food & Dining", Date: "2024-01-15", PaymentMethod: "Cash"})

	snaps := make(chan []core.Expense, 4)
	sub := NewController(st).Subscribe("u1", func(e []core.Expense) { snaps <- e }, nil)
	defer sub.Unsubscribe()

	first := waitFor(t, snaps)
	if len(first) != 1 || first[0].Amount.Cents != 4250 {
		t.Fatalf("initial snapshot must contain existing records: %+v", first)
	}
	if state := sub.State(); state != StateActive {
		t.Fatalf("expected active, got %s", state)
	}
}

func TestSubscribeObservesWrites(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	snaps := make(chan []core.Expense, 4)
	sub := NewController(st).Subscribe("u1", func(e []core.Expense) { snaps <- e }, nil)
	defer sub.Unsubscribe()

	if initial := waitFor(t, snaps); len(initial) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d", len(initial))
	}

	id, _ := st.Create(ctx, "u1", core.Expense{Amount: core.Money{Cents: 100}, Category: "Other", Date: "2024-01-15", PaymentMethod: "Cash"})
	next := waitFor(t, snaps)
	if len(next) != 1 || next[0].ID != id {
		t.Fatalf("snapshot must reflect the new record: %+v", next)
	}

	st.Delete(ctx, id)
	if after := waitFor(t, snaps); len(after) != 0 {
		t.Fatalf("snapshot must reflect the delete: %+v", after)
	}
}

func TestSubscribeIgnoresOtherOwners(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	snaps := make(chan []core.Expense, 4)
	sub := NewController(st).Subscribe("u1", func(e []core.Expense) { snaps <- e }, nil)
	defer sub.Unsubscribe()
	waitFor(t, snaps)

	st.Create(ctx, "u2", core.Expense{Amount: core.Money{Cents: 100}, Category: "Other", Date: "2024-01-15", PaymentMethod: "Cash"})
	select {
	case snap := <-snaps:
		t.Fatalf("unexpected snapshot for another owner's write: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoCallbackAfterUnsubscribe(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	var mu sync.Mutex
	closed := false
	calls := 0
	sub := NewController(st).Subscribe("u1", func([]core.Expense) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			t.Errorf("callback fired after Unsubscribe returned")
		}
		calls++
	}, nil)

	time.Sleep(50 * time.Millisecond)
	sub.Unsubscribe()
	mu.Lock()
	closed = true
	mu.Unlock()

	if state := sub.State(); state != StateClosed {
		t.Fatalf("expected closed, got %s", state)
	}

	// Writes after teardown must not reach the callback.
	st.Create(ctx, "u1", core.Expense{Amount: core.Money{Cents: 100}, Category: "Other", Date: "2024-01-15", PaymentMethod: "Cash"})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected only the initial snapshot, got %d calls", calls)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	st := memory.New()
	sub := NewController(st).Subscribe("u1", func([]core.Expense) {}, nil)
	sub.Unsubscribe()
	sub.Unsubscribe()
	if state := sub.State(); state != StateClosed {
		t.Fatalf("expected closed, got %s", state)
	}
}

func TestSubscribeErrorIsTerminal(t *testing.T) {
	inner := memory.New()
	ctx := context.Background()
	src := &failingSource{inner: inner, succeed: 1}

	errs := make(chan error, 4)
	snaps := make(chan []core.Expense, 4)
	sub := NewController(src).Subscribe("u1", func(e []core.Expense) { snaps <- e }, func(err error) { errs <- err })
	defer sub.Unsubscribe()

	waitFor(t, snaps)

	// The next change hits the failure.
	inner.Create(ctx, "u1", core.Expense{Amount: core.Money{Cents: 100}, Category: "Other", Date: "2024-01-15", PaymentMethod: "Cash"})

	select {
	case err := <-errs:
		var se *store.Error
		if !errors.As(err, &se) {
			t.Fatalf("expected a normalized error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for onError")
	}

	if state := sub.State(); state != StateError {
		t.Fatalf("expected error state, got %s", state)
	}

	// No retry: further writes deliver neither snapshots nor errors.
	inner.Create(ctx, "u1", core.Expense{Amount: core.Money{Cents: 200}, Category: "Other", Date: "2024-01-15", PaymentMethod: "Cash"})
	select {
	case <-snaps:
		t.Fatalf("no snapshot expected after a terminal error")
	case err := <-errs:
		t.Fatalf("onError must fire at most once, got %v again", err)
	case <-time.After(50 * time.Millisecond):
	}
}
