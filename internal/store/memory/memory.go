// Package memory is the in-memory Store implementation. It is the default
// backend for local development and the double the test suites run against.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/store"
)

// Store keeps expense records in a map guarded by a mutex. Identifiers are
// monotonically increasing integers rendered as strings, and timestamps come
// from an injectable clock so ordering tests stay deterministic.
type Store struct {
	mu       sync.Mutex
	items    map[string]core.Expense
	nextID   int64
	notifier *store.Notifier
	clock    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		items:    make(map[string]core.Expense),
		nextID:   1,
		notifier: store.NewNotifier(),
		clock:    time.Now,
	}
}

// SetClock overrides the timestamp source. Intended for tests.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *Store) Create(_ context.Context, ownerID string, e core.Expense) (string, error) {
	s.mu.Lock()
	now := s.clock()
	id := strconv.FormatInt(s.nextID, 10)
	s.nextID++
	e.ID = id
	e.UserID = ownerID
	e.CreatedAt = now
	e.UpdatedAt = now
	s.items[id] = e
	s.mu.Unlock()

	s.notifier.Notify(ownerID)
	return id, nil
}

func (s *Store) Update(_ context.Context, id, ownerID string, e core.Expense) error {
	s.mu.Lock()
	existing, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	existing.Amount = e.Amount
	existing.Category = e.Category
	existing.Date = e.Date
	existing.Description = e.Description
	existing.PaymentMethod = e.PaymentMethod
	existing.UpdatedAt = s.clock()
	s.items[id] = existing
	s.mu.Unlock()

	s.notifier.Notify(ownerID)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	existing, ok := s.items[id]
	if ok {
		delete(s.items, id)
	}
	s.mu.Unlock()

	if ok {
		s.notifier.Notify(existing.UserID)
	}
	// Missing id is indistinguishable from success for the caller.
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) List(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ownerID, func(core.Expense) bool { return true }), nil
}

func (s *Store) ListPage(_ context.Context, ownerID string, pageSize int, cursor string) ([]core.Expense, string, error) {
	if pageSize < 1 {
		return nil, "", store.NewError(store.FailedPrecondition)
	}

	var cur store.Cursor
	hasCursor := cursor != ""
	if hasCursor {
		var err error
		cur, err = store.DecodeCursor(cursor)
		if err != nil {
			return nil, "", store.NewError(store.FailedPrecondition)
		}
	}

	s.mu.Lock()
	all := s.listLocked(ownerID, func(e core.Expense) bool {
		return !hasCursor || cur.After(e)
	})
	s.mu.Unlock()

	if len(all) <= pageSize {
		return all, "", nil
	}
	page := all[:pageSize]
	return page, store.EncodeCursor(page[len(page)-1]), nil
}

func (s *Store) ListByDateRange(_ context.Context, ownerID, start, end string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ownerID, func(e core.Expense) bool {
		return e.Date >= start && e.Date <= end
	}), nil
}

func (s *Store) ListByCategory(_ context.Context, ownerID, category string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ownerID, func(e core.Expense) bool {
		return e.Category == category
	}), nil
}

func (s *Store) Watch(ownerID string) (<-chan struct{}, func()) {
	return s.notifier.Watch(ownerID)
}

func (s *Store) Close() error {
	return nil
}

// listLocked materializes the owner's records matching keep, newest first.
// Callers must hold s.mu.
func (s *Store) listLocked(ownerID string, keep func(core.Expense) bool) []core.Expense {
	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if e.UserID == ownerID && keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return store.LessID(b.ID, a.ID)
	})
	return out
}
