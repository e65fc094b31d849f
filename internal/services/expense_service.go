// Package services wires the expense core together: validation in front,
// the document store behind, aggregation and live sync on top. It is the
// only surface callers (HTTP glue, CLIs) talk to.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"spendlog/internal/cache"
	"spendlog/internal/core"
	"spendlog/internal/events"
	"spendlog/internal/livesync"
	"spendlog/internal/store"
)

// ExpenseService exposes the owner-scoped expense operations. Every write
// validates first, persists second and only then fans out side effects
// (cache invalidation, change events), so a failed validation never reaches
// the store and a failed event never fails the write.
type ExpenseService struct {
	store  store.Store
	events *events.Client
	sync   *livesync.Controller
	stats  *cache.LRU[core.ExpenseStats]
	group  singleflight.Group
	now    func() time.Time
}

// NewExpenseService builds the service. events and statsCache may be nil:
// without a broker writes simply skip publishing, without a cache every
// stats call recomputes.
func NewExpenseService(st store.Store, ev *events.Client, statsCache *cache.LRU[core.ExpenseStats]) *ExpenseService {
	return &ExpenseService{
		store:  st,
		events: ev,
		sync:   livesync.NewController(st),
		stats:  statsCache,
		now:    time.Now,
	}
}

// SetClock overrides the time source used for validation and stats.
// Intended for tests.
func (s *ExpenseService) SetClock(now func() time.Time) {
	s.now = now
}

// AddExpense validates the form and persists a new expense for the owner,
// returning the store-assigned id.
func (s *ExpenseService) AddExpense(ctx context.Context, ownerID string, form core.ExpenseForm) (string, error) {
	e, err := core.ValidateForm(form, s.now())
	if err != nil {
		return "", err
	}

	id, err := s.store.Create(ctx, ownerID, e)
	if err != nil {
		return "", store.Normalize(err)
	}

	s.invalidateStats(ownerID)
	s.publish(ctx, id, ownerID, events.ActionCreated)
	return id, nil
}

// UpdateExpense validates the form and rewrites the expense's mutable
// fields. Ownership of the record is enforced by the store deployment, not
// here; the owner argument scopes side effects only.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id, ownerID string, form core.ExpenseForm) error {
	e, err := core.ValidateForm(form, s.now())
	if err != nil {
		return err
	}

	if err := s.store.Update(ctx, id, ownerID, e); err != nil {
		return store.Normalize(err)
	}

	s.invalidateStats(ownerID)
	s.publish(ctx, id, ownerID, events.ActionUpdated)
	return nil
}

// DeleteExpense removes an expense. Deleting an id that is already gone is
// success.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	// The owner is needed for cache invalidation and the change event, and
	// is unknowable after the delete. A vanished record means nothing to do.
	ownerID := ""
	if e, err := s.store.Get(ctx, id); err == nil {
		ownerID = e.UserID
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return store.Normalize(err)
	}

	if ownerID != "" {
		s.invalidateStats(ownerID)
		s.publish(ctx, id, ownerID, events.ActionDeleted)
	}
	return nil
}

// Expenses returns the owner's full expense list, newest first.
func (s *ExpenseService) Expenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	list, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, store.Normalize(err)
	}
	return list, nil
}

// ExpensesPage returns one page of the owner's list plus the continuation
// cursor, empty when the end is reached.
func (s *ExpenseService) ExpensesPage(ctx context.Context, ownerID string, pageSize int, cursor string) ([]core.Expense, string, error) {
	page, next, err := s.store.ListPage(ctx, ownerID, pageSize, cursor)
	if err != nil {
		return nil, "", store.Normalize(err)
	}
	return page, next, nil
}

// ExpensesByDateRange returns expenses with date in [start, end], inclusive.
func (s *ExpenseService) ExpensesByDateRange(ctx context.Context, ownerID, start, end string) ([]core.Expense, error) {
	list, err := s.store.ListByDateRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, store.Normalize(err)
	}
	return list, nil
}

// ExpensesByCategory returns expenses matching the category exactly.
func (s *ExpenseService) ExpensesByCategory(ctx context.Context, ownerID, category string) ([]core.Expense, error) {
	list, err := s.store.ListByCategory(ctx, ownerID, category)
	if err != nil {
		return nil, store.Normalize(err)
	}
	return list, nil
}

// Stats computes the owner's summary statistics from a fresh list snapshot.
// Results are cached per owner and concurrent recomputations coalesce.
func (s *ExpenseService) Stats(ctx context.Context, ownerID string) (core.ExpenseStats, error) {
	if s.stats != nil {
		if cached, ok := s.stats.Get(ownerID); ok {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(ownerID, func() (any, error) {
		list, err := s.store.List(ctx, ownerID)
		if err != nil {
			return core.ExpenseStats{}, err
		}
		stats := core.ComputeStats(list, s.now())
		if s.stats != nil {
			s.stats.Set(ownerID, stats)
		}
		return stats, nil
	})
	if err != nil {
		return core.ExpenseStats{}, store.Normalize(err)
	}
	return v.(core.ExpenseStats), nil
}

// Subscribe opens a live view on the owner's expense set. onUpdate receives
// full snapshots; the returned func tears the subscription down and
// guarantees no callback after it returns.
func (s *ExpenseService) Subscribe(ownerID string, onUpdate func([]core.Expense), onError func(error)) func() {
	sub := s.sync.Subscribe(ownerID, onUpdate, onError)
	return sub.Unsubscribe
}

// Close releases the store and broker connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if err := s.events.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}

func (s *ExpenseService) invalidateStats(ownerID string) {
	if s.stats != nil {
		s.stats.Delete(ownerID)
	}
}

func (s *ExpenseService) publish(ctx context.Context, id, ownerID string, action events.Action) {
	if err := s.events.Publish(ctx, events.NewExpenseEvent(id, ownerID, action)); err != nil {
		// The write already succeeded; a lost event only delays the mirror.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"id", id,
			"owner", ownerID,
			"action", action,
			"error", err)
	}
}
