// Package livesync keeps callers synchronized with an owner's expense set.
//
// A subscription is a standing watch that delivers full, freshly-sorted list
// snapshots, never deltas. Delivery and teardown are serialized through the
// subscription mutex, which is what makes the central guarantee hold: once
// Unsubscribe returns, no callback runs.
package livesync

import (
	"context"
	"log/slog"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/store"
)

// Source is the slice of the store port a subscription needs.
type Source interface {
	List(ctx context.Context, ownerID string) ([]core.Expense, error)
	Watch(ownerID string) (<-chan struct{}, func())
}

// State of a subscription. Transitions: Idle → Subscribing → Active →
// (Error | Closed). Error is terminal; retrying is the caller's decision.
type State int32

const (
	StateIdle State = iota
	StateSubscribing
	StateActive
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Controller creates subscriptions against one source. Subscriptions for
// different owners are independent and torn down independently.
type Controller struct {
	src Source
}

// NewController wires a controller to its snapshot source.
func NewController(src Source) *Controller {
	return &Controller{src: src}
}

// Subscription is a standing watch on one owner's expense set.
type Subscription struct {
	mu      sync.Mutex
	state   State
	cancel  func()
	ownerID string
}

// Subscribe starts a watch for the owner. onUpdate receives the initial
// snapshot and then one snapshot per observed change batch. onError, when
// non-nil, is invoked at most once if the watch fails; the subscription then
// stops without retrying. The returned subscription must be closed with
// Unsubscribe.
func (c *Controller) Subscribe(ownerID string, onUpdate func([]core.Expense), onError func(error)) *Subscription {
	sub := &Subscription{state: StateSubscribing, ownerID: ownerID}
	ch, cancel := c.src.Watch(ownerID)
	sub.cancel = cancel

	go sub.run(c.src, ch, onUpdate, onError)
	return sub
}

func (s *Subscription) run(src Source, ch <-chan struct{}, onUpdate func([]core.Expense), onError func(error)) {
	if !s.deliver(src, onUpdate, onError) {
		return
	}
	for range ch {
		if !s.deliver(src, onUpdate, onError) {
			return
		}
	}
}

// deliver reads a snapshot and pushes it to the callback, all under the
// subscription mutex. Returns false when the subscription should stop.
func (s *Subscription) deliver(src Source, onUpdate func([]core.Expense), onError func(error)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return false
	}

	expenses, err := src.List(context.Background(), s.ownerID)
	if err != nil {
		s.state = StateError
		s.cancel()
		slog.Error("Expense subscription failed", "owner", s.ownerID, "error", err)
		if onError != nil {
			onError(store.Normalize(err))
		}
		return false
	}

	s.state = StateActive
	onUpdate(expenses)
	return true
}

// Unsubscribe detaches the watch. It blocks until any in-flight delivery has
// finished, so no callback fires after it returns. Safe to call repeatedly.
// Must not be called from inside the subscription's own callbacks.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.cancel()
}

// State reports the subscription's current lifecycle state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
