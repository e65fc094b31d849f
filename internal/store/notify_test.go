package store

import (
	"testing"
	"time"
)

func TestNotifierDeliversToOwnerWatchers(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Watch("u1")
	defer cancel()

	n.Notify("u1")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("expected a signal")
	}

	// Other owners are not signalled.
	n.Notify("u2")
	select {
	case <-ch:
		t.Fatalf("unexpected signal for another owner")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestNotifierCoalesces(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Watch("u1")
	defer cancel()

	n.Notify("u1")
	n.Notify("u1")
	n.Notify("u1")

	<-ch
	select {
	case <-ch:
		t.Fatalf("signals must coalesce into one pending entry")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestNotifierCancelClosesChannel(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Watch("u1")

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}

	// Cancel twice and notify after cancel must not panic.
	cancel()
	n.Notify("u1")
}

func TestNotifierIndependentWatchers(t *testing.T) {
	n := NewNotifier()
	ch1, cancel1 := n.Watch("u1")
	ch2, cancel2 := n.Watch("u1")
	defer cancel2()

	cancel1()
	n.Notify("u1")

	select {
	case <-ch2:
	case <-time.After(time.Second):
		t.Fatalf("surviving watcher expected a signal")
	}
	if _, ok := <-ch1; ok {
		t.Fatalf("cancelled watcher channel must be closed")
	}
}
