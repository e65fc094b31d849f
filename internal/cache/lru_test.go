package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("empty cache must miss")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected hit with 1, got %d, %v", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("overwrite must win, got %d", v)
	}
	if c.Size() != 1 {
		t.Fatalf("overwrite must not grow the cache, size %d", c.Size())
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a, making b the oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("recently used a must survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("newest entry c must survive")
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[string](4, time.Minute)
	c.Set("a", "x")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("deleted entry must miss")
	}
	c.Delete("a") // repeated delete is fine
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](4, 10*time.Millisecond)
	c.Set("a", 1)

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry must miss")
	}
}

func TestLRUCleanExpired(t *testing.T) {
	c := NewLRU[int](8, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(30 * time.Millisecond)
	c.Set("c", 3)

	if dropped := c.CleanExpired(); dropped != 2 {
		t.Fatalf("expected 2 dropped, got %d", dropped)
	}
	if c.Size() != 1 {
		t.Fatalf("expected 1 survivor, size %d", c.Size())
	}
}
