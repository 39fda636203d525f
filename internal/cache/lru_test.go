package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "x")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("fresh entry missing: %q %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry returned")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if c.Size() != 1 {
		t.Fatalf("size limit not clamped to 1: %d", c.Size())
	}

	c = NewLRUCache[int](5, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted key returned")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size after purge = %d", c.Size())
	}
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatal("cache unusable after purge")
	}
}

func TestSetIfGeneration(t *testing.T) {
	c := NewLRUCache[string](5, time.Minute)

	gen := c.Generation()
	if !c.SetIfGeneration("a", "v1", gen) {
		t.Fatal("set with current generation refused")
	}

	stale := c.Generation()
	c.Delete("a")
	if c.SetIfGeneration("a", "old", stale) {
		t.Fatal("set after delete accepted")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted value resurrected")
	}

	stale = c.Generation()
	c.Purge()
	if c.SetIfGeneration("b", "old", stale) {
		t.Fatal("set after purge accepted")
	}

	c.Set("c", "plain")
	if !c.SetIfGeneration("c", "new", c.Generation()) {
		t.Fatal("plain Set should not invalidate generation")
	}
	if v, _ := c.Get("c"); v != "new" {
		t.Fatalf("c = %q", v)
	}
}

func TestManagerSweeps(t *testing.T) {
	c := NewLRUCache[int](5, time.Nanosecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(context.Background(), time.Millisecond)
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for c.Size() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("manager did not sweep expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager().Stop()
}
