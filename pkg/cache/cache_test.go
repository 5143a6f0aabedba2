package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newClockedCache[V any](ttl time.Duration) (*Cache[V], *time.Time) {
	c := New[V](ttl)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetAfterSetWithinTTL(t *testing.T) {
	c, now := newClockedCache[[]string](time.Hour)

	c.Set("all_products", []string{"milk", "bread"})
	*now = now.Add(59 * time.Minute)

	got, ok := c.Get("all_products")
	if !ok {
		t.Fatal("expected hit within TTL")
	}
	if len(got) != 2 || got[0] != "milk" {
		t.Fatalf("unexpected cached value %v", got)
	}
}

func TestGetAfterTTLExpires(t *testing.T) {
	c, now := newClockedCache[string](time.Hour)

	c.Set("k", "v")
	*now = now.Add(time.Hour)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss once the TTL elapsed")
	}
}

func TestGetNeverSet(t *testing.T) {
	c := New[string](time.Hour)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for a key that was never set")
	}
}

func TestSetResetsExpiryClock(t *testing.T) {
	c, now := newClockedCache[string](time.Hour)

	c.Set("k", "old")
	*now = now.Add(45 * time.Minute)
	c.Set("k", "new")
	*now = now.Add(45 * time.Minute)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected overwrite to reset the expiry clock")
	}
	if got != "new" {
		t.Fatalf("expected overwritten value, got %q", got)
	}
}

func TestDoCachesFillResult(t *testing.T) {
	c := New[int](time.Hour)
	calls := 0

	fill := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.Do(context.Background(), "k", fill)
		if err != nil {
			t.Fatalf("Do failed: %v", err)
		}
		if got != 42 {
			t.Fatalf("unexpected value %d", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single fill call, got %d", calls)
	}
}

func TestDoPropagatesFillError(t *testing.T) {
	c := New[int](time.Hour)
	boom := errors.New("boom")

	if _, err := c.Do(context.Background(), "k", func(context.Context) (int, error) {
		return 0, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fill error, got %v", err)
	}

	// A failed fill must not poison the key.
	got, err := c.Do(context.Background(), "k", func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("Do after failure: %v", err)
	}
	if got != 7 {
		t.Fatalf("unexpected value %d", got)
	}
}

func TestDoCollapsesConcurrentMisses(t *testing.T) {
	c := New[int](time.Hour)
	var fills atomic.Int32
	release := make(chan struct{})

	fill := func(context.Context) (int, error) {
		fills.Add(1)
		<-release
		return 9, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Do(context.Background(), "k", fill)
			if err != nil {
				t.Errorf("Do failed: %v", err)
				return
			}
			if got != 9 {
				t.Errorf("unexpected value %d", got)
			}
		}()
	}

	// Give the goroutines time to pile onto the flight before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := fills.Load(); n != 1 {
		t.Fatalf("expected one collapsed fill, got %d", n)
	}
}
