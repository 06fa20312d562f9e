package lazycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCache_FetchesOncePerInvalidation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	cache := New(func(ctx context.Context, key string) ([]string, error) {
		n := calls.Add(1)
		if n == 1 {
			return []string{"a"}, nil
		}
		return []string{"a", "b"}, nil
	})

	if cache.State() != Empty {
		t.Fatalf("expected empty state, got %s", cache.State())
	}

	first, err := cache.Get(context.Background(), "ws1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("unexpected items: %v", first)
	}
	if _, err := cache.Get(context.Background(), "ws1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch while fresh, got %d", got)
	}

	cache.Invalidate()
	if cache.State() != Stale {
		t.Fatalf("expected stale state, got %s", cache.State())
	}

	second, err := cache.Get(context.Background(), "ws1")
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected refetched items, got %v", second)
	}
	if _, err := cache.Get(context.Background(), "ws1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected exactly one refetch after invalidation, got %d fetches", got)
	}
}

func TestCache_KeyChangeRefetches(t *testing.T) {
	t.Parallel()

	keys := make([]string, 0, 2)
	cache := New(func(ctx context.Context, key string) ([]string, error) {
		keys = append(keys, key)
		return []string{key}, nil
	})

	if _, err := cache.Get(context.Background(), "ws1"); err != nil {
		t.Fatalf("get ws1: %v", err)
	}
	items, err := cache.Get(context.Background(), "ws2")
	if err != nil {
		t.Fatalf("get ws2: %v", err)
	}
	if len(keys) != 2 || items[0] != "ws2" {
		t.Fatalf("expected refetch for new key, fetched %v", keys)
	}
}

func TestCache_FetchErrorKeepsState(t *testing.T) {
	t.Parallel()

	cache := New(func(ctx context.Context, key string) ([]int, error) {
		return nil, errors.New("boom")
	})
	if _, err := cache.Get(context.Background(), "ws"); err == nil {
		t.Fatalf("expected fetch error")
	}
	if cache.State() != Empty {
		t.Fatalf("expected state to remain empty, got %s", cache.State())
	}
}

func TestCache_ConcurrentReadersShareOneFetch(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	cache := New(func(ctx context.Context, key string) ([]int, error) {
		calls.Add(1)
		return []int{1, 2, 3}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background(), "ws"); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single fetch, got %d", got)
	}
}
