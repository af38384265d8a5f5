package backend

import (
	"errors"
	"sync"
	"testing"
)

func TestHandleCacheResolve(t *testing.T) {
	cache := NewHandleCache[int]()
	calls := 0

	h, err := cache.Resolve(7, func(id WindowID) (int, error) {
		calls++
		return int(id) * 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 70 {
		t.Fatalf("expected handle 70, got %d", h)
	}

	// Second resolve hits the cache.
	_, _ = cache.Resolve(7, func(id WindowID) (int, error) {
		calls++
		return 0, nil
	})
	if calls != 1 {
		t.Fatalf("expected 1 resolver call, got %d", calls)
	}
}

func TestHandleCacheResolveError(t *testing.T) {
	cache := NewHandleCache[int]()
	wantErr := errors.New("boom")

	_, err := cache.Resolve(1, func(WindowID) (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected resolver error, got %v", err)
	}
	if _, ok := cache.Get(1); ok {
		t.Fatal("failed resolve must not cache a handle")
	}
}

func TestHandleCacheInvalidate(t *testing.T) {
	cache := NewHandleCache[string]()
	cache.Put(3, "handle")

	cache.Invalidate(3)
	if _, ok := cache.Get(3); ok {
		t.Fatal("expected handle to be gone after invalidation")
	}
}

func TestHandleCacheConcurrent(t *testing.T) {
	cache := NewHandleCache[int]()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := WindowID(j % 8)
				cache.Put(id, n)
				cache.Get(id)
				if j%10 == 0 {
					cache.Invalidate(id)
				}
			}
		}(i)
	}
	wg.Wait()
}
