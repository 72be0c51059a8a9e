// File path: internal/ids/ids_test.go
package ids

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mapline/guestjourney/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNextReturnsZeroPaddedSequence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.SeedCounter(ctx, PrefixSME); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	alloc := New(s)
	for i, want := range []string{"SME-001", "SME-002", "SME-003"} {
		got, err := alloc.Next(ctx, PrefixSME)
		if err != nil {
			t.Fatalf("allocation %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("allocation %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestNextFailsForUnseededPrefix(t *testing.T) {
	ctx := context.Background()
	alloc := New(newTestStore(t))

	_, err := alloc.Next(ctx, PrefixGap)
	if err == nil {
		t.Fatalf("expected error for unseeded prefix")
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNextUniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.SeedCounter(ctx, PrefixMessage); err != nil {
		t.Fatalf("seed counter: %v", err)
	}
	alloc := New(s)

	const workers = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := alloc.Next(ctx, PrefixMessage)
			if err != nil {
				t.Errorf("concurrent allocation: %v", err)
				return
			}
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != workers {
		t.Fatalf("expected %d distinct ids, got %d", workers, len(ids))
	}
	value, err := s.Counter(ctx, PrefixMessage)
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if value != workers {
		t.Fatalf("expected counter at %d, got %d", workers, value)
	}
}
