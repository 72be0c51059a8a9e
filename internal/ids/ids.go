// File path: internal/ids/ids.go

// Package ids allocates globally unique, human-readable sequential
// identifiers per entity type. Allocation rides the store's conditional
// counter write: read, compute, compare-and-swap, retry on a lost race.
package ids

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/store"
)

// ErrExhausted reports that every optimistic attempt lost its race.
var ErrExhausted = errors.New("id allocation retries exhausted")

// Counter prefixes, one per entity type.
const (
	PrefixSME      = "SME"
	PrefixSession  = "SESSION"
	PrefixMessage  = "MSG"
	PrefixSystem   = "SYS"
	PrefixProcess  = "PROC"
	PrefixStage    = "STAGE"
	PrefixGap      = "GAP"
	PrefixConflict = "CONF"
	PrefixTouch    = "TP"
	PrefixQuestion = "Q"
)

// Prefixes lists every allocatable counter prefix; the seed operation
// creates one counter per entry.
var Prefixes = []string{
	PrefixSME, PrefixSession, PrefixMessage, PrefixSystem, PrefixProcess,
	PrefixStage, PrefixGap, PrefixConflict, PrefixTouch, PrefixQuestion,
}

const maxAttempts = 5

// Allocator produces identifiers like SME-001, PROC-014, GAP-103.
type Allocator struct {
	store   *store.Store
	backoff time.Duration
}

// New constructs an Allocator over the given store.
func New(s *store.Store) *Allocator {
	return &Allocator{store: s, backoff: 20 * time.Millisecond}
}

// WithBackoff overrides the base backoff, mainly for tests.
func (a *Allocator) WithBackoff(base time.Duration) *Allocator {
	a.backoff = base
	return a
}

// Next allocates the next identifier for the prefix. An unseeded prefix is
// an error; a lost compare-and-swap retries with linearly increasing backoff
// and eventually fails with ErrExhausted.
func (a *Allocator) Next(ctx context.Context, prefix string) (string, error) {
	if a == nil || a.store == nil {
		return "", errors.New("allocator not initialised")
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		current, err := a.store.Counter(ctx, prefix)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", fmt.Errorf("counter %s not seeded: %w", prefix, err)
			}
			return "", fmt.Errorf("read counter %s: %w", prefix, err)
		}
		next := current + 1
		swapped, err := a.store.CompareAndSwapCounter(ctx, prefix, current, next)
		if err != nil {
			return "", fmt.Errorf("advance counter %s: %w", prefix, err)
		}
		if swapped {
			return fmt.Sprintf("%s-%03d", prefix, next), nil
		}
		common.Logger().Debug("ids: counter race lost, retrying", "prefix", prefix, "attempt", attempt)
		if attempt < maxAttempts {
			select {
			case <-time.After(a.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("allocate id for %s after %d attempts: %w", prefix, maxAttempts, ErrExhausted)
}
