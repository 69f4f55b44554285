// Package lock provides the per-lot mutation guards. Single-instance
// deployments use the in-process guard; multi-instance deployments use
// the Redis lease guard so lots are serialized across the fleet.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LocalLotGuard serializes lot mutations within one process using a
// channel-based slot per lot. Slots are reference counted and removed
// when the last waiter releases, so the map does not grow unbounded.
type LocalLotGuard struct {
	mu      sync.Mutex
	slots   map[uuid.UUID]*guardSlot
	maxWait time.Duration
}

type guardSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLotGuard creates an in-process guard with the given acquisition wait
func NewLocalLotGuard(maxWait time.Duration) *LocalLotGuard {
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}
	return &LocalLotGuard{
		slots:   make(map[uuid.UUID]*guardSlot),
		maxWait: maxWait,
	}
}

// Acquire blocks until the lot's slot is free, the wait elapses, or ctx is done
func (g *LocalLotGuard) Acquire(ctx context.Context, lotID uuid.UUID) (func(), error) {
	g.mu.Lock()
	slot, ok := g.slots[lotID]
	if !ok {
		slot = &guardSlot{ch: make(chan struct{}, 1)}
		g.slots[lotID] = slot
	}
	slot.refs++
	g.mu.Unlock()

	timer := time.NewTimer(g.maxWait)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-slot.ch
				g.unref(lotID, slot)
			})
		}
		return release, nil
	case <-timer.C:
		g.unref(lotID, slot)
		return nil, shared.NewDomainError("LOCK_TIMEOUT", "Timed out waiting for lot "+lotID.String())
	case <-ctx.Done():
		g.unref(lotID, slot)
		return nil, shared.NewDomainError("LOCK_TIMEOUT", "Cancelled while waiting for lot "+lotID.String())
	}
}

func (g *LocalLotGuard) unref(lotID uuid.UUID, slot *guardSlot) {
	g.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(g.slots, lotID)
	}
	g.mu.Unlock()
}

// Ensure LocalLotGuard implements lot.Guard
var _ lot.Guard = (*LocalLotGuard)(nil)
