package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLotGuard_SerializesSameLot(t *testing.T) {
	guard := NewLocalLotGuard(2 * time.Second)
	lotID := uuid.New()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := guard.Acquire(context.Background(), lotID)
			require.NoError(t, err)
			defer release()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "two holders must never overlap on one lot")
}

func TestLocalLotGuard_IndependentLots(t *testing.T) {
	guard := NewLocalLotGuard(100 * time.Millisecond)

	releaseA, err := guard.Acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	defer releaseA()

	// A held lot must not block a different lot
	start := time.Now()
	releaseB, err := guard.Acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	releaseB()
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLocalLotGuard_Timeout(t *testing.T) {
	guard := NewLocalLotGuard(50 * time.Millisecond)
	lotID := uuid.New()

	release, err := guard.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	defer release()

	_, err = guard.Acquire(context.Background(), lotID)

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "LOCK_TIMEOUT", de.Code)
}

func TestLocalLotGuard_ContextCancel(t *testing.T) {
	guard := NewLocalLotGuard(5 * time.Second)
	lotID := uuid.New()

	release, err := guard.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = guard.Acquire(ctx, lotID)

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "LOCK_TIMEOUT", de.Code)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLocalLotGuard_ReleaseIsIdempotent(t *testing.T) {
	guard := NewLocalLotGuard(time.Second)
	lotID := uuid.New()

	release, err := guard.Acquire(context.Background(), lotID)
	require.NoError(t, err)

	release()
	release() // must not free the slot twice

	again, err := guard.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	again()
}

func TestLocalLotGuard_SlotCleanup(t *testing.T) {
	guard := NewLocalLotGuard(time.Second)
	lotID := uuid.New()

	release, err := guard.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	release()

	guard.mu.Lock()
	defer guard.mu.Unlock()
	assert.Empty(t, guard.slots, "released lots must not leak slots")
}
