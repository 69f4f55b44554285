package lot

import (
	"context"

	"github.com/google/uuid"
)

// Guard serializes mutations per lot. Every write path acquires the lot's
// guard before opening the storage transaction, so transaction ordering,
// balance checks and event publication all happen under one owner.
//
// Acquire blocks up to the implementation's configured wait and returns a
// LOCK_TIMEOUT domain error when the guard cannot be obtained in time.
// The returned release function is idempotent and must always be called.
type Guard interface {
	Acquire(ctx context.Context, lotID uuid.UUID) (release func(), err error)
}
