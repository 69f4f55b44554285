package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only when it is still owned by the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLotGuard serializes lot mutations across instances with a Redis
// lease per lot. Acquisition is a SETNX with TTL, retried on an interval
// until the configured wait elapses. The TTL bounds how long a crashed
// holder can block a lot.
type RedisLotGuard struct {
	client       *redis.Client
	keyPrefix    string
	leaseTTL     time.Duration
	maxWait      time.Duration
	pollInterval time.Duration
}

// RedisGuardConfig holds the lease guard tuning knobs
type RedisGuardConfig struct {
	KeyPrefix    string
	LeaseTTL     time.Duration
	MaxWait      time.Duration
	PollInterval time.Duration
}

// NewRedisLotGuard creates a Redis lease guard with an existing client
func NewRedisLotGuard(client *redis.Client, cfg RedisGuardConfig) *RedisLotGuard {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "lot:guard:"
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 30 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 5 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	return &RedisLotGuard{
		client:       client,
		keyPrefix:    cfg.KeyPrefix,
		leaseTTL:     cfg.LeaseTTL,
		maxWait:      cfg.MaxWait,
		pollInterval: cfg.PollInterval,
	}
}

// Acquire takes the lot's lease, polling until the wait elapses or ctx is done
func (g *RedisLotGuard) Acquire(ctx context.Context, lotID uuid.UUID) (func(), error) {
	key := g.keyPrefix + lotID.String()
	token := uuid.NewString()
	deadline := time.Now().Add(g.maxWait)

	for {
		ok, err := g.client.SetNX(ctx, key, token, g.leaseTTL).Result()
		if err != nil {
			return nil, shared.NewDomainError("STORAGE_ERROR",
				fmt.Sprintf("Guard acquisition failed for lot %s: %v", lotID, err))
		}
		if ok {
			var once sync.Once
			release := func() {
				once.Do(func() {
					releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = releaseScript.Run(releaseCtx, g.client, []string{key}, token).Err()
				})
			}
			return release, nil
		}

		if time.Now().After(deadline) {
			return nil, shared.NewDomainError("LOCK_TIMEOUT", "Timed out waiting for lot "+lotID.String())
		}

		select {
		case <-time.After(g.pollInterval):
		case <-ctx.Done():
			return nil, shared.NewDomainError("LOCK_TIMEOUT", "Cancelled while waiting for lot "+lotID.String())
		}
	}
}

// Ensure RedisLotGuard implements lot.Guard
var _ lot.Guard = (*RedisLotGuard)(nil)
