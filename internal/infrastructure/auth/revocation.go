package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ftzops/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// TokenRevocations records tokens that must be rejected before their
// natural expiry. Two granularities are supported: a single token by its
// JTI, and every token a user holds (issued-before cutoff).
type TokenRevocations interface {
	// RevokeToken rejects a single token by JTI. ttl should cover the
	// remaining token lifetime; after that the entry is moot.
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error

	// IsTokenRevoked reports whether a JTI has been revoked.
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeUser rejects every token the user currently holds by
	// recording a cutoff timestamp. Tokens issued at or before the
	// cutoff are invalid; tokens issued later are unaffected.
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsUserRevoked reports whether a token issued at issuedAt falls
	// before the user's revocation cutoff.
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const revocationKeyPrefix = "auth:revoked:"

// RedisTokenRevocations stores revocations in Redis so that every
// instance behind a load balancer sees the same cutoffs.
type RedisTokenRevocations struct {
	client *redis.Client
}

// NewRedisTokenRevocations connects to Redis and verifies the connection.
func NewRedisTokenRevocations(cfg config.RedisConfig) (*RedisTokenRevocations, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for token revocations: %w", err)
	}

	return &RedisTokenRevocations{client: client}, nil
}

// NewRedisTokenRevocationsWithClient wraps an existing Redis client.
func NewRedisTokenRevocationsWithClient(client *redis.Client) *RedisTokenRevocations {
	return &RedisTokenRevocations{client: client}
}

func (r *RedisTokenRevocations) jtiKey(jti string) string {
	return revocationKeyPrefix + "jti:" + jti
}

func (r *RedisTokenRevocations) userKey(userID string) string {
	return revocationKeyPrefix + "user:" + userID
}

func (r *RedisTokenRevocations) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *RedisTokenRevocations) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

func (r *RedisTokenRevocations) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	cutoff := time.Now().UnixNano()
	if err := r.client.Set(ctx, r.userKey(userID), cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

func (r *RedisTokenRevocations) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, r.userKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}

	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation cutoff: %w", err)
	}

	return issuedAt.UnixNano() <= cutoff, nil
}

// Close closes the Redis client.
func (r *RedisTokenRevocations) Close() error {
	return r.client.Close()
}

var _ TokenRevocations = (*RedisTokenRevocations)(nil)

// InMemoryTokenRevocations keeps revocations in process memory. Suitable
// for single-instance deployments and tests; state is lost on restart.
type InMemoryTokenRevocations struct {
	mu          sync.RWMutex
	revokedJTIs map[string]time.Time // JTI -> entry expiry
	userCutoffs map[string]time.Time // userID -> issued-before cutoff
}

// NewInMemoryTokenRevocations creates an empty in-memory revocation set.
func NewInMemoryTokenRevocations() *InMemoryTokenRevocations {
	return &InMemoryTokenRevocations{
		revokedJTIs: make(map[string]time.Time),
		userCutoffs: make(map[string]time.Time),
	}
}

func (r *InMemoryTokenRevocations) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokedJTIs[jti] = time.Now().Add(ttl)
	return nil
}

func (r *InMemoryTokenRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.revokedJTIs[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(r.revokedJTIs, jti)
		return false, nil
	}
	return true, nil
}

func (r *InMemoryTokenRevocations) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userCutoffs[userID] = time.Now()
	return nil
}

func (r *InMemoryTokenRevocations) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff, ok := r.userCutoffs[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.UnixNano() <= cutoff.UnixNano(), nil
}

var _ TokenRevocations = (*InMemoryTokenRevocations)(nil)
