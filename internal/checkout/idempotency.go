package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClaimState is the outcome of trying to claim an idempotency key.
type ClaimState int

const (
	// StateClaimed: this attempt owns the key and should proceed.
	StateClaimed ClaimState = iota
	// StateInFlight: another attempt owns the key and has not finished.
	StateInFlight
	// StateDone: a previous attempt finished; its order id is available.
	StateDone
)

const inFlightMarker = "in-flight"

// IdempotencyStore records checkout attempts by client-supplied key so
// a retried request after a timeout cannot double-decrement inventory
// or double-create an order.
type IdempotencyStore struct {
	rdb       *redis.Client
	claimTTL  time.Duration
	resultTTL time.Duration
}

// NewIdempotencyStore returns a store with a 2-minute claim window and
// 24-hour result retention.
func NewIdempotencyStore(rdb *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		rdb:       rdb,
		claimTTL:  2 * time.Minute,
		resultTTL: 24 * time.Hour,
	}
}

func idemKey(key string) string {
	return "checkout:idem:" + key
}

// Claim attempts to take ownership of the key. Exactly one concurrent
// caller gets StateClaimed (SETNX); replays see either the in-flight
// marker or the stored order id of the finished attempt.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (int64, ClaimState, error) {
	set, err := s.rdb.SetNX(ctx, idemKey(key), inFlightMarker, s.claimTTL).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("checkout: claim idempotency key: %w", err)
	}
	if set {
		return 0, StateClaimed, nil
	}

	val, err := s.rdb.Get(ctx, idemKey(key)).Result()
	if err == redis.Nil {
		// Claim expired between SETNX and GET; treat as in flight and
		// let the client retry.
		return 0, StateInFlight, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("checkout: read idempotency key: %w", err)
	}
	if val == inFlightMarker {
		return 0, StateInFlight, nil
	}

	orderID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("checkout: corrupt idempotency record %q", val)
	}
	return orderID, StateDone, nil
}

// Complete records the committed order id under the key.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, orderID int64) error {
	return s.rdb.Set(ctx, idemKey(key), strconv.FormatInt(orderID, 10), s.resultTTL).Err()
}

// Release frees the key after a failed attempt so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, idemKey(key)).Err()
}
