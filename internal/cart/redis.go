package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists carts as JSON documents in Redis, one key per buyer for
// the line list and one for the applied coupon. Keys share a TTL so abandoned
// carts expire together.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s *RedisStore) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func linesKey(buyerKey string) string  { return "cart:lines:" + buyerKey }
func couponKey(buyerKey string) string { return "cart:coupon:" + buyerKey }

// LoadLines returns the persisted line list for the buyer. A missing key is
// an empty cart, not an error.
func (s *RedisStore) LoadLines(ctx context.Context, buyerKey string) ([]LineItem, error) {
	if s == nil || s.Client == nil {
		return nil, fmt.Errorf("redis client not configured: %w", ErrPersistenceUnavailable)
	}
	data, err := s.Client.Get(ctx, linesKey(buyerKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart lines: %w: %w", err, ErrPersistenceUnavailable)
	}
	var lines []LineItem
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode cart lines: %w: %w", err, ErrPersistenceUnavailable)
	}
	return lines, nil
}

// SaveLines rewrites the full line list and refreshes the TTL on both cart
// keys.
func (s *RedisStore) SaveLines(ctx context.Context, buyerKey string, lines []LineItem) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("redis client not configured: %w", ErrPersistenceUnavailable)
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart lines: %w", err)
	}
	if err := s.Client.Set(ctx, linesKey(buyerKey), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart lines: %w: %w", err, ErrPersistenceUnavailable)
	}
	// Keep the coupon key's lifetime aligned with the lines it discounts.
	_ = s.Client.Expire(ctx, couponKey(buyerKey), s.ttl()).Err()
	return nil
}

// LoadCoupon returns the applied coupon for the buyer if any.
func (s *RedisStore) LoadCoupon(ctx context.Context, buyerKey string) (*AppliedCoupon, error) {
	if s == nil || s.Client == nil {
		return nil, fmt.Errorf("redis client not configured: %w", ErrPersistenceUnavailable)
	}
	data, err := s.Client.Get(ctx, couponKey(buyerKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load coupon: %w: %w", err, ErrPersistenceUnavailable)
	}
	var coupon AppliedCoupon
	if err := json.Unmarshal(data, &coupon); err != nil {
		return nil, fmt.Errorf("decode coupon: %w: %w", err, ErrPersistenceUnavailable)
	}
	return &coupon, nil
}

// SaveCoupon stores the applied coupon.
func (s *RedisStore) SaveCoupon(ctx context.Context, buyerKey string, coupon AppliedCoupon) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("redis client not configured: %w", ErrPersistenceUnavailable)
	}
	data, err := json.Marshal(coupon)
	if err != nil {
		return fmt.Errorf("encode coupon: %w", err)
	}
	if err := s.Client.Set(ctx, couponKey(buyerKey), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save coupon: %w: %w", err, ErrPersistenceUnavailable)
	}
	return nil
}

// DeleteCoupon removes the applied coupon. Deleting an absent coupon is a
// no-op.
func (s *RedisStore) DeleteCoupon(ctx context.Context, buyerKey string) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("redis client not configured: %w", ErrPersistenceUnavailable)
	}
	if err := s.Client.Del(ctx, couponKey(buyerKey)).Err(); err != nil {
		return fmt.Errorf("delete coupon: %w: %w", err, ErrPersistenceUnavailable)
	}
	return nil
}

// Clear removes all cart state for the buyer.
func (s *RedisStore) Clear(ctx context.Context, buyerKey string) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("redis client not configured: %w", ErrPersistenceUnavailable)
	}
	if err := s.Client.Del(ctx, linesKey(buyerKey), couponKey(buyerKey)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w: %w", err, ErrPersistenceUnavailable)
	}
	return nil
}
