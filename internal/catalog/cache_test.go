package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	product *Product
	err     error
	calls   int
}

func (s *countingStore) GetProduct(_ context.Context, id string) (*Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.product == nil || s.product.ID != id {
		return nil, ErrNotFound
	}
	return s.product, nil
}

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func testProduct() *Product {
	return &Product{
		ID:           "p1",
		SKU:          "SKU-1",
		Name:         "Widget",
		Price:        decimal.RequireFromString("99.95"),
		MinimumOrder: 1,
	}
}

func TestCachedStoreReadThrough(t *testing.T) {
	cache, _ := newCache(t)
	backing := &countingStore{product: testProduct()}
	store := CachedProductStore{Store: backing, Cache: cache}

	p, err := store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 1, backing.calls)

	p, err = store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("99.95")))
	// Second read is served from the cache.
	assert.Equal(t, 1, backing.calls)
}

func TestCachedStoreMissPropagatesNotFound(t *testing.T) {
	cache, _ := newCache(t)
	store := CachedProductStore{Store: &countingStore{}, Cache: cache}

	_, err := store.GetProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStoreDegradesWhenRedisDown(t *testing.T) {
	cache, mr := newCache(t)
	mr.Close()
	backing := &countingStore{product: testProduct()}
	store := CachedProductStore{Store: backing, Cache: cache}

	p, err := store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func TestCachedStoreBackingFailure(t *testing.T) {
	cache, _ := newCache(t)
	backing := &countingStore{err: errors.New("db down")}
	store := CachedProductStore{Store: backing, Cache: cache}

	_, err := store.GetProduct(context.Background(), "p1")
	assert.Error(t, err)
}

func TestCacheEntryExpires(t *testing.T) {
	cache, mr := newCache(t)
	backing := &countingStore{product: testProduct()}
	store := CachedProductStore{Store: backing, Cache: cache}

	_, err := store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, backing.calls)
}
