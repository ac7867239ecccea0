package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-cart/internal/obs"
)

// Cache keeps hot product records in Redis so cart mutations do not hit the
// catalog database for every add.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func productKey(id string) string {
	return "catalog:product:" + id
}

// GetProduct returns the cached product record if present.
func (c *Cache) GetProduct(ctx context.Context, id string) (*Product, bool, error) {
	if c == nil || c.client == nil || id == "" {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

// SetProduct stores the product record with the configured TTL.
func (c *Cache) SetProduct(ctx context.Context, p *Product) error {
	if c == nil || c.client == nil || p == nil || p.ID == "" {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err()
}

// CachedProductStore reads through the cache before falling back to the
// underlying store. Cache failures degrade to the store, never to the caller.
type CachedProductStore struct {
	Store ProductStore
	Cache *Cache
}

// GetProduct implements ProductStore.
func (s CachedProductStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	if s.Cache != nil {
		if p, ok, err := s.Cache.GetProduct(ctx, id); err == nil && ok {
			obs.IncCatalogCache("hit")
			return p, nil
		}
		obs.IncCatalogCache("miss")
	}
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		_ = s.Cache.SetProduct(ctx, p)
	}
	return p, nil
}
