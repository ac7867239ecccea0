package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/pricing"
)

// PostgresStore implements ProductStore and TierStore over the catalog schema.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// GetProduct loads a single product by id.
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("catalog store not configured")
	}
	const query = `
SELECT id, sku, name, price::text, stock_quantity, minimum_order, COALESCE(image_url, '')
FROM products
WHERE id = $1`
	var (
		p        Product
		priceRaw string
	)
	err := s.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &priceRaw, &p.StockQuantity, &p.MinimumOrder, &p.ImageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.Price, err = decimal.NewFromString(priceRaw)
	if err != nil {
		return nil, fmt.Errorf("parse product price: %w", err)
	}
	if p.MinimumOrder < 1 {
		p.MinimumOrder = 1
	}
	return &p, nil
}

// GetTiers loads the company's quantity tier price list for the product,
// ordered by ascending threshold.
func (s *PostgresStore) GetTiers(ctx context.Context, companyID, productID string) ([]pricing.Tier, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("catalog store not configured")
	}
	const query = `
SELECT quantity_threshold, price::text
FROM company_price_tiers
WHERE company_id = $1 AND product_id = $2
ORDER BY quantity_threshold`
	rows, err := s.Pool.Query(ctx, query, companyID, productID)
	if err != nil {
		return nil, fmt.Errorf("get company tiers: %w", err)
	}
	defer rows.Close()

	var tiers []pricing.Tier
	for rows.Next() {
		var (
			tier     pricing.Tier
			priceRaw string
		)
		if err := rows.Scan(&tier.QuantityThreshold, &priceRaw); err != nil {
			return nil, fmt.Errorf("scan company tier: %w", err)
		}
		tier.Price, err = decimal.NewFromString(priceRaw)
		if err != nil {
			return nil, fmt.Errorf("parse tier price: %w", err)
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate company tiers: %w", err)
	}
	return tiers, nil
}
