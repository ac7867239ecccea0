package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/pricing"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is the catalog record the cart engine prices against.
type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	MinimumOrder  int             `json:"minimumOrder"`
	ImageURL      string          `json:"imageUrl"`
}

// ProductStore looks up catalog products.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// TierStore returns the per-company quantity tier price list for a product.
// A nil slice means the company has no custom pricing for the product.
type TierStore interface {
	GetTiers(ctx context.Context, companyID, productID string) ([]pricing.Tier, error)
}
