package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/pricing"
)

// ProductOverride is a per-product discount attached to the offer a coupon is
// linked to. Lines for the product are re-priced from retail through this
// discount when the coupon is applied.
type ProductOverride struct {
	ProductID string
	Discount  pricing.Discount
}

// ValidatedCoupon is the descriptor returned by the validation collaborator
// for an accepted code.
type ValidatedCoupon struct {
	ID            string
	Code          string
	Discount      pricing.Discount
	LinkedOfferID string
	ValidUntil    *time.Time
	Overrides     []ProductOverride
}

// ValidationResult reports the outcome of validating a coupon code against
// the current cart contents.
type ValidationResult struct {
	Valid          bool
	ErrorMessage   string
	Coupon         *ValidatedCoupon
	DiscountAmount decimal.Decimal
}

// Validator is the external coupon/offer validation collaborator.
type Validator interface {
	Validate(ctx context.Context, code string, lines []cart.LineItem, buyerID string) (ValidationResult, error)
	IncrementUsage(ctx context.Context, couponID string) error
}

// UsageReporter schedules the best-effort usage counter increment. A failure
// is logged by the engine and never surfaced to the caller.
type UsageReporter interface {
	ReportUsage(ctx context.Context, couponID string) error
}
