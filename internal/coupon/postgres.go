package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/pricing"
)

// PostgresValidator is the default implementation of the validation
// collaborator, backed by the coupons/offers schema.
type PostgresValidator struct {
	Pool *pgxpool.Pool
	Now  func() time.Time
}

func (v *PostgresValidator) now() time.Time {
	if v != nil && v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func invalid(message string) ValidationResult {
	return ValidationResult{Valid: false, ErrorMessage: message}
}

// Validate checks the code against its activity window, usage limits, and
// minimum spend, and loads the linked offer's per-product overrides.
func (v *PostgresValidator) Validate(ctx context.Context, code string, lines []cart.LineItem, buyerID string) (ValidationResult, error) {
	if v == nil || v.Pool == nil {
		return ValidationResult{}, errors.New("coupon validator not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return invalid("coupon code is required"), nil
	}
	if len(lines) == 0 {
		return invalid("cart is empty"), nil
	}

	const query = `
SELECT id, code, kind, value::text, min_spend::text, valid_from, valid_to,
       usage_limit, used_count, linked_offer_id
FROM coupons
WHERE lower(code) = lower($1)`
	var (
		id, couponCode, kindRaw string
		valueRaw, minSpendRaw   string
		validFrom, validTo      *time.Time
		usageLimit              *int32
		usedCount               int32
		linkedOfferID           *string
	)
	err := v.Pool.QueryRow(ctx, query, code).Scan(
		&id, &couponCode, &kindRaw, &valueRaw, &minSpendRaw,
		&validFrom, &validTo, &usageLimit, &usedCount, &linkedOfferID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invalid("coupon code not found"), nil
		}
		return ValidationResult{}, fmt.Errorf("lookup coupon: %w", err)
	}

	kind, err := pricing.ParseDiscountKind(kindRaw)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("coupon %s: %w", id, err)
	}
	value, err := decimal.NewFromString(valueRaw)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("coupon %s value: %w", id, err)
	}
	minSpend, err := decimal.NewFromString(minSpendRaw)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("coupon %s min spend: %w", id, err)
	}

	now := v.now()
	if validFrom != nil && now.Before(*validFrom) {
		return invalid("coupon is not active yet"), nil
	}
	if validTo != nil && now.After(*validTo) {
		return invalid("coupon has expired"), nil
	}
	if usageLimit != nil && usedCount >= *usageLimit {
		return invalid("coupon usage limit reached"), nil
	}

	subtotal := decimal.Zero
	for _, li := range lines {
		subtotal = subtotal.Add(li.TotalPrice)
	}
	if subtotal.LessThan(minSpend) {
		return invalid("cart total does not meet the coupon minimum spend"), nil
	}

	validated := &ValidatedCoupon{
		ID:       id,
		Code:     couponCode,
		Discount: pricing.Discount{Kind: kind, Value: value},
	}

	if linkedOfferID != nil && *linkedOfferID != "" {
		validated.LinkedOfferID = *linkedOfferID
		validated.ValidUntil, validated.Overrides, err = v.loadOffer(ctx, *linkedOfferID)
		if err != nil {
			return ValidationResult{}, err
		}
	}

	amount := discountAmount(validated.Discount, subtotal)
	return ValidationResult{Valid: true, Coupon: validated, DiscountAmount: amount}, nil
}

func (v *PostgresValidator) loadOffer(ctx context.Context, offerID string) (*time.Time, []ProductOverride, error) {
	var validUntil *time.Time
	err := v.Pool.QueryRow(ctx, `SELECT valid_until FROM offers WHERE id = $1`, offerID).Scan(&validUntil)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("lookup offer: %w", err)
	}

	rows, err := v.Pool.Query(ctx, `
SELECT product_id, kind, value::text
FROM offer_products
WHERE offer_id = $1`, offerID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup offer overrides: %w", err)
	}
	defer rows.Close()

	var overrides []ProductOverride
	for rows.Next() {
		var (
			productID, kindRaw, valueRaw string
		)
		if err := rows.Scan(&productID, &kindRaw, &valueRaw); err != nil {
			return nil, nil, fmt.Errorf("scan offer override: %w", err)
		}
		kind, err := pricing.ParseDiscountKind(kindRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("offer %s override: %w", offerID, err)
		}
		value, err := decimal.NewFromString(valueRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("offer %s override value: %w", offerID, err)
		}
		overrides = append(overrides, ProductOverride{
			ProductID: productID,
			Discount:  pricing.Discount{Kind: kind, Value: value},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate offer overrides: %w", err)
	}
	return validUntil, overrides, nil
}

// IncrementUsage bumps the coupon's usage counter.
func (v *PostgresValidator) IncrementUsage(ctx context.Context, couponID string) error {
	if v == nil || v.Pool == nil {
		return errors.New("coupon validator not configured")
	}
	_, err := v.Pool.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1 WHERE id = $1`, couponID)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	return nil
}

func discountAmount(d pricing.Discount, subtotal decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case pricing.DiscountPercentage:
		return subtotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	case pricing.DiscountFixedAmount:
		if d.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return d.Value
	default:
		return decimal.Zero
	}
}
