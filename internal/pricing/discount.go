package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountKind enumerates the supported discount semantics for offers and
// coupons. Adding a kind requires extending the switch in Discount.Apply.
type DiscountKind uint8

const (
	// DiscountPercentage reduces the price by value percent.
	DiscountPercentage DiscountKind = iota + 1
	// DiscountFixedAmount subtracts value from the price.
	DiscountFixedAmount
	// DiscountTierBased is quantity-conditional and does not alter unit price.
	DiscountTierBased
	// DiscountBuyXGetY is quantity-conditional and does not alter unit price.
	DiscountBuyXGetY
)

var hundred = decimal.NewFromInt(100)

// String returns the canonical wire name of the kind.
func (k DiscountKind) String() string {
	switch k {
	case DiscountPercentage:
		return "percentage"
	case DiscountFixedAmount:
		return "fixed_amount"
	case DiscountTierBased:
		return "tier_based"
	case DiscountBuyXGetY:
		return "buy_x_get_y"
	default:
		return "unknown"
	}
}

// ParseDiscountKind converts a wire name into a DiscountKind.
func ParseDiscountKind(value string) (DiscountKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "percentage", "percent":
		return DiscountPercentage, nil
	case "fixed_amount", "fixed":
		return DiscountFixedAmount, nil
	case "tier_based", "tier":
		return DiscountTierBased, nil
	case "buy_x_get_y", "bxgy":
		return DiscountBuyXGetY, nil
	default:
		return 0, fmt.Errorf("pricing: unknown discount kind %q", value)
	}
}

// MarshalText encodes the kind as its wire name.
func (k DiscountKind) MarshalText() ([]byte, error) {
	if k < DiscountPercentage || k > DiscountBuyXGetY {
		return nil, fmt.Errorf("pricing: invalid discount kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind from its wire name.
func (k *DiscountKind) UnmarshalText(data []byte) error {
	parsed, err := ParseDiscountKind(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Discount is a price transform shared by promotional offers and coupons.
type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Apply returns the price after the discount. The result is never negative.
// Quantity-conditional kinds leave the unit price unchanged.
func (d Discount) Apply(price decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case DiscountPercentage:
		next := price.Mul(hundred.Sub(d.Value)).Div(hundred).Round(2)
		return floorAtZero(next)
	case DiscountFixedAmount:
		return floorAtZero(price.Sub(d.Value).Round(2))
	case DiscountTierBased, DiscountBuyXGetY:
		return price
	default:
		return price
	}
}

func floorAtZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
