package pricing

import "github.com/shopspring/decimal"

// Item is the slice of a cart line the aggregator needs. It has no knowledge
// of how the total was derived.
type Item struct {
	Quantity   int
	TotalPrice decimal.Decimal
}

// Summary aggregates the derived cart totals.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// SummaryConfig carries the rates used by Summarize.
type SummaryConfig struct {
	TaxBps                int
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// Summarize derives subtotal, tax, shipping, discount, and total from the
// current line items and the aggregate coupon discount. Empty input yields an
// all-zero summary. Tax applies to the subtotal; the coupon discount is
// clamped to the subtotal so the total can never go negative from a coupon.
func Summarize(items []Item, couponDiscount decimal.Decimal, cfg SummaryConfig) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(it.TotalPrice)
	}

	if couponDiscount.IsNegative() {
		couponDiscount = decimal.Zero
	}
	if couponDiscount.GreaterThan(subtotal) {
		couponDiscount = subtotal
	}

	tax := subtotal.Mul(decimal.NewFromInt(int64(cfg.TaxBps))).Div(decimal.NewFromInt(10000)).Round(2)

	shipping := decimal.Zero
	if subtotal.IsPositive() && !subtotal.GreaterThan(cfg.FreeShippingThreshold) {
		shipping = cfg.FlatShippingFee
	}

	total := subtotal.Add(tax).Add(shipping).Sub(couponDiscount)

	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: couponDiscount,
		Total:    total,
	}
}
