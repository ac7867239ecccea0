package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/pricing"
)

// LineItem is one priced product entry in a buyer's cart.
type LineItem struct {
	ID                     string          `json:"id"`
	ProductID              string          `json:"productId"`
	Name                   string          `json:"name"`
	SKU                    string          `json:"sku"`
	ImageURL               string          `json:"imageUrl,omitempty"`
	Quantity               int             `json:"quantity"`
	UnitPrice              decimal.Decimal `json:"unitPrice"`
	RetailPrice            decimal.Decimal `json:"retailPrice"`
	TotalPrice             decimal.Decimal `json:"totalPrice"`
	MinimumOrder           int             `json:"minimumOrder"`
	SavingsTotal           decimal.Decimal `json:"savingsTotal"`
	AdditionalSavingsTotal decimal.Decimal `json:"additionalSavingsTotal"`
	AddedAt                time.Time       `json:"addedAt"`

	AppliedOfferID         string            `json:"appliedOfferId,omitempty"`
	AppliedOfferDiscount   *pricing.Discount `json:"appliedOfferDiscount,omitempty"`
	AppliedOfferValidUntil *time.Time        `json:"appliedOfferValidUntil,omitempty"`
}

// OfferContext carries a promotional offer active at add time.
type OfferContext struct {
	ID         string
	Discount   pricing.Discount
	ValidUntil *time.Time
}

// LineSnapshot preserves the pricing state of a line before a coupon touched
// it, so removal can restore the exact pre-apply values.
type LineSnapshot struct {
	UnitPrice              decimal.Decimal   `json:"unitPrice"`
	RetailPrice            decimal.Decimal   `json:"retailPrice"`
	TotalPrice             decimal.Decimal   `json:"totalPrice"`
	SavingsTotal           decimal.Decimal   `json:"savingsTotal"`
	AdditionalSavingsTotal decimal.Decimal   `json:"additionalSavingsTotal"`
	AppliedOfferID         string            `json:"appliedOfferId,omitempty"`
	AppliedOfferDiscount   *pricing.Discount `json:"appliedOfferDiscount,omitempty"`
	AppliedOfferValidUntil *time.Time        `json:"appliedOfferValidUntil,omitempty"`
}

// AppliedCoupon records the single coupon active on a buyer's cart.
type AppliedCoupon struct {
	ID             string                  `json:"id"`
	Code           string                  `json:"code"`
	Discount       pricing.Discount        `json:"discount"`
	DiscountAmount decimal.Decimal         `json:"discountAmount"`
	AppliedAt      time.Time               `json:"appliedAt"`
	LinkedOfferID  string                  `json:"linkedOfferId,omitempty"`
	PriorPricing   map[string]LineSnapshot `json:"priorPricing,omitempty"`
}

// Snapshot captures the line's coupon-mutable pricing fields.
func (li LineItem) Snapshot() LineSnapshot {
	return LineSnapshot{
		UnitPrice:              li.UnitPrice,
		RetailPrice:            li.RetailPrice,
		TotalPrice:             li.TotalPrice,
		SavingsTotal:           li.SavingsTotal,
		AdditionalSavingsTotal: li.AdditionalSavingsTotal,
		AppliedOfferID:         li.AppliedOfferID,
		AppliedOfferDiscount:   li.AppliedOfferDiscount,
		AppliedOfferValidUntil: li.AppliedOfferValidUntil,
	}
}

// Restore writes the snapshot back onto the line.
func (li *LineItem) Restore(s LineSnapshot) {
	li.UnitPrice = s.UnitPrice
	li.RetailPrice = s.RetailPrice
	li.TotalPrice = s.TotalPrice
	li.SavingsTotal = s.SavingsTotal
	li.AdditionalSavingsTotal = s.AdditionalSavingsTotal
	li.AppliedOfferID = s.AppliedOfferID
	li.AppliedOfferDiscount = s.AppliedOfferDiscount
	li.AppliedOfferValidUntil = s.AppliedOfferValidUntil
}

// RecomputeTotals derives the quantity-dependent fields from the unit and
// retail prices. tierSavingsPerUnit is the standing company tier saving for
// one unit; anything saved beyond it counts as additional (promotional)
// savings.
func (li *LineItem) RecomputeTotals(tierSavingsPerUnit decimal.Decimal) {
	qty := decimal.NewFromInt(int64(li.Quantity))
	li.TotalPrice = li.UnitPrice.Mul(qty).Round(2)
	li.SavingsTotal = li.RetailPrice.Sub(li.UnitPrice).Mul(qty).Round(2)
	if li.SavingsTotal.IsNegative() {
		li.SavingsTotal = decimal.Zero
	}
	standard := tierSavingsPerUnit.Mul(qty).Round(2)
	additional := li.SavingsTotal.Sub(standard)
	if additional.IsNegative() {
		additional = decimal.Zero
	}
	li.AdditionalSavingsTotal = additional
}

// TierSavingsPerUnit derives the standing per-unit tier saving implied by the
// stored totals. Used when re-pricing a line without re-fetching tiers.
func (li LineItem) TierSavingsPerUnit() decimal.Decimal {
	if li.Quantity <= 0 {
		return decimal.Zero
	}
	standard := li.SavingsTotal.Sub(li.AdditionalSavingsTotal)
	if standard.IsNegative() {
		return decimal.Zero
	}
	return standard.Div(decimal.NewFromInt(int64(li.Quantity)))
}

// normalize repairs partially-written or legacy persisted records so a
// corrupted cart never blocks the buyer. It reports whether the line is
// usable at all.
func (li *LineItem) normalize(now time.Time) bool {
	if li.ProductID == "" {
		return false
	}
	if li.Quantity < 1 {
		li.Quantity = 1
	}
	if li.MinimumOrder < 1 {
		li.MinimumOrder = 1
	}
	if li.UnitPrice.IsNegative() {
		li.UnitPrice = decimal.Zero
	}
	if li.RetailPrice.LessThan(li.UnitPrice) {
		li.RetailPrice = li.UnitPrice
	}
	if li.AddedAt.IsZero() {
		li.AddedAt = now
	}
	expected := li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Round(2)
	if !li.TotalPrice.Equal(expected) {
		li.RecomputeTotals(li.TierSavingsPerUnit())
	}
	return true
}
