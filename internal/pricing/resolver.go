package pricing

import "github.com/shopspring/decimal"

// Tier is a single quantity threshold entry from a company price list.
type Tier struct {
	QuantityThreshold int             `json:"quantityThreshold"`
	Price             decimal.Decimal `json:"price"`
}

// Resolution is the outcome of resolving a unit price for one product.
type Resolution struct {
	UnitPrice           decimal.Decimal
	RetailPrice         decimal.Decimal
	TierSavingsPerUnit  decimal.Decimal
	OfferSavingsPerUnit decimal.Decimal
}

// Resolve computes the effective unit price for a product given the retail
// price, an optional company tier price list, an optional promotional offer
// discount, and an optional per-product coupon discount applied on top of the
// offer price. The company price is the minimum across all tiers regardless
// of order quantity. A discounted price never beats the standing company rate
// upward: the resolver picks the lower of the two. The function is pure.
func Resolve(retail decimal.Decimal, tiers []Tier, offer, individual *Discount) Resolution {
	retail = floorAtZero(retail)

	base := retail
	if len(tiers) > 0 {
		best := tiers[0].Price
		for _, t := range tiers[1:] {
			if t.Price.LessThan(best) {
				best = t.Price
			}
		}
		base = floorAtZero(best)
	}

	// The min rule is keyed on the offer: an individual discount only ever
	// stacks on an offer price, never on the base price alone.
	unit := base
	if offer != nil {
		discounted := offer.Apply(retail)
		if individual != nil {
			discounted = individual.Apply(discounted)
		}
		if discounted.LessThan(base) {
			unit = discounted
		}
	}
	if unit.GreaterThan(retail) {
		unit = retail
	}
	unit = floorAtZero(unit)

	tierSavings := floorAtZero(retail.Sub(base))
	totalSavings := retail.Sub(unit)
	offerSavings := floorAtZero(totalSavings.Sub(tierSavings))

	return Resolution{
		UnitPrice:           unit,
		RetailPrice:         retail,
		TierSavingsPerUnit:  tierSavings,
		OfferSavingsPerUnit: offerSavings,
	}
}
