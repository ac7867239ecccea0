package cart

// MergeLines combines a newly resolved line for a product with the line
// already in the cart. The merged quantity is the sum; the unit price is the
// minimum of the two so a merge can never make the buyer worse off; the
// retail price is the maximum so a stale lower retail price cannot mask real
// savings. The function is pure so the policy can be tested apart from
// persistence.
func MergeLines(existing, incoming LineItem) LineItem {
	merged := existing
	merged.Quantity = existing.Quantity + incoming.Quantity

	cheaper := existing
	if incoming.UnitPrice.LessThan(existing.UnitPrice) {
		cheaper = incoming
	}
	merged.UnitPrice = cheaper.UnitPrice
	merged.AppliedOfferID = cheaper.AppliedOfferID
	merged.AppliedOfferDiscount = cheaper.AppliedOfferDiscount
	merged.AppliedOfferValidUntil = cheaper.AppliedOfferValidUntil

	if incoming.RetailPrice.GreaterThan(existing.RetailPrice) {
		merged.RetailPrice = incoming.RetailPrice
	}
	if incoming.MinimumOrder > merged.MinimumOrder {
		merged.MinimumOrder = incoming.MinimumOrder
	}
	if !existing.AddedAt.IsZero() && (incoming.AddedAt.IsZero() || existing.AddedAt.Before(incoming.AddedAt)) {
		merged.AddedAt = existing.AddedAt
	} else {
		merged.AddedAt = incoming.AddedAt
	}
	if merged.Name == "" {
		merged.Name = incoming.Name
	}
	if merged.SKU == "" {
		merged.SKU = incoming.SKU
	}
	if merged.ImageURL == "" {
		merged.ImageURL = incoming.ImageURL
	}

	tierPerUnit := cheaper.TierSavingsPerUnit()
	merged.RecomputeTotals(tierPerUnit)
	return merged
}
