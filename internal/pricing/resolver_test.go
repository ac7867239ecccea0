package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCompanyTierBeatsRetail(t *testing.T) {
	res := Resolve(dec("100"), []Tier{{QuantityThreshold: 1, Price: dec("80")}}, nil, nil)
	assert.True(t, res.UnitPrice.Equal(dec("80")))
	assert.True(t, res.RetailPrice.Equal(dec("100")))
	assert.True(t, res.TierSavingsPerUnit.Equal(dec("20")))
	assert.True(t, res.OfferSavingsPerUnit.IsZero())
}

func TestResolveCompanyPriceWinsOverWeakerOffer(t *testing.T) {
	offer := &Discount{Kind: DiscountPercentage, Value: dec("15")}
	res := Resolve(dec("100"), []Tier{{QuantityThreshold: 1, Price: dec("80")}}, offer, nil)
	// Offer price 85 is worse than the standing company rate 80.
	assert.True(t, res.UnitPrice.Equal(dec("80")))
	assert.True(t, res.TierSavingsPerUnit.Equal(dec("20")))
	assert.True(t, res.OfferSavingsPerUnit.IsZero())
}

func TestResolveOfferBeatsCompanyPrice(t *testing.T) {
	offer := &Discount{Kind: DiscountPercentage, Value: dec("30")}
	res := Resolve(dec("100"), []Tier{{QuantityThreshold: 1, Price: dec("80")}}, offer, nil)
	assert.True(t, res.UnitPrice.Equal(dec("70")))
	assert.True(t, res.TierSavingsPerUnit.Equal(dec("20")))
	assert.True(t, res.OfferSavingsPerUnit.Equal(dec("10")))
}

func TestResolveOfferAppliesToRetailNotBase(t *testing.T) {
	offer := &Discount{Kind: DiscountFixedAmount, Value: dec("10")}
	res := Resolve(dec("50"), nil, offer, nil)
	assert.True(t, res.UnitPrice.Equal(dec("40")))
	assert.True(t, res.OfferSavingsPerUnit.Equal(dec("10")))
}

func TestResolveIndividualDiscountStacksOnOffer(t *testing.T) {
	offer := &Discount{Kind: DiscountFixedAmount, Value: dec("10")}
	individual := &Discount{Kind: DiscountFixedAmount, Value: dec("5")}
	res := Resolve(dec("50"), nil, offer, individual)
	assert.True(t, res.UnitPrice.Equal(dec("35")))
}

func TestResolveIndividualDiscountAloneKeepsBase(t *testing.T) {
	individual := &Discount{Kind: DiscountFixedAmount, Value: dec("5")}
	res := Resolve(dec("50"), nil, nil, individual)
	assert.True(t, res.UnitPrice.Equal(dec("50")))
	assert.True(t, res.OfferSavingsPerUnit.IsZero())

	res = Resolve(dec("100"), []Tier{{QuantityThreshold: 1, Price: dec("80")}}, nil, individual)
	assert.True(t, res.UnitPrice.Equal(dec("80")))
}

func TestResolveMinimumTierAcrossList(t *testing.T) {
	tiers := []Tier{
		{QuantityThreshold: 1, Price: dec("90")},
		{QuantityThreshold: 10, Price: dec("75")},
		{QuantityThreshold: 50, Price: dec("72.50")},
	}
	res := Resolve(dec("100"), tiers, nil, nil)
	assert.True(t, res.UnitPrice.Equal(dec("72.50")))
	assert.True(t, res.TierSavingsPerUnit.Equal(dec("27.50")))
}

func TestResolveNeverNegativeNorAboveRetail(t *testing.T) {
	offer := &Discount{Kind: DiscountFixedAmount, Value: dec("500")}
	res := Resolve(dec("10"), []Tier{{QuantityThreshold: 1, Price: dec("25")}}, offer, nil)
	assert.False(t, res.UnitPrice.IsNegative())
	assert.False(t, res.UnitPrice.GreaterThan(res.RetailPrice))
}

func TestResolveQuantityConditionalKindsKeepRetail(t *testing.T) {
	offer := &Discount{Kind: DiscountBuyXGetY, Value: dec("2")}
	res := Resolve(dec("30"), nil, offer, nil)
	assert.True(t, res.UnitPrice.Equal(dec("30")))
	assert.True(t, res.OfferSavingsPerUnit.IsZero())
}

func TestResolveDeterministic(t *testing.T) {
	offer := &Discount{Kind: DiscountPercentage, Value: dec("12.5")}
	tiers := []Tier{{QuantityThreshold: 5, Price: dec("44")}}
	first := Resolve(dec("48.90"), tiers, offer, nil)
	second := Resolve(dec("48.90"), tiers, offer, nil)
	assert.Equal(t, first, second)
}
