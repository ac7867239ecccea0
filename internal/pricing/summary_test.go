package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func summaryConfig() SummaryConfig {
	return SummaryConfig{
		TaxBps:                1000,
		FreeShippingThreshold: dec("100"),
		FlatShippingFee:       dec("10"),
	}
}

func TestSummarizeEmptyCart(t *testing.T) {
	got := Summarize(nil, decimal.Zero, summaryConfig())
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Shipping.IsZero())
	assert.True(t, got.Discount.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestSummarizeAdditivity(t *testing.T) {
	items := []Item{
		{Quantity: 2, TotalPrice: dec("39.98")},
		{Quantity: 1, TotalPrice: dec("15.50")},
	}
	got := Summarize(items, decimal.Zero, summaryConfig())
	assert.True(t, got.Subtotal.Equal(dec("55.48")))
	assert.True(t, got.Tax.Equal(dec("5.55")))
	assert.True(t, got.Shipping.Equal(dec("10")))
	assert.True(t, got.Total.Equal(dec("71.03")))
}

func TestSummarizeFreeShippingAboveThreshold(t *testing.T) {
	items := []Item{{Quantity: 1, TotalPrice: dec("150")}}
	got := Summarize(items, decimal.Zero, summaryConfig())
	assert.True(t, got.Shipping.IsZero())
}

func TestSummarizeFlatShippingAtThreshold(t *testing.T) {
	items := []Item{{Quantity: 1, TotalPrice: dec("100")}}
	got := Summarize(items, decimal.Zero, summaryConfig())
	assert.True(t, got.Shipping.Equal(dec("10")))
}

func TestSummarizeDiscountClampedToSubtotal(t *testing.T) {
	items := []Item{{Quantity: 1, TotalPrice: dec("20")}}
	got := Summarize(items, dec("35"), summaryConfig())
	assert.True(t, got.Discount.Equal(dec("20")))
	// total = 20 + 2 tax + 10 shipping - 20 discount
	assert.True(t, got.Total.Equal(dec("12")))
}

func TestSummarizeSkipsNonPositiveQuantities(t *testing.T) {
	items := []Item{
		{Quantity: 0, TotalPrice: dec("99")},
		{Quantity: 1, TotalPrice: dec("10")},
	}
	got := Summarize(items, decimal.Zero, summaryConfig())
	assert.True(t, got.Subtotal.Equal(dec("10")))
}
