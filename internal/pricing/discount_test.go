package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDiscountApply(t *testing.T) {
	tests := []struct {
		name     string
		discount Discount
		price    string
		want     string
	}{
		{"percentage", Discount{Kind: DiscountPercentage, Value: dec("15")}, "100", "85"},
		{"percentage rounds", Discount{Kind: DiscountPercentage, Value: dec("33")}, "9.99", "6.69"},
		{"percentage over 100 floors", Discount{Kind: DiscountPercentage, Value: dec("150")}, "40", "0"},
		{"fixed amount", Discount{Kind: DiscountFixedAmount, Value: dec("10")}, "50", "40"},
		{"fixed amount floors at zero", Discount{Kind: DiscountFixedAmount, Value: dec("60")}, "50", "0"},
		{"tier based is a no-op", Discount{Kind: DiscountTierBased, Value: dec("3")}, "50", "50"},
		{"buy x get y is a no-op", Discount{Kind: DiscountBuyXGetY, Value: dec("1")}, "50", "50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.discount.Apply(dec(tt.price))
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestDiscountKindRoundTripsJSON(t *testing.T) {
	in := Discount{Kind: DiscountFixedAmount, Value: dec("5")}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fixed_amount"`)

	var out Discount
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.Kind, out.Kind)
	assert.True(t, in.Value.Equal(out.Value))
}

func TestParseDiscountKindRejectsUnknown(t *testing.T) {
	_, err := ParseDiscountKind("mystery")
	require.Error(t, err)
}
