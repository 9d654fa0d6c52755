package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrice(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"Rs. 45,990.00", 45990},
		{"Rs 1,299", 1299},
		{"  LKR 7,500.50 ", 7500.50},
		{"$12.99", 12.99},
		{"45990.", 45990},
		{"", 0},
		{"Call for price", 0},
		{"Rs.", 0},
		{"1.2.3", 0},
		{"-150", 150},
		{"$.75", 0.75},
		{".99", 0.99},
		{"Rs.45,990.00", 45990},
		{"Rs. .50", 0.50},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePrice(tc.raw))
		})
	}
}

func TestNormalizePriceNeverNegative(t *testing.T) {
	inputs := []string{"-", "--1", "Rs -9,000", "€ -0.5", "(1,000)", "1,000-", "..", "₨ ٣٤"}
	for _, raw := range inputs {
		assert.GreaterOrEqual(t, NormalizePrice(raw), 0.0, raw)
	}
}

func TestNormalizePriceWithoutDigitsIsZero(t *testing.T) {
	for _, raw := range []string{"Rs.", "N/A", ",,,", "...", "$"} {
		assert.Zero(t, NormalizePrice(raw), raw)
	}
}

func TestLocalePreCleaners(t *testing.T) {
	assert.Equal(t, 45990.0, NormalizePrice(stripPeriodThousands("Rs. 45.990")))
	assert.Equal(t, 1299.90, NormalizePrice(commaDecimal("R$ 1.299,90")))
	assert.Equal(t, 1299.0, NormalizePrice(mercadoLivrePrice("1.299")))
	assert.Equal(t, 1299.90, NormalizePrice(mercadoLivrePrice("1299.90")))
}
