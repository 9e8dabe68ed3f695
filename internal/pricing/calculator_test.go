package pricing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(decimal.RequireFromString("0.14"))
	require.NoError(t, err)
	return calc
}

func TestTotalFromSubtotalAndBack(t *testing.T) {
	calc := newTestCalculator(t)

	total, err := calc.TotalFromSubtotal(decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(114)), "got %s", total)

	subtotal, err := calc.SubtotalFromTotal(decimal.NewFromInt(114))
	require.NoError(t, err)
	assert.True(t, subtotal.Equal(decimal.NewFromInt(100)), "got %s", subtotal)
}

func TestTaxRejectsNegative(t *testing.T) {
	calc := newTestCalculator(t)

	_, err := calc.Tax(decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = calc.TotalFromSubtotal(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = calc.SubtotalFromTotal(decimal.RequireFromString("-0.01"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNewCalculatorRejectsNegativeRate(t *testing.T) {
	_, err := NewCalculator(decimal.RequireFromString("-0.1"))
	assert.ErrorIs(t, err, ErrInvalidTaxRate)
}

func TestRoundTripLaw(t *testing.T) {
	tolerance := decimal.RequireFromString("0.000000001")
	rates := []string{"0.14", "0", "0.2", "0.075", "1.5"}
	rng := rand.New(rand.NewSource(42))

	for _, r := range rates {
		calc, err := NewCalculator(decimal.RequireFromString(r))
		require.NoError(t, err)

		for i := 0; i < 500; i++ {
			// up to four decimal places, up to a million
			subtotal := decimal.New(rng.Int63n(10_000_000_000), -4)

			total, err := calc.TotalFromSubtotal(subtotal)
			require.NoError(t, err)
			back, err := calc.SubtotalFromTotal(total)
			require.NoError(t, err)

			diff := back.Sub(subtotal).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance), "rate %s subtotal %s came back as %s", r, subtotal, back)
		}
	}
}

func TestTaxAdditivity(t *testing.T) {
	calc := newTestCalculator(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		subtotal := decimal.New(rng.Int63n(100_000_000), -2)

		tax, err := calc.Tax(subtotal)
		require.NoError(t, err)
		total, err := calc.TotalFromSubtotal(subtotal)
		require.NoError(t, err)

		assert.True(t, tax.Add(subtotal).Equal(total), "subtotal %s: %s + %s != %s", subtotal, tax, subtotal, total)
	}
}

func TestReconstructDoesNotRoundEarly(t *testing.T) {
	calc := newTestCalculator(t)

	breakdown, err := calc.Reconstruct(decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.Equal(t, "87.72", breakdown.Subtotal.StringFixed(2))
	assert.Equal(t, "12.28", breakdown.Tax.StringFixed(2))
	assert.True(t, breakdown.Subtotal.Add(breakdown.Tax).Equal(breakdown.Total))
	// 100 / 1.14 keeps its full expansion internally
	assert.True(t, breakdown.Subtotal.Exponent() < -2)
}

func TestApply(t *testing.T) {
	calc := newTestCalculator(t)

	breakdown, err := calc.Apply(decimal.NewFromInt(90))
	require.NoError(t, err)
	assert.True(t, breakdown.Tax.Equal(decimal.RequireFromString("12.6")))
	assert.True(t, breakdown.Total.Equal(decimal.RequireFromString("102.6")))
}

func TestAmountFromFloat(t *testing.T) {
	amount, err := AmountFromFloat(19.99)
	require.NoError(t, err)
	assert.Equal(t, "19.99", amount.String())

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.5} {
		_, err := AmountFromFloat(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, "value %v", bad)
	}
}

func TestRoundMoney(t *testing.T) {
	cases := map[string]string{
		"100.0008": "100",
		"12.345":   "12.35",
		"12.344":   "12.34",
		"0":        "0",
	}
	for in, want := range cases {
		got := RoundMoney(decimal.RequireFromString(in))
		assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: got %s", in, got)
	}
}
