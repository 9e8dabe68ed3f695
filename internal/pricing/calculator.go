package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidEstimateInput = errors.New("invalid_estimate_input")
	ErrInvalidTaxRate       = errors.New("invalid_tax_rate")
)

// divisionPrecision is the number of decimal places kept when a total is
// divided back into its subtotal. Amounts are never rounded below this
// before they reach a display formatter.
const divisionPrecision int32 = 16

// MoneyPlaces is the scale of persisted money columns (NUMERIC(12,2)).
const MoneyPlaces int32 = 2

// Calculator converts between tax-exclusive subtotals, tax amounts and
// tax-inclusive totals at a single fixed rate.
type Calculator struct {
	rate       decimal.Decimal
	multiplier decimal.Decimal
}

// Breakdown is a full tax split of one amount.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// NewCalculator builds a calculator for rate, expressed as a fraction (0.14 for 14%).
func NewCalculator(rate decimal.Decimal) (*Calculator, error) {
	if rate.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTaxRate, rate.String())
	}
	return &Calculator{
		rate:       rate,
		multiplier: decimal.NewFromInt(1).Add(rate),
	}, nil
}

func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// Tax returns subtotal × rate.
func (c *Calculator) Tax(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount("subtotal", subtotal); err != nil {
		return decimal.Zero, err
	}
	return subtotal.Mul(c.rate), nil
}

// TotalFromSubtotal returns subtotal × (1 + rate).
func (c *Calculator) TotalFromSubtotal(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount("subtotal", subtotal); err != nil {
		return decimal.Zero, err
	}
	return subtotal.Mul(c.multiplier), nil
}

// SubtotalFromTotal reconstructs the tax-exclusive subtotal of a
// tax-inclusive total. It is the inverse of TotalFromSubtotal.
func (c *Calculator) SubtotalFromTotal(total decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount("total", total); err != nil {
		return decimal.Zero, err
	}
	return total.DivRound(c.multiplier, divisionPrecision), nil
}

// Reconstruct splits a persisted tax-inclusive total into subtotal and tax.
// Tax is taken as the remainder so the three amounts always add up.
func (c *Calculator) Reconstruct(total decimal.Decimal) (Breakdown, error) {
	subtotal, err := c.SubtotalFromTotal(total)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Subtotal: subtotal,
		Tax:      total.Sub(subtotal),
		Total:    total,
	}, nil
}

// Apply builds the breakdown of a tax-exclusive subtotal.
func (c *Calculator) Apply(subtotal decimal.Decimal) (Breakdown, error) {
	tax, err := c.Tax(subtotal)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

// RoundMoney rounds amount half away from zero to the scale money is stored at.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// AmountFromFloat converts a float received at an API boundary into a money
// amount, rejecting NaN, infinities and negative values.
func AmountFromFloat(value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	amount := decimal.NewFromFloat(value)
	if err := checkAmount("amount", amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func checkAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidAmount, field)
	}
	return nil
}
