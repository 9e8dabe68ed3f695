package pricing

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LineItem is one bundled part carried at its current catalog price.
type LineItem struct {
	ProductID snowflake.ID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

type EstimateLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

type Estimate struct {
	BasePrice  decimal.Decimal `json:"base_price"`
	PartsTotal decimal.Decimal `json:"parts_total"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	Lines      []EstimateLine  `json:"lines"`
}

// Estimator prices a workshop service: base price plus bundled parts plus tax.
type Estimator struct {
	calc *Calculator
}

func NewEstimator(calc *Calculator) *Estimator {
	return &Estimator{calc: calc}
}

func (e *Estimator) Estimate(basePrice decimal.Decimal, items []LineItem) (Estimate, error) {
	if basePrice.IsNegative() {
		return Estimate{}, fmt.Errorf("%w: base price must not be negative", ErrInvalidEstimateInput)
	}

	partsTotal := decimal.Zero
	lines := make([]EstimateLine, 0, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return Estimate{}, fmt.Errorf("%w: line %d quantity must be positive", ErrInvalidEstimateInput, i)
		}
		if item.UnitPrice.IsNegative() {
			return Estimate{}, fmt.Errorf("%w: line %d unit price must not be negative", ErrInvalidEstimateInput, i)
		}
		amount := item.Subtotal()
		partsTotal = partsTotal.Add(amount)
		lines = append(lines, EstimateLine{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Amount:    amount,
		})
	}

	subtotal := basePrice.Add(partsTotal)
	tax, err := e.calc.Tax(subtotal)
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{
		BasePrice:  basePrice,
		PartsTotal: partsTotal,
		Subtotal:   subtotal,
		Tax:        tax,
		Total:      subtotal.Add(tax),
		Lines:      lines,
	}, nil
}
