package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateOrderInvoice(ctx context.Context, data OrderInvoice) (io.Reader, error)
	GenerateBookingEstimate(ctx context.Context, data BookingEstimate) (io.Reader, error)
}

var Module = fx.Module("pdf.provider",
	fx.Provide(New),
)

// Company is printed in the header of every document.
type Company struct {
	Name    string
	Address string
	Email   string
}

// Line is one row of a document table. Amounts are preformatted.
type Line struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

// Totals is the summary block under the table.
type Totals struct {
	Subtotal string
	TaxLabel string
	Tax      string
	Total    string
}
