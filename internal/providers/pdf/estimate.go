package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// BookingEstimate is the printable cost estimate of a workshop booking.
type BookingEstimate struct {
	Company       Company
	BookingNumber string
	ScheduledDate string
	ServiceType   string
	Vehicle       string
	CustomerName  string
	CustomerEmail string

	BasePrice string
	Parts     []Line
	Totals    Totals
}

func (p *PDFProvider) GenerateBookingEstimate(ctx context.Context, estimate BookingEstimate) (io.Reader, error) {
	if estimate.BookingNumber == "" {
		return nil, fmt.Errorf("booking number is required")
	}

	m := newDocument()

	m.AddRow(10,
		text.NewCol(12, "Service estimate", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Booking number: "+estimate.BookingNumber, props.Text{Top: 0}),
			text.New("Scheduled: "+estimate.ScheduledDate, props.Text{Top: 4}),
			text.New("Service: "+estimate.ServiceType, props.Text{Top: 8}),
			text.New("Vehicle: "+estimate.Vehicle, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(30,
		companyCol(estimate.Company),
		col.New(4).Add(
			text.New("Customer", props.Text{Style: fontstyle.Bold}),
			text.New(estimate.CustomerName, props.Text{Top: 5}),
			text.New(estimate.CustomerEmail, props.Text{Top: 9}),
		),
		col.New(4),
	)

	items := make([]Line, 0, len(estimate.Parts)+1)
	items = append(items, Line{
		Description: "Labour: " + estimate.ServiceType,
		Qty:         1,
		UnitPrice:   estimate.BasePrice,
		Amount:      estimate.BasePrice,
	})
	items = append(items, estimate.Parts...)
	addTable(m, items)
	addTotals(m, estimate.Totals)

	m.AddRow(12,
		text.NewCol(12, "Parts are priced at current catalog prices and may change before the visit.", props.Text{
			Size:  8,
			Style: fontstyle.Italic,
			Top:   4,
		}),
	)

	return render(m)
}
