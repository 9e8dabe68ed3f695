package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter renders money for display with a fixed currency label.
type Formatter struct {
	currency string
}

func NewFormatter(currency string) *Formatter {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		currency = "EGP"
	}
	return &Formatter{currency: currency}
}

func (f *Formatter) Currency() string {
	return f.currency
}

// Money returns amount rounded to two decimals followed by the currency, e.g. "102.60 EGP".
func (f *Formatter) Money(amount decimal.Decimal) string {
	return Format(amount, f.currency)
}

func Format(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(MoneyPlaces) + " " + currency
}

// FormatDuration renders a service duration in minutes as "45 min", "1h" or "1h 30min".
func FormatDuration(minutes *int) string {
	if minutes == nil || *minutes == 0 {
		return "N/A"
	}
	if *minutes < 60 {
		return fmt.Sprintf("%d min", *minutes)
	}
	hours := *minutes / 60
	rest := *minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dmin", hours, rest)
}
