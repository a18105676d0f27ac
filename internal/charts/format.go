package charts

import (
	"time"

	"expenso/internal/core"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoData is shown for an empty min or max.
const NoData = "–"

// Formatter renders money and counts for tables.
type Formatter struct {
	Symbol  string
	printer *message.Printer
}

func NewFormatter(symbol string) Formatter {
	return Formatter{Symbol: symbol, printer: message.NewPrinter(language.English)}
}

// Money renders cents as e.g. "₹1,234.50".
func (f Formatter) Money(m core.Money) string {
	return f.Decimal(m.Decimal())
}

// Decimal renders a currency amount rounded half-up to two places.
func (f Formatter) Decimal(d decimal.Decimal) string {
	v, _ := d.Round(2).Float64()
	p := f.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	return f.Symbol + p.Sprintf("%.2f", v)
}

// OptionalMoney renders nil as NoData.
func (f Formatter) OptionalMoney(m *core.Money) string {
	if m == nil {
		return NoData
	}
	return f.Money(*m)
}

// Count renders an integer with thousands separators.
func (f Formatter) Count(n int64) string {
	return humanize.Comma(n)
}

// Ago renders a timestamp relative to now, e.g. "3 days ago".
func (f Formatter) Ago(t time.Time) string {
	return humanize.Time(t)
}
