package checkout

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

const defaultColumns = 40

// Printer renders a receipt as fixed-width text.
type Printer struct {
	Columns int
}

// NewPrinter returns a printer with the given width, 40 when columns <= 0.
func NewPrinter(columns int) *Printer {
	if columns <= 0 {
		columns = defaultColumns
	}
	return &Printer{Columns: columns}
}

// Print renders r.
func (p *Printer) Print(r *Receipt) string {
	var b strings.Builder
	for _, it := range r.items {
		b.WriteString(p.line(it.Product.Name, amount(it.Total)))
		if !it.Quantity.Equal(decimal.NewFromInt(1)) {
			fmt.Fprintf(&b, "  %s * %s\n", amount(it.UnitPrice), quantity(it.Product.Unit, it.Quantity))
		}
	}
	for _, d := range r.discounts {
		b.WriteString(p.line(fmt.Sprintf("%s(%s)", d.Description, d.Product.Name), amount(d.Amount)))
	}
	for _, pay := range r.payments {
		b.WriteString(p.line(pay.Description, amount(pay.Amount)))
	}
	b.WriteString("\n")
	b.WriteString(p.line("Total: ", amount(r.Total())))
	return b.String()
}

// Fprint writes the rendered receipt followed by the loyalty summary when points moved.
func (p *Printer) Fprint(w io.Writer, r *Receipt) error {
	if _, err := io.WriteString(w, p.Print(r)); err != nil {
		return err
	}
	if r.PointsEarned == 0 && r.PointsRedeemed == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Points earned: %d\nPoints redeemed: %d\n", r.PointsEarned, r.PointsRedeemed)
	return err
}

func (p *Printer) line(name, value string) string {
	columns := p.Columns
	if columns <= 0 {
		columns = defaultColumns
	}
	pad := columns - len(name) - len(value)
	if pad < 1 {
		pad = 1
	}
	return name + strings.Repeat(" ", pad) + value + "\n"
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func quantity(u catalog.Unit, q decimal.Decimal) string {
	if u == catalog.UnitEach {
		return q.Truncate(0).String()
	}
	return q.StringFixed(3)
}
