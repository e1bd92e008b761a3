package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// LineItem is one priced cart line.
type LineItem struct {
	Product   catalog.Product
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Payment is a settlement applied to the receipt. Amounts are negative.
type Payment struct {
	Description string
	Amount      decimal.Decimal
}

// Receipt accumulates the outcome of one checkout.
type Receipt struct {
	ID             uuid.UUID
	Date           time.Time
	Plan           string
	PointsEarned   int64
	PointsRedeemed int64

	items     []LineItem
	discounts []pricing.Discount
	payments  []Payment
}

func newReceipt(on time.Time) *Receipt {
	return &Receipt{ID: uuid.New(), Date: on}
}

// AddProduct appends a line item.
func (r *Receipt) AddProduct(p catalog.Product, qty, unitPrice, total decimal.Decimal) {
	r.items = append(r.items, LineItem{Product: p, Quantity: qty, UnitPrice: unitPrice, Total: total})
}

// AddDiscount appends a discount.
func (r *Receipt) AddDiscount(d pricing.Discount) {
	r.discounts = append(r.discounts, d)
}

// AddPayment appends a payment.
func (r *Receipt) AddPayment(description string, amount decimal.Decimal) {
	r.payments = append(r.payments, Payment{Description: description, Amount: amount})
}

// Items returns a copy of the line items in cart order.
func (r *Receipt) Items() []LineItem {
	out := make([]LineItem, len(r.items))
	copy(out, r.items)
	return out
}

// Discounts returns a copy of the applied discounts.
func (r *Receipt) Discounts() []pricing.Discount {
	out := make([]pricing.Discount, len(r.discounts))
	copy(out, r.discounts)
	return out
}

// Payments returns a copy of the payments.
func (r *Receipt) Payments() []Payment {
	out := make([]Payment, len(r.payments))
	copy(out, r.payments)
	return out
}

// Subtotal sums the line totals.
func (r *Receipt) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.items {
		total = total.Add(it.Total)
	}
	return total
}

// Savings sums the discounts as a positive amount.
func (r *Receipt) Savings() decimal.Decimal {
	return pricing.TotalSavings(r.discounts)
}

// Total is line totals plus discounts plus payments.
func (r *Receipt) Total() decimal.Decimal {
	total := r.Subtotal()
	for _, d := range r.discounts {
		total = total.Add(d.Amount)
	}
	for _, p := range r.payments {
		total = total.Add(p.Amount)
	}
	return total
}
