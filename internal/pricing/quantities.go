package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

// Quantities is a per-product quantity pool that remembers the order in which
// products were first added. Products whose quantity drops to zero or below
// are removed.
type Quantities struct {
	order  []catalog.Product
	values map[catalog.Product]decimal.Decimal
}

// NewQuantities returns an empty pool.
func NewQuantities() *Quantities {
	return &Quantities{values: make(map[catalog.Product]decimal.Decimal)}
}

// Add increases the quantity of p.
func (q *Quantities) Add(p catalog.Product, qty decimal.Decimal) {
	if cur, ok := q.values[p]; ok {
		q.values[p] = cur.Add(qty)
		return
	}
	q.order = append(q.order, p)
	q.values[p] = qty
}

// Has reports whether p is present.
func (q *Quantities) Has(p catalog.Product) bool {
	if q == nil {
		return false
	}
	_, ok := q.values[p]
	return ok
}

// Get returns the quantity of p, zero when absent.
func (q *Quantities) Get(p catalog.Product) decimal.Decimal {
	if q == nil {
		return decimal.Zero
	}
	if v, ok := q.values[p]; ok {
		return v
	}
	return decimal.Zero
}

// Consume subtracts qty from p if present, dropping p once nothing is left.
func (q *Quantities) Consume(p catalog.Product, qty decimal.Decimal) {
	cur, ok := q.values[p]
	if !ok {
		return
	}
	left := cur.Sub(qty)
	if left.IsPositive() {
		q.values[p] = left
		return
	}
	delete(q.values, p)
	for i, existing := range q.order {
		if existing == p {
			q.order = append(q.order[:i:i], q.order[i+1:]...)
			break
		}
	}
}

// Products lists the present products in insertion order.
func (q *Quantities) Products() []catalog.Product {
	if q == nil {
		return nil
	}
	out := make([]catalog.Product, len(q.order))
	copy(out, q.order)
	return out
}

// Len returns the number of distinct products.
func (q *Quantities) Len() int {
	if q == nil {
		return 0
	}
	return len(q.order)
}

// Clone returns an independent copy.
func (q *Quantities) Clone() *Quantities {
	out := NewQuantities()
	if q == nil {
		return out
	}
	out.order = make([]catalog.Product, len(q.order))
	copy(out.order, q.order)
	for p, v := range q.values {
		out.values[p] = v
	}
	return out
}
