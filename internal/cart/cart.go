package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// ErrInvalidQuantity is returned when a line is added with a non-positive quantity.
var ErrInvalidQuantity = errors.New("invalid quantity")

// Line is one addition to the cart, kept in insertion order for the receipt.
type Line struct {
	Product  catalog.Product
	Quantity decimal.Decimal
}

// ShoppingCart records the lines a customer adds along with the per-product totals.
type ShoppingCart struct {
	lines      []Line
	quantities *pricing.Quantities
}

// New returns an empty cart.
func New() *ShoppingCart {
	return &ShoppingCart{quantities: pricing.NewQuantities()}
}

// AddItem adds a single unit of p.
func (c *ShoppingCart) AddItem(p catalog.Product) {
	_ = c.AddItemQuantity(p, decimal.NewFromInt(1))
}

// AddItemQuantity appends a line for qty units of p.
func (c *ShoppingCart) AddItemQuantity(p catalog.Product, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%s: %s: %w", p.Name, qty.String(), ErrInvalidQuantity)
	}
	if c.quantities == nil {
		c.quantities = pricing.NewQuantities()
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: qty})
	c.quantities.Add(p, qty)
	return nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *ShoppingCart) Items() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantities returns a snapshot of the summed quantity per product.
func (c *ShoppingCart) Quantities() *pricing.Quantities {
	return c.quantities.Clone()
}

// Empty reports whether nothing has been added.
func (c *ShoppingCart) Empty() bool {
	return len(c.lines) == 0
}
