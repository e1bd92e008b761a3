package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrUnknownProduct is returned when a price is requested for a product that was never registered.
var ErrUnknownProduct = errors.New("unknown product")

// Catalog resolves unit prices for products.
type Catalog interface {
	UnitPrice(p Product) (decimal.Decimal, error)
}

// Entry is a registered product with its unit price.
type Entry struct {
	Product Product
	Price   decimal.Decimal
}

// Memory is an in-memory catalog. Reads are safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	prices map[Product]decimal.Decimal
	// byName keeps every unit a name is sold in, in registration order.
	byName map[string][]Product
}

// NewMemory builds an empty catalog.
func NewMemory() *Memory {
	return &Memory{
		prices: make(map[Product]decimal.Decimal),
		byName: make(map[string][]Product),
	}
}

// Add registers or reprices a product.
func (m *Memory) Add(p Product, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.prices[p]; !ok {
		m.byName[p.Name] = append(m.byName[p.Name], p)
	}
	m.prices[p] = price
}

// UnitPrice implements Catalog.
func (m *Memory) UnitPrice(p Product) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	price, ok := m.prices[p]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", p.Name, ErrUnknownProduct)
	}
	return price, nil
}

// Lookup finds a product by name, ignoring surrounding whitespace. A name sold
// in several units resolves to the one registered first.
func (m *Memory) Lookup(name string) (Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	units := m.byName[strings.TrimSpace(name)]
	if len(units) == 0 {
		return Product{}, false
	}
	return units[0], true
}

// LookupUnit finds the product sold under name in the given unit.
func (m *Memory) LookupUnit(name string, unit Unit) (Product, bool) {
	p := NewProduct(strings.TrimSpace(name), unit)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.prices[p]
	return p, ok
}

// Len reports the number of registered products.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.prices)
}

// Entries lists the catalog sorted by product name.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.prices))
	for p, price := range m.prices {
		out = append(out, Entry{Product: p, Price: price})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product.Name == out[j].Product.Name {
			return out[i].Product.Unit < out[j].Product.Unit
		}
		return out[i].Product.Name < out[j].Product.Name
	})
	return out
}
