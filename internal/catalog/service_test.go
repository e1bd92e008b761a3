package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUnitPriceUnknownProduct(t *testing.T) {
	c := NewMemory()
	_, err := c.UnitPrice(NewProduct("milk", UnitEach))
	if !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestProductIdentityIncludesUnit(t *testing.T) {
	c := NewMemory()
	c.Add(NewProduct("apples", UnitKilo), decimal.RequireFromString("1.99"))

	price, err := c.UnitPrice(Product{Name: "apples", Unit: UnitKilo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("1.99")) {
		t.Fatalf("expected 1.99, got %s", price)
	}
	if _, err := c.UnitPrice(Product{Name: "apples", Unit: UnitEach}); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected apples/EACH to be unknown, got %v", err)
	}
}

func TestEntriesSortedByName(t *testing.T) {
	c := NewMemory()
	c.Add(NewProduct("toothpaste", UnitEach), decimal.RequireFromString("1.79"))
	c.Add(NewProduct("apples", UnitKilo), decimal.RequireFromString("1.99"))
	c.Add(NewProduct("milk", UnitEach), decimal.RequireFromString("1.50"))

	entries := c.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Product.Name != "apples" || entries[2].Product.Name != "toothpaste" {
		t.Fatalf("unexpected order %#v", entries)
	}
	if p, ok := c.Lookup("milk"); !ok || p.Unit != UnitEach {
		t.Fatalf("lookup milk failed: %#v %v", p, ok)
	}
}

func TestLookupUnitKeepsBothUnitsOfAName(t *testing.T) {
	c := NewMemory()
	c.Add(NewProduct("cherry tomatoes", UnitEach), decimal.RequireFromString("0.69"))
	c.Add(NewProduct("cherry tomatoes", UnitKilo), decimal.RequireFromString("4.20"))
	c.Add(NewProduct("cherry tomatoes", UnitEach), decimal.RequireFromString("0.59"))

	if p, ok := c.Lookup(" cherry tomatoes "); !ok || p.Unit != UnitEach {
		t.Fatalf("expected first registered unit EACH, got %#v %v", p, ok)
	}
	p, ok := c.LookupUnit("cherry tomatoes", UnitKilo)
	if !ok || p.Unit != UnitKilo {
		t.Fatalf("expected KILO product, got %#v %v", p, ok)
	}
	price, err := c.UnitPrice(p)
	if err != nil || !price.Equal(decimal.RequireFromString("4.20")) {
		t.Fatalf("expected 4.20, got %s %v", price, err)
	}
	if _, ok := c.LookupUnit("basil", UnitKilo); ok {
		t.Fatal("expected basil to be unknown")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 products, got %d", c.Len())
	}
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit(" kilo ")
	if err != nil || u != UnitKilo {
		t.Fatalf("expected KILO, got %v %v", u, err)
	}
	if _, err := ParseUnit("litre"); err == nil {
		t.Fatal("expected error for unknown unit")
	}
	if UnitEach.String() != "EACH" {
		t.Fatalf("unexpected string %q", UnitEach.String())
	}
}
