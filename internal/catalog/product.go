package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidUnit is returned when a unit name is not recognised.
var ErrInvalidUnit = errors.New("invalid unit")

// Unit describes how a product is measured at the till.
type Unit int

const (
	// UnitEach is a discrete, counted product.
	UnitEach Unit = iota + 1
	// UnitKilo is a product sold by weight.
	UnitKilo
)

// String returns the canonical upper-case name used in data files.
func (u Unit) String() string {
	switch u {
	case UnitEach:
		return "EACH"
	case UnitKilo:
		return "KILO"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// ParseUnit converts EACH/KILO (case-insensitive) into a Unit.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "EACH":
		return UnitEach, nil
	case "KILO":
		return UnitKilo, nil
	default:
		return 0, fmt.Errorf("unknown unit %q: %w", value, ErrInvalidUnit)
	}
}

// Product is identified by its name and unit of measure. It is comparable and
// safe to use as a map key.
type Product struct {
	Name string
	Unit Unit
}

// NewProduct constructs a product value.
func NewProduct(name string, unit Unit) Product {
	return Product{Name: name, Unit: unit}
}

func (p Product) String() string {
	return p.Name
}
