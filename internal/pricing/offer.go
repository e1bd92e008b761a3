package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

var (
	// ErrInvalidOffer is returned when a regular offer definition is malformed.
	ErrInvalidOffer = errors.New("invalid offer")
	// ErrInvalidBundle is returned when a bundle definition is malformed.
	ErrInvalidBundle = errors.New("invalid bundle offer")
)

// DefaultBundlePercent is applied when a bundle definition omits its percent.
var DefaultBundlePercent = decimal.NewFromInt(10)

// Kind enumerates the supported offer shapes.
type Kind int

const (
	KindThreeForTwo Kind = iota + 1
	KindPercentOff
	KindNForAmount
	KindBundle
	KindCoupon
)

func (k Kind) String() string {
	switch k {
	case KindThreeForTwo:
		return "three_for_two"
	case KindPercentOff:
		return "percent_off"
	case KindNForAmount:
		return "n_for_amount"
	case KindBundle:
		return "bundle"
	case KindCoupon:
		return "coupon"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Offer is a promotional rule attached to a single product. GroupSize is only
// meaningful for KindNForAmount.
type Offer struct {
	Kind      Kind
	Product   catalog.Product
	Argument  decimal.Decimal
	GroupSize int64
}

// ThreeForTwo gives one unit free for every three bought.
func ThreeForTwo(p catalog.Product) Offer {
	return Offer{Kind: KindThreeForTwo, Product: p}
}

// PercentOff discounts every unit by percent.
func PercentOff(p catalog.Product, percent decimal.Decimal) Offer {
	return Offer{Kind: KindPercentOff, Product: p, Argument: percent}
}

// NForAmount prices groups of size units at a fixed amount.
func NForAmount(p catalog.Product, size int64, amount decimal.Decimal) Offer {
	return Offer{Kind: KindNForAmount, Product: p, Argument: amount, GroupSize: size}
}

// TwoForAmount is NForAmount with a group size of two.
func TwoForAmount(p catalog.Product, amount decimal.Decimal) Offer {
	return NForAmount(p, 2, amount)
}

// FiveForAmount is NForAmount with a group size of five.
func FiveForAmount(p catalog.Product, amount decimal.Decimal) Offer {
	return NForAmount(p, 5, amount)
}

// ParseOffer builds a regular offer from its data-file name
// (THREE_FOR_TWO, TEN_PERCENT_DISCOUNT, TWO_FOR_AMOUNT, FIVE_FOR_AMOUNT).
func ParseOffer(name string, p catalog.Product, argument decimal.Decimal) (Offer, error) {
	var o Offer
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "THREE_FOR_TWO":
		o = ThreeForTwo(p)
	case "TEN_PERCENT_DISCOUNT", "PERCENT_OFF":
		o = PercentOff(p, argument)
	case "TWO_FOR_AMOUNT":
		o = TwoForAmount(p, argument)
	case "FIVE_FOR_AMOUNT":
		o = FiveForAmount(p, argument)
	default:
		return Offer{}, fmt.Errorf("unsupported offer %q: %w", name, ErrInvalidOffer)
	}
	if err := o.Validate(); err != nil {
		return Offer{}, err
	}
	return o, nil
}

// Validate checks the offer arguments for its kind.
func (o Offer) Validate() error {
	switch o.Kind {
	case KindThreeForTwo:
		return nil
	case KindPercentOff:
		if o.Argument.IsNegative() || o.Argument.GreaterThan(hundred) {
			return fmt.Errorf("percent must be within 0..100: %w", ErrInvalidOffer)
		}
		return nil
	case KindNForAmount:
		if o.GroupSize <= 0 {
			return fmt.Errorf("group size must be positive: %w", ErrInvalidOffer)
		}
		if o.Argument.IsNegative() {
			return fmt.Errorf("amount must not be negative: %w", ErrInvalidOffer)
		}
		return nil
	case KindBundle, KindCoupon:
		return fmt.Errorf("%s is not a per-product offer: %w", o.Kind, ErrInvalidOffer)
	default:
		return fmt.Errorf("unknown kind %d: %w", int(o.Kind), ErrInvalidOffer)
	}
}

// Offers is the regular offer pool, at most one offer per product.
type Offers map[catalog.Product]Offer

// Add registers o, replacing any offer already attached to its product.
func (pool Offers) Add(o Offer) {
	pool[o.Product] = o
}

// BundleItem is one required line of a bundle.
type BundleItem struct {
	Product  catalog.Product
	Quantity decimal.Decimal
}

// BundleOffer discounts the full-price subtotal of a set of products bought together.
type BundleOffer struct {
	Name    string
	Items   []BundleItem
	Percent decimal.Decimal
}

// NewBundleOffer validates the definition. An empty item list is accepted and
// simply never realisable.
func NewBundleOffer(name string, items []BundleItem, percent decimal.Decimal) (BundleOffer, error) {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return BundleOffer{}, fmt.Errorf("percent must be within 0..100: %w", ErrInvalidBundle)
	}
	seen := make(map[catalog.Product]struct{}, len(items))
	copied := make([]BundleItem, 0, len(items))
	for _, it := range items {
		if !it.Quantity.IsPositive() {
			return BundleOffer{}, fmt.Errorf("%s: required quantity must be positive: %w", it.Product.Name, ErrInvalidBundle)
		}
		if _, dup := seen[it.Product]; dup {
			return BundleOffer{}, fmt.Errorf("%s: listed twice: %w", it.Product.Name, ErrInvalidBundle)
		}
		seen[it.Product] = struct{}{}
		copied = append(copied, it)
	}
	return BundleOffer{Name: name, Items: copied, Percent: percent}, nil
}

// Discount is a signed price reduction anchored to a product. Amount is never positive.
type Discount struct {
	Product     catalog.Product
	Description string
	Amount      decimal.Decimal
}

// Savings returns the positive amount saved.
func (d Discount) Savings() decimal.Decimal {
	return d.Amount.Neg()
}

// TotalSavings sums the savings of ds.
func TotalSavings(ds []Discount) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d.Savings())
	}
	return total
}
