package voucher

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

var (
	// ErrInvalidCoupon is returned when a coupon definition is malformed.
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrCouponInactive is returned when the checkout date precedes the validity window.
	ErrCouponInactive = errors.New("coupon not active")
	// ErrCouponExpired is returned when the checkout date is after the validity window.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponRedeemed is returned once a coupon has been spent.
	ErrCouponRedeemed = errors.New("coupon already redeemed")
)

const defaultDescription = "coupon"

// Params describes a coupon before validation.
type Params struct {
	Code          string
	Product       catalog.Product
	RequiredQty   decimal.Decimal
	DiscountedQty decimal.Decimal
	Percent       decimal.Decimal
	ValidFrom     time.Time
	ValidTo       time.Time
	Description   string
}

// Coupon grants Percent off up to DiscountedQty units of Product once RequiredQty
// units have been bought. It can be redeemed exactly once.
type Coupon struct {
	Code          string
	Product       catalog.Product
	RequiredQty   decimal.Decimal
	DiscountedQty decimal.Decimal
	Percent       decimal.Decimal
	ValidFrom     time.Time
	ValidTo       time.Time
	Description   string

	redeemed atomic.Bool
}

// New validates params and builds a coupon.
func New(p Params) (*Coupon, error) {
	if strings.TrimSpace(p.Product.Name) == "" {
		return nil, fmt.Errorf("product required: %w", ErrInvalidCoupon)
	}
	if !p.RequiredQty.IsPositive() {
		return nil, fmt.Errorf("required quantity must be positive: %w", ErrInvalidCoupon)
	}
	if !p.DiscountedQty.IsPositive() {
		return nil, fmt.Errorf("discounted quantity must be positive: %w", ErrInvalidCoupon)
	}
	if p.Percent.IsNegative() || p.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("percent must be within 0..100: %w", ErrInvalidCoupon)
	}
	if p.ValidFrom.IsZero() || p.ValidTo.IsZero() {
		return nil, fmt.Errorf("validity window required: %w", ErrInvalidCoupon)
	}
	from, to := DateOf(p.ValidFrom), DateOf(p.ValidTo)
	if to.Before(from) {
		return nil, fmt.Errorf("valid_to before valid_from: %w", ErrInvalidCoupon)
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		desc = defaultDescription
	}
	return &Coupon{
		Code:          strings.TrimSpace(p.Code),
		Product:       p.Product,
		RequiredQty:   p.RequiredQty,
		DiscountedQty: p.DiscountedQty,
		Percent:       p.Percent,
		ValidFrom:     from,
		ValidTo:       to,
		Description:   desc,
	}, nil
}

// Validate reports why the coupon cannot be used on the given date, if at all.
// The window is inclusive on both ends and compared by calendar day.
func (c *Coupon) Validate(on time.Time) error {
	if c.redeemed.Load() {
		return ErrCouponRedeemed
	}
	day := DateOf(on)
	if day.Before(c.ValidFrom) {
		return ErrCouponInactive
	}
	if day.After(c.ValidTo) {
		return ErrCouponExpired
	}
	return nil
}

// IsValidOn reports whether the coupon can be applied on the given date.
func (c *Coupon) IsValidOn(on time.Time) bool {
	if c == nil {
		return false
	}
	return c.Validate(on) == nil
}

// Redeem marks the coupon as spent. It returns false if it was already spent.
func (c *Coupon) Redeem() bool {
	return c.redeemed.CompareAndSwap(false, true)
}

// Release returns a redeemed coupon to the unspent state. It reports false if
// the coupon was not spent.
func (c *Coupon) Release() bool {
	return c.redeemed.CompareAndSwap(true, false)
}

// Redeemed reports whether the coupon has been spent.
func (c *Coupon) Redeemed() bool {
	return c.redeemed.Load()
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
