package voucher

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func juiceCoupon(t *testing.T) *Coupon {
	t.Helper()
	c, err := New(Params{
		Product:       catalog.NewProduct("orange juice", catalog.UnitEach),
		RequiredQty:   decimal.NewFromInt(6),
		DiscountedQty: decimal.NewFromInt(6),
		Percent:       decimal.NewFromInt(50),
		ValidFrom:     day(2025, 11, 13),
		ValidTo:       day(2025, 11, 15),
		Description:   "orange juice coupon",
	})
	require.NoError(t, err)
	return c
}

func TestValidityWindowIsInclusive(t *testing.T) {
	c := juiceCoupon(t)

	require.True(t, c.IsValidOn(day(2025, 11, 13)))
	require.True(t, c.IsValidOn(time.Date(2025, 11, 15, 23, 59, 0, 0, time.UTC)))
	require.ErrorIs(t, c.Validate(day(2025, 11, 12)), ErrCouponInactive)
	require.ErrorIs(t, c.Validate(day(2025, 11, 16)), ErrCouponExpired)
}

func TestRedeemOnlyOnce(t *testing.T) {
	c := juiceCoupon(t)

	require.True(t, c.Redeem())
	require.False(t, c.Redeem())
	require.True(t, c.Redeemed())
	require.False(t, c.IsValidOn(day(2025, 11, 14)), "spent coupon must fail validity inside its window")
	require.ErrorIs(t, c.Validate(day(2025, 11, 14)), ErrCouponRedeemed)
}

func TestReleaseReturnsCouponToUnspent(t *testing.T) {
	c := juiceCoupon(t)

	require.False(t, c.Release())
	require.True(t, c.Redeem())
	require.True(t, c.Release())
	require.False(t, c.Redeemed())
	require.True(t, c.IsValidOn(day(2025, 11, 14)))
	require.True(t, c.Redeem())
}

func TestNewRejectsMalformedCoupons(t *testing.T) {
	base := Params{
		Product:       catalog.NewProduct("orange juice", catalog.UnitEach),
		RequiredQty:   decimal.NewFromInt(6),
		DiscountedQty: decimal.NewFromInt(6),
		Percent:       decimal.NewFromInt(50),
		ValidFrom:     day(2025, 11, 13),
		ValidTo:       day(2025, 11, 15),
	}

	cases := map[string]func(p *Params){
		"zero required":     func(p *Params) { p.RequiredQty = decimal.Zero },
		"negative discount": func(p *Params) { p.DiscountedQty = decimal.NewFromInt(-1) },
		"percent over 100":  func(p *Params) { p.Percent = decimal.NewFromInt(101) },
		"inverted window":   func(p *Params) { p.ValidTo = day(2025, 11, 1) },
		"missing product":   func(p *Params) { p.Product = catalog.Product{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			_, err := New(p)
			if !errors.Is(err, ErrInvalidCoupon) {
				t.Fatalf("expected ErrInvalidCoupon, got %v", err)
			}
		})
	}
}

func TestDefaultDescription(t *testing.T) {
	c, err := New(Params{
		Product:       catalog.NewProduct("milk", catalog.UnitEach),
		RequiredQty:   decimal.NewFromInt(1),
		DiscountedQty: decimal.NewFromInt(1),
		Percent:       decimal.NewFromInt(10),
		ValidFrom:     day(2025, 1, 1),
		ValidTo:       day(2025, 1, 1),
	})
	require.NoError(t, err)
	require.Equal(t, "coupon", c.Description)
}

func TestNilCouponIsNeverValid(t *testing.T) {
	var c *Coupon
	require.False(t, c.IsValidOn(day(2025, 1, 1)))
}
