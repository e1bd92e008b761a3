package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

var (
	toothbrush = catalog.NewProduct("toothbrush", catalog.UnitEach)
	toothpaste = catalog.NewProduct("toothpaste", catalog.UnitEach)
	apples     = catalog.NewProduct("apples", catalog.UnitKilo)
	juice      = catalog.NewProduct("orange juice", catalog.UnitEach)

	checkoutDay = time.Date(2025, 11, 14, 10, 30, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func newPlanner() *Planner {
	c := catalog.NewMemory()
	c.Add(toothbrush, dec("0.99"))
	c.Add(toothpaste, dec("1.79"))
	c.Add(apples, dec("1.99"))
	c.Add(juice, dec("1.50"))
	return NewPlanner(pricing.NewCalculator(c))
}

func bundle(t *testing.T, percent string, items ...pricing.BundleItem) []pricing.BundleOffer {
	t.Helper()
	b, err := pricing.NewBundleOffer("test", items, dec(percent))
	require.NoError(t, err)
	return []pricing.BundleOffer{b}
}

func item(p catalog.Product, qty string) pricing.BundleItem {
	return pricing.BundleItem{Product: p, Quantity: dec(qty)}
}

func coupon(t *testing.T, required, discounted, percent string) *voucher.Coupon {
	t.Helper()
	c, err := voucher.New(voucher.Params{
		Product:       juice,
		RequiredQty:   dec(required),
		DiscountedQty: dec(discounted),
		Percent:       dec(percent),
		ValidFrom:     time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return c
}

func quantities(pairs ...any) *pricing.Quantities {
	q := pricing.NewQuantities()
	for i := 0; i+1 < len(pairs); i += 2 {
		q.Add(pairs[i].(catalog.Product), dec(pairs[i+1].(string)))
	}
	return q
}

func TestSelectBundleCoversBothPairs(t *testing.T) {
	sel, err := newPlanner().Select(context.Background(),
		quantities(toothbrush, "2", toothpaste, "2"),
		pricing.Offers{}, bundle(t, "10", item(toothbrush, "1"), item(toothpaste, "1")), nil, checkoutDay)
	require.NoError(t, err)
	require.Equal(t, PlanNoCoupon, sel.Plan)
	require.Len(t, sel.Discounts, 1)
	requireDecimal(t, "-0.556", sel.Discounts[0].Amount)
	requireDecimal(t, "0.556", sel.Savings)
}

func TestSelectBundleLeavesSurplusAtFullPrice(t *testing.T) {
	sel, err := newPlanner().Select(context.Background(),
		quantities(toothbrush, "2", toothpaste, "1"),
		pricing.Offers{}, bundle(t, "10", item(toothbrush, "1"), item(toothpaste, "1")), nil, checkoutDay)
	require.NoError(t, err)
	require.Len(t, sel.Discounts, 1)
	requireDecimal(t, "-0.278", sel.Discounts[0].Amount)
}

func TestSelectCouponBeatsBundle(t *testing.T) {
	cp := coupon(t, "6", "6", "50")
	sel, err := newPlanner().Select(context.Background(),
		quantities(juice, "12", toothbrush, "1"),
		pricing.Offers{}, bundle(t, "10", item(juice, "1"), item(toothbrush, "1")), cp, checkoutDay)
	require.NoError(t, err)
	require.Equal(t, PlanCouponFirst, sel.Plan)
	require.True(t, sel.UsedCoupon)
	require.Len(t, sel.Discounts, 1)
	requireDecimal(t, "-4.5", sel.Discounts[0].Amount)
	require.False(t, cp.Redeemed())
}

func TestSelectCouponAfterBundlesWins(t *testing.T) {
	cp := coupon(t, "1", "10", "10")
	sel, err := newPlanner().Select(context.Background(),
		quantities(juice, "5", toothbrush, "1"),
		pricing.Offers{}, bundle(t, "50", item(juice, "2"), item(toothbrush, "1")), cp, checkoutDay)
	require.NoError(t, err)
	require.Equal(t, PlanCouponAfterBundles, sel.Plan)
	require.Len(t, sel.Discounts, 2)
	requireDecimal(t, "-1.995", sel.Discounts[0].Amount)
	requireDecimal(t, "-0.3", sel.Discounts[1].Amount)
	requireDecimal(t, "2.295", sel.Savings)
	require.False(t, cp.Redeemed())
}

func TestSelectTieGoesToEarliestPlan(t *testing.T) {
	cp := coupon(t, "1", "1", "50")
	sel, err := newPlanner().Select(context.Background(),
		quantities(juice, "4", toothbrush, "1"),
		pricing.Offers{}, bundle(t, "10", item(juice, "2"), item(toothbrush, "1")), cp, checkoutDay)
	require.NoError(t, err)
	require.Equal(t, PlanCouponFirst, sel.Plan)
	requireDecimal(t, "1.149", sel.Savings)
	require.Equal(t, "coupon 50% off", sel.Discounts[0].Description)
}

func TestSelectLosingCouponIsNotRedeemed(t *testing.T) {
	cp := coupon(t, "6", "1", "10")
	offers := pricing.Offers{}
	offers.Add(pricing.ThreeForTwo(juice))

	sel, err := newPlanner().Select(context.Background(), quantities(juice, "7"), offers, nil, cp, checkoutDay)
	require.NoError(t, err)
	require.Equal(t, PlanNoCoupon, sel.Plan)
	require.False(t, sel.UsedCoupon)
	requireDecimal(t, "3", sel.Savings)
	require.False(t, cp.Redeemed())
}

func TestSelectIgnoresExpiredCoupon(t *testing.T) {
	cp := coupon(t, "6", "6", "50")
	sel, err := newPlanner().Select(context.Background(), quantities(juice, "12"),
		pricing.Offers{}, nil, cp, checkoutDay.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Empty(t, sel.Discounts)
	require.False(t, cp.Redeemed())
}

func TestSelectSpentCouponIsNotReused(t *testing.T) {
	cp := coupon(t, "6", "6", "50")
	q := quantities(juice, "12")
	first, err := newPlanner().Select(context.Background(), q, pricing.Offers{}, nil, cp, checkoutDay)
	require.NoError(t, err)
	require.True(t, first.UsedCoupon)
	require.True(t, cp.Redeem())

	second, err := newPlanner().Select(context.Background(), q, pricing.Offers{}, nil, cp, checkoutDay)
	require.NoError(t, err)
	require.False(t, second.UsedCoupon)
	require.Empty(t, second.Discounts)
}

func TestSelectTieWithoutCouponKeepsCouponUnspent(t *testing.T) {
	cp := coupon(t, "1", "1", "50")
	offers := pricing.Offers{}
	offers.Add(pricing.PercentOff(juice, dec("25")))

	sel, err := newPlanner().Select(context.Background(), quantities(juice, "2"), offers, nil, cp, checkoutDay)
	require.NoError(t, err)
	require.Equal(t, PlanNoCoupon, sel.Plan)
	require.False(t, sel.UsedCoupon)
	requireDecimal(t, "0.75", sel.Savings)
	require.Len(t, sel.Discounts, 1)
	require.Equal(t, juice, sel.Discounts[0].Product)
	require.False(t, cp.Redeemed())
}

func TestSelectionWithoutCouponKeepsPlainPlan(t *testing.T) {
	cp := coupon(t, "6", "6", "50")
	offers := pricing.Offers{}
	offers.Add(pricing.PercentOff(juice, dec("10")))

	sel, err := newPlanner().Select(context.Background(), quantities(juice, "12"), offers, nil, cp, checkoutDay)
	require.NoError(t, err)
	require.True(t, sel.UsedCoupon)
	require.Equal(t, PlanCouponFirst, sel.Plan)
	requireDecimal(t, "4.5", sel.Savings)

	plain := sel.WithoutCoupon()
	require.Equal(t, PlanNoCoupon, plain.Plan)
	require.False(t, plain.UsedCoupon)
	requireDecimal(t, "1.8", plain.Savings)
	require.Len(t, plain.Discounts, 1)
	require.Equal(t, plain, plain.WithoutCoupon())
}

func TestSelectRegularOffersFollowCartOrder(t *testing.T) {
	offers := pricing.Offers{}
	offers.Add(pricing.ThreeForTwo(toothbrush))
	offers.Add(pricing.PercentOff(apples, dec("10")))
	offers.Add(pricing.FiveForAmount(toothpaste, dec("7.49")))

	q := quantities(apples, "1.2", toothpaste, "5", toothbrush, "3")
	p := newPlanner()
	first, err := p.Select(context.Background(), q, offers, nil, nil, checkoutDay)
	require.NoError(t, err)
	require.Len(t, first.Discounts, 3)
	require.Equal(t, []catalog.Product{apples, toothpaste, toothbrush},
		[]catalog.Product{first.Discounts[0].Product, first.Discounts[1].Product, first.Discounts[2].Product})

	for i := 0; i < 5; i++ {
		again, err := p.Select(context.Background(), q, offers, nil, nil, checkoutDay)
		require.NoError(t, err)
		require.Equal(t, first.Plan, again.Plan)
		require.Len(t, again.Discounts, len(first.Discounts))
		for j := range first.Discounts {
			require.Equal(t, first.Discounts[j].Product, again.Discounts[j].Product)
			require.True(t, first.Discounts[j].Amount.Equal(again.Discounts[j].Amount))
		}
	}
	requireDecimal(t, "3", q.Get(toothbrush))
}

func TestSelectUnknownProductAborts(t *testing.T) {
	soap := catalog.NewProduct("soap", catalog.UnitEach)
	offers := pricing.Offers{}
	offers.Add(pricing.ThreeForTwo(soap))

	cp := coupon(t, "6", "6", "50")
	_, err := newPlanner().Select(context.Background(), quantities(soap, "3", juice, "12"), offers, nil, cp, checkoutDay)
	require.ErrorIs(t, err, catalog.ErrUnknownProduct)
	require.False(t, cp.Redeemed())
}
