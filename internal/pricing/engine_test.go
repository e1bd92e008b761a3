package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

func newTestCatalog() *catalog.Memory {
	c := catalog.NewMemory()
	c.Add(toothbrush, dec("0.99"))
	c.Add(toothpaste, dec("1.79"))
	c.Add(apples, dec("1.99"))
	c.Add(soap, dec("2.0"))
	c.Add(juice, dec("1.50"))
	return c
}

func starterBundle(t *testing.T) BundleOffer {
	t.Helper()
	b, err := NewBundleOffer("starter", []BundleItem{
		{Product: toothbrush, Quantity: dec("1")},
		{Product: toothpaste, Quantity: dec("1")},
	}, DefaultBundlePercent)
	require.NoError(t, err)
	return b
}

func juiceCoupon(t *testing.T) *voucher.Coupon {
	t.Helper()
	c, err := voucher.New(voucher.Params{
		Product:       juice,
		RequiredQty:   dec("6"),
		DiscountedQty: dec("6"),
		Percent:       dec("50"),
		ValidFrom:     time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		Description:   "orange juice coupon",
	})
	require.NoError(t, err)
	return c
}

func TestCalculatorDispatch(t *testing.T) {
	calc := NewCalculator(newTestCatalog())

	d, ok, err := calc.DiscountAt(ThreeForTwo(toothbrush), dec("4"))
	require.NoError(t, err)
	require.True(t, ok)
	requireDecimal(t, "-0.99", d.Amount)

	_, ok = calc.Discount(Offer{Kind: KindBundle, Product: toothbrush}, dec("4"), dec("0.99"))
	require.False(t, ok)

	_, ok = calc.Discount(PercentOff(toothbrush, dec("10")), dec("0"), dec("0.99"))
	require.False(t, ok, "a zero reduction is not reported")
}

func TestCalculatorDiscountAtUnknownProduct(t *testing.T) {
	calc := NewCalculator(catalog.NewMemory())
	_, _, err := calc.DiscountAt(ThreeForTwo(toothbrush), dec("3"))
	require.ErrorIs(t, err, catalog.ErrUnknownProduct)
}

func TestEvaluateBundleScalesWithCount(t *testing.T) {
	calc := NewCalculator(newTestCatalog())
	q := NewQuantities()
	q.Add(toothbrush, dec("2"))
	q.Add(toothpaste, dec("2"))

	b := starterBundle(t)
	count := calc.CountBundles(b, q)
	require.EqualValues(t, 2, count)

	d, ok, err := calc.EvaluateBundle(b, count, q, Offers{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, toothbrush, d.Product)
	require.Equal(t, "bundle 10% off", d.Description)
	requireDecimal(t, "-0.556", d.Amount)
}

func TestEvaluateBundleLosesToBetterRegularOffer(t *testing.T) {
	calc := NewCalculator(newTestCatalog())
	q := NewQuantities()
	q.Add(toothpaste, dec("5"))
	q.Add(toothbrush, dec("1"))
	offers := Offers{}
	offers.Add(FiveForAmount(toothpaste, dec("7.49")))

	_, ok, err := calc.EvaluateBundle(starterBundle(t), 1, q, offers)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvaluateBundleWinsTies(t *testing.T) {
	calc := NewCalculator(newTestCatalog())
	q := NewQuantities()
	q.Add(toothbrush, dec("1"))
	q.Add(toothpaste, dec("1"))
	offers := Offers{}
	offers.Add(PercentOff(toothbrush, dec("10")))
	offers.Add(PercentOff(toothpaste, dec("10")))

	d, ok, err := calc.EvaluateBundle(starterBundle(t), 1, q, offers)
	require.NoError(t, err)
	require.True(t, ok)
	requireDecimal(t, "-0.278", d.Amount)
}

func TestEvaluateCoupon(t *testing.T) {
	calc := NewCalculator(newTestCatalog())
	on := time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC)

	q := NewQuantities()
	q.Add(juice, dec("12"))
	res, ok, err := calc.EvaluateCoupon(juiceCoupon(t), q, on)
	require.NoError(t, err)
	require.True(t, ok)
	requireDecimal(t, "-4.5", res.Discount.Amount)
	requireDecimal(t, "12", res.Consumed)
	require.Equal(t, "orange juice coupon 50% off", res.Discount.Description)

	partial := NewQuantities()
	partial.Add(juice, dec("9"))
	res, ok, err = calc.EvaluateCoupon(juiceCoupon(t), partial, on)
	require.NoError(t, err)
	require.True(t, ok)
	requireDecimal(t, "-2.25", res.Discount.Amount)
	requireDecimal(t, "9", res.Consumed)
	requireDecimal(t, "9", partial.Get(juice))
}

func TestEvaluateCouponNotApplicable(t *testing.T) {
	calc := NewCalculator(newTestCatalog())
	on := time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC)

	exact := NewQuantities()
	exact.Add(juice, dec("6"))
	_, ok, err := calc.EvaluateCoupon(juiceCoupon(t), exact, on)
	require.NoError(t, err)
	require.False(t, ok, "available must strictly exceed the required quantity")

	q := NewQuantities()
	q.Add(juice, dec("12"))
	_, ok, err = calc.EvaluateCoupon(juiceCoupon(t), q, on.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.False(t, ok, "expired coupon")

	spent := juiceCoupon(t)
	spent.Redeem()
	_, ok, err = calc.EvaluateCoupon(spent, q, on)
	require.NoError(t, err)
	require.False(t, ok, "redeemed coupon")

	_, ok, err = calc.EvaluateCoupon(nil, q, on)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvaluateCouponUnknownProduct(t *testing.T) {
	calc := NewCalculator(catalog.NewMemory())
	q := NewQuantities()
	q.Add(juice, dec("12"))
	_, _, err := calc.EvaluateCoupon(juiceCoupon(t), q, time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, catalog.ErrUnknownProduct)
}
