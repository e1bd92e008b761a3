package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

// Calculator dispatches offers to their discount rule and prices bundles and
// coupons against a shared catalog.
type Calculator struct {
	catalog catalog.Catalog
}

// NewCalculator builds a calculator backed by c.
func NewCalculator(c catalog.Catalog) *Calculator {
	return &Calculator{catalog: c}
}

// Discount computes the discount o grants on qty units at unitPrice. Only
// reductions are reported; bundle and coupon kinds never apply here.
func (c *Calculator) Discount(o Offer, qty, unitPrice decimal.Decimal) (Discount, bool) {
	var (
		d  Discount
		ok bool
	)
	switch o.Kind {
	case KindThreeForTwo:
		d, ok = threeForTwo(o.Product, qty, unitPrice)
	case KindPercentOff:
		d, ok = percentOff(o.Product, o.Argument, qty, unitPrice)
	case KindNForAmount:
		d, ok = nForAmount(o.Product, o.GroupSize, o.Argument, qty, unitPrice)
	case KindBundle, KindCoupon:
		return Discount{}, false
	default:
		return Discount{}, false
	}
	if !ok || !d.Amount.IsNegative() {
		return Discount{}, false
	}
	return d, true
}

// DiscountAt looks up the catalog price of o's product and computes its discount for qty.
func (c *Calculator) DiscountAt(o Offer, qty decimal.Decimal) (Discount, bool, error) {
	price, err := c.catalog.UnitPrice(o.Product)
	if err != nil {
		return Discount{}, false, err
	}
	d, ok := c.Discount(o, qty, price)
	return d, ok, nil
}

// CountBundles returns the number of complete bundles q can fund.
func (c *Calculator) CountBundles(b BundleOffer, q *Quantities) int64 {
	return countBundles(b, q)
}

// EvaluateBundle prices count bundles and compares the result with what the
// regular offers would grant on the same products at their available
// quantities. The bundle wins ties.
func (c *Calculator) EvaluateBundle(b BundleOffer, count int64, q *Quantities, offers Offers) (Discount, bool, error) {
	if len(b.Items) == 0 || count <= 0 {
		return Discount{}, false, nil
	}
	bundleTotal := decimal.Zero
	for _, it := range b.Items {
		price, err := c.catalog.UnitPrice(it.Product)
		if err != nil {
			return Discount{}, false, err
		}
		bundleTotal = bundleTotal.Add(price.Mul(it.Quantity))
	}
	amount := bundleTotal.Mul(b.Percent).Div(hundred).Mul(decimal.NewFromInt(count))

	alternative := decimal.Zero
	for _, it := range b.Items {
		o, ok := offers[it.Product]
		if !ok {
			continue
		}
		d, applies, err := c.DiscountAt(o, q.Get(it.Product))
		if err != nil {
			return Discount{}, false, err
		}
		if applies {
			alternative = alternative.Add(d.Amount)
		}
	}
	if amount.LessThan(alternative.Abs()) {
		return Discount{}, false, nil
	}
	return Discount{
		Product:     b.Items[0].Product,
		Description: "bundle " + b.Percent.String() + "% off",
		Amount:      amount.Neg(),
	}, true, nil
}

// ConsumeBundle removes count bundles worth of items from q.
func (c *Calculator) ConsumeBundle(b BundleOffer, count int64, q *Quantities) {
	consumeBundles(b, count, q)
}

// EvaluateCoupon computes the coupon discount against q without mutating q or the coupon.
func (c *Calculator) EvaluateCoupon(cp *voucher.Coupon, q *Quantities, on time.Time) (CouponResult, bool, error) {
	if !couponUsable(cp, on) {
		return CouponResult{}, false, nil
	}
	if !q.Get(cp.Product).GreaterThan(cp.RequiredQty) {
		return CouponResult{}, false, nil
	}
	price, err := c.catalog.UnitPrice(cp.Product)
	if err != nil {
		return CouponResult{}, false, err
	}
	res, ok := couponDiscount(cp, q, price)
	return res, ok, nil
}
