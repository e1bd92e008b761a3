package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// wholeUnits truncates qty to the count of whole units used for grouping.
func wholeUnits(qty decimal.Decimal) int64 {
	return qty.Truncate(0).IntPart()
}

// threeForTwo makes one unit free per complete trio. Any fractional quantity
// beyond the whole units is charged at full price.
func threeForTwo(p catalog.Product, qty, unitPrice decimal.Decimal) (Discount, bool) {
	n := wholeUnits(qty)
	if n <= 2 {
		return Discount{}, false
	}
	trios := decimal.NewFromInt(n / 3)
	rest := decimal.NewFromInt(n % 3)
	// Both sides count whole units only, so the fractional part of qty is
	// charged at full price and never discounted.
	whole := decimal.NewFromInt(n).Mul(unitPrice)
	charged := trios.Mul(two).Mul(unitPrice).Add(rest.Mul(unitPrice))
	return Discount{Product: p, Description: "3 for 2", Amount: charged.Sub(whole)}, true
}

func percentOff(p catalog.Product, percent, qty, unitPrice decimal.Decimal) (Discount, bool) {
	amount := qty.Mul(unitPrice).Mul(percent).Div(hundred)
	return Discount{Product: p, Description: percent.String() + "% off", Amount: amount.Neg()}, true
}

// nForAmount prices the whole units at amount per group. The group count is a
// true division, so a partial group is prorated at the fixed rate.
func nForAmount(p catalog.Product, size int64, amount, qty, unitPrice decimal.Decimal) (Discount, bool) {
	if size <= 0 {
		return Discount{}, false
	}
	n := wholeUnits(qty)
	if n < size {
		return Discount{}, false
	}
	groups := decimal.NewFromInt(n).Div(decimal.NewFromInt(size))
	total := amount.Mul(groups).Add(decimal.NewFromInt(n % size).Mul(unitPrice))
	full := unitPrice.Mul(qty)
	return Discount{
		Product:     p,
		Description: fmt.Sprintf("%d for %s", size, amount.String()),
		Amount:      total.Sub(full),
	}, true
}

// countBundles returns how many complete bundles the pool can fund.
func countBundles(b BundleOffer, q *Quantities) int64 {
	if len(b.Items) == 0 {
		return 0
	}
	var fewest int64 = -1
	for _, it := range b.Items {
		if !q.Has(it.Product) {
			return 0
		}
		quo, _ := q.Get(it.Product).QuoRem(it.Quantity, 0)
		n := quo.IntPart()
		if fewest < 0 || n < fewest {
			fewest = n
		}
	}
	if fewest < 0 {
		return 0
	}
	return fewest
}

func consumeBundles(b BundleOffer, count int64, q *Quantities) {
	times := decimal.NewFromInt(count)
	for _, it := range b.Items {
		q.Consume(it.Product, it.Quantity.Mul(times))
	}
}

// CouponResult is the outcome of applying a coupon to a quantity pool.
type CouponResult struct {
	Discount Discount
	Consumed decimal.Decimal
}

func couponDiscount(c *voucher.Coupon, q *Quantities, unitPrice decimal.Decimal) (CouponResult, bool) {
	available := q.Get(c.Product)
	if !available.GreaterThan(c.RequiredQty) {
		return CouponResult{}, false
	}
	applied := decimal.Min(available.Sub(c.RequiredQty), c.DiscountedQty)
	if !applied.IsPositive() {
		return CouponResult{}, false
	}
	amount := unitPrice.Mul(applied).Mul(c.Percent).Div(hundred)
	return CouponResult{
		Discount: Discount{
			Product:     c.Product,
			Description: fmt.Sprintf("%s %s%% off", c.Description, c.Percent.String()),
			Amount:      amount.Neg(),
		},
		Consumed: c.RequiredQty.Add(applied),
	}, true
}

func couponUsable(c *voucher.Coupon, on time.Time) bool {
	return c != nil && c.IsValidOn(on)
}
