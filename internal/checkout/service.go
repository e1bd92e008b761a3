package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/loyalty"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

// LoyaltyPaymentDescription labels the payment created by a points redemption.
const LoyaltyPaymentDescription = "Loyalty points"

var hundred = decimal.NewFromInt(100)

// Options tunes a single checkout.
type Options struct {
	// Date decides coupon validity. Zero means today.
	Date time.Time
	// Account receives the loyalty post-step when set.
	Account        loyalty.Wallet
	PointsToRedeem int64
	// Coupon overrides the teller's coupon for this checkout.
	Coupon *voucher.Coupon
}

// Teller prices carts against a catalog and the registered offers. Checkouts
// on one teller are serialised.
type Teller struct {
	mu      sync.Mutex
	catalog catalog.Catalog
	planner *cart.Planner
	offers  pricing.Offers
	bundles []pricing.BundleOffer
	coupon  *voucher.Coupon
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTeller builds a teller over c.
func NewTeller(c catalog.Catalog, logger zerolog.Logger) *Teller {
	return &Teller{
		catalog: c,
		planner: cart.NewPlanner(pricing.NewCalculator(c)).WithLogger(logger),
		offers:  pricing.Offers{},
		logger:  logger,
		now:     time.Now,
	}
}

// AddSpecialOffer registers a regular offer, replacing any offer on the same product.
func (t *Teller) AddSpecialOffer(o pricing.Offer) error {
	if err := o.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.offers.Add(o)
	return nil
}

// AddBundleOffer appends a bundle; bundles are evaluated in registration order.
func (t *Teller) AddBundleOffer(b pricing.BundleOffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bundles = append(t.bundles, b)
}

// UseCoupon sets the coupon considered by subsequent checkouts.
func (t *Teller) UseCoupon(c *voucher.Coupon) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.coupon = c
}

// Coupon returns the active coupon, if any.
func (t *Teller) Coupon() *voucher.Coupon {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.coupon
}

// Checkout prices every cart line, applies the best discount plan and runs the
// loyalty post-step. No receipt is returned on error.
func (t *Teller) Checkout(ctx context.Context, c *cart.ShoppingCart, opts Options) (*Receipt, error) {
	ctx, span := otel.Tracer("checkout.Teller").Start(ctx, "Teller.Checkout")
	defer span.End()

	receipt, err := t.checkout(ctx, c, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordCheckout("error")
		t.loggerFor(ctx).Warn().Err(err).Msg("checkout_failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("receipt.id", receipt.ID.String()),
		attribute.String("receipt.plan", receipt.Plan),
		attribute.String("receipt.total", receipt.Total().StringFixed(2)),
	)
	recordCheckout("success")
	if obs.DiscountPlanTotal != nil {
		obs.DiscountPlanTotal.WithLabelValues(receipt.Plan).Inc()
	}
	if obs.CheckoutSavings != nil {
		obs.CheckoutSavings.Observe(receipt.Savings().InexactFloat64())
	}
	t.loggerFor(ctx).Info().
		Str("receipt_id", receipt.ID.String()).
		Str("plan", receipt.Plan).
		Int("lines", len(receipt.items)).
		Int("discounts", len(receipt.discounts)).
		Str("savings", receipt.Savings().StringFixed(2)).
		Str("total", receipt.Total().StringFixed(2)).
		Int64("points_redeemed", receipt.PointsRedeemed).
		Int64("points_earned", receipt.PointsEarned).
		Msg("checkout_completed")
	return receipt, nil
}

func (t *Teller) checkout(ctx context.Context, c *cart.ShoppingCart, opts Options) (*Receipt, error) {
	if c == nil {
		c = cart.New()
	}
	if opts.PointsToRedeem < 0 {
		return nil, fmt.Errorf("points to redeem must be >= 0: %w", loyalty.ErrInvalidRedemption)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	on := opts.Date
	if on.IsZero() {
		on = t.now()
	}
	receipt := newReceipt(voucher.DateOf(on))
	for _, line := range c.Items() {
		price, err := t.catalog.UnitPrice(line.Product)
		if err != nil {
			return nil, err
		}
		receipt.AddProduct(line.Product, line.Quantity, price, price.Mul(line.Quantity))
	}

	coupon := t.coupon
	if opts.Coupon != nil {
		coupon = opts.Coupon
	}
	sel, err := t.planner.Select(ctx, c.Quantities(), t.offers, t.bundles, coupon, on)
	if err != nil {
		return nil, err
	}
	if sel.UsedCoupon && !coupon.Redeem() {
		t.loggerFor(ctx).Debug().Str("coupon", coupon.Code).Msg("coupon_spent_concurrently")
		sel = sel.WithoutCoupon()
	}
	for _, d := range sel.Discounts {
		receipt.AddDiscount(d)
	}
	receipt.Plan = sel.Plan.String()

	if err := applyLoyalty(receipt, opts.Account, opts.PointsToRedeem); err != nil {
		if sel.UsedCoupon {
			coupon.Release()
		}
		return nil, err
	}
	if sel.UsedCoupon && obs.CouponRedemptionsTotal != nil {
		obs.CouponRedemptionsTotal.Inc()
	}
	return receipt, nil
}

// applyLoyalty redeems up to the requested points, capped by the balance and
// the amount due, then earns one point per cent of the remaining total.
func applyLoyalty(r *Receipt, acc loyalty.Wallet, requested int64) error {
	if acc == nil {
		return nil
	}
	if requested < 0 {
		return fmt.Errorf("points to redeem must be >= 0: %w", loyalty.ErrInvalidRedemption)
	}
	redeemable := min(requested, cents(r.Total()), acc.Points())
	if redeemable > 0 {
		redeemed, err := acc.Redeem(redeemable)
		if err != nil {
			return err
		}
		r.AddPayment(LoyaltyPaymentDescription, decimal.NewFromInt(redeemed).Div(hundred).Neg())
		r.PointsRedeemed = redeemed
		recordPoints("redeemed", redeemed)
	}

	earned, err := acc.Earn(cents(r.Total()))
	if err != nil {
		return err
	}
	r.PointsEarned = earned
	recordPoints("earned", earned)
	return nil
}

// cents floors amount to whole cents, never below zero.
func cents(amount decimal.Decimal) int64 {
	c := amount.Mul(hundred).Floor().IntPart()
	if c < 0 {
		return 0
	}
	return c
}

func recordCheckout(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}

func recordPoints(direction string, points int64) {
	if obs.LoyaltyPointsTotal != nil && points > 0 {
		obs.LoyaltyPointsTotal.WithLabelValues(direction).Add(float64(points))
	}
}

func (t *Teller) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil && ctxLogger.GetLevel() != zerolog.Disabled {
		return ctxLogger
	}
	return &t.logger
}
