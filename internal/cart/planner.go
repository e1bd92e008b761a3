package cart

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

var plannerNopLogger = zerolog.Nop()

// Plan identifies one of the candidate discount plans.
type Plan int

const (
	// PlanNoCoupon applies bundles then regular offers.
	PlanNoCoupon Plan = iota
	// PlanCouponFirst applies the coupon, then bundles and regular offers.
	PlanCouponFirst
	// PlanCouponAfterBundles applies bundles, then the coupon, then regular offers.
	PlanCouponAfterBundles
)

func (p Plan) String() string {
	switch p {
	case PlanNoCoupon:
		return "no_coupon"
	case PlanCouponFirst:
		return "coupon_first"
	case PlanCouponAfterBundles:
		return "coupon_after_bundles"
	default:
		return "unknown"
	}
}

// Selection is the winning plan and the discounts it grants. A selection that
// uses the coupon does not spend it; the caller redeems the coupon when it
// commits the checkout.
type Selection struct {
	Plan       Plan
	Discounts  []pricing.Discount
	Savings    decimal.Decimal
	UsedCoupon bool

	withoutCoupon *Selection
}

// WithoutCoupon returns the no-coupon plan evaluated alongside s. It is s itself
// when s does not use the coupon.
func (s Selection) WithoutCoupon() Selection {
	if !s.UsedCoupon || s.withoutCoupon == nil {
		return s
	}
	return *s.withoutCoupon
}

type planResult struct {
	plan       Plan
	discounts  []pricing.Discount
	savings    decimal.Decimal
	usedCoupon bool
}

// Planner picks the discount plan that saves the customer the most.
type Planner struct {
	calc   *pricing.Calculator
	logger *zerolog.Logger
}

// NewPlanner builds a planner that prices through calc.
func NewPlanner(calc *pricing.Calculator) *Planner {
	return &Planner{calc: calc}
}

// WithLogger attaches a logger used when the context carries none.
func (p *Planner) WithLogger(logger zerolog.Logger) *Planner {
	p.logger = &logger
	return p
}

// Select evaluates every applicable plan against its own copy of q and returns
// the one with the largest savings. Ties go to the plan evaluated first. The
// coupon is never redeemed here.
func (p *Planner) Select(ctx context.Context, q *pricing.Quantities, offers pricing.Offers, bundles []pricing.BundleOffer, coupon *voucher.Coupon, on time.Time) (Selection, error) {
	ctx, span := otel.Tracer("cart.Planner").Start(ctx, "Planner.Select")
	defer span.End()

	plans := []Plan{PlanNoCoupon}
	if coupon != nil && coupon.IsValidOn(on) {
		plans = append(plans, PlanCouponFirst, PlanCouponAfterBundles)
	}

	results := make([]planResult, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, plan := range plans {
		working := q.Clone()
		g.Go(func() error {
			res, err := p.evaluate(gctx, plan, working, offers, bundles, coupon, on)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return Selection{}, err
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.savings.GreaterThan(best.savings) {
			best = res
		}
	}

	span.SetAttributes(
		attribute.String("plan", best.plan.String()),
		attribute.String("savings", best.savings.String()),
		attribute.Int("candidates", len(plans)),
	)
	p.loggerFor(ctx).Debug().
		Str("plan", best.plan.String()).
		Str("savings", best.savings.String()).
		Int("candidates", len(plans)).
		Int("discounts", len(best.discounts)).
		Bool("uses_coupon", best.usedCoupon).
		Msg("discount_plan_selected")

	sel := best.selection()
	if best.usedCoupon {
		base := results[0].selection()
		sel.withoutCoupon = &base
	}
	return sel, nil
}

func (r planResult) selection() Selection {
	return Selection{
		Plan:       r.plan,
		Discounts:  r.discounts,
		Savings:    r.savings,
		UsedCoupon: r.usedCoupon,
	}
}

func (p *Planner) evaluate(ctx context.Context, plan Plan, remaining *pricing.Quantities, offers pricing.Offers, bundles []pricing.BundleOffer, coupon *voucher.Coupon, on time.Time) (planResult, error) {
	if err := ctx.Err(); err != nil {
		return planResult{}, err
	}
	res := planResult{plan: plan}
	var err error

	switch plan {
	case PlanNoCoupon:
		if res.discounts, err = p.applyBundles(remaining, offers, bundles, res.discounts); err != nil {
			return planResult{}, err
		}
	case PlanCouponFirst:
		if res.discounts, res.usedCoupon, err = p.applyCoupon(remaining, coupon, on, res.discounts); err != nil {
			return planResult{}, err
		}
		if res.discounts, err = p.applyBundles(remaining, offers, bundles, res.discounts); err != nil {
			return planResult{}, err
		}
	case PlanCouponAfterBundles:
		if res.discounts, err = p.applyBundles(remaining, offers, bundles, res.discounts); err != nil {
			return planResult{}, err
		}
		if res.discounts, res.usedCoupon, err = p.applyCoupon(remaining, coupon, on, res.discounts); err != nil {
			return planResult{}, err
		}
	}

	if res.discounts, err = p.applyRegularOffers(remaining, offers, res.discounts); err != nil {
		return planResult{}, err
	}
	res.savings = pricing.TotalSavings(res.discounts)
	return res, nil
}

func (p *Planner) applyBundles(remaining *pricing.Quantities, offers pricing.Offers, bundles []pricing.BundleOffer, out []pricing.Discount) ([]pricing.Discount, error) {
	for _, b := range bundles {
		count := p.calc.CountBundles(b, remaining)
		if count == 0 {
			continue
		}
		d, ok, err := p.calc.EvaluateBundle(b, count, remaining, offers)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
			p.calc.ConsumeBundle(b, count, remaining)
		}
	}
	return out, nil
}

func (p *Planner) applyCoupon(remaining *pricing.Quantities, coupon *voucher.Coupon, on time.Time, out []pricing.Discount) ([]pricing.Discount, bool, error) {
	res, ok, err := p.calc.EvaluateCoupon(coupon, remaining, on)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return out, false, nil
	}
	remaining.Consume(coupon.Product, res.Consumed)
	return append(out, res.Discount), true, nil
}

// applyRegularOffers walks the remaining products in first-seen order.
func (p *Planner) applyRegularOffers(remaining *pricing.Quantities, offers pricing.Offers, out []pricing.Discount) ([]pricing.Discount, error) {
	for _, product := range remaining.Products() {
		o, ok := offers[product]
		if !ok {
			continue
		}
		d, applies, err := p.calc.DiscountAt(o, remaining.Get(product))
		if err != nil {
			return nil, err
		}
		if applies {
			out = append(out, d)
		}
	}
	return out, nil
}

func (p *Planner) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil && ctxLogger.GetLevel() != zerolog.Disabled {
		return ctxLogger
	}
	if p.logger == nil {
		return &plannerNopLogger
	}
	return p.logger
}
