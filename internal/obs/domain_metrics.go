package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by outcome.
	CheckoutTotal *prometheus.CounterVec
	// DiscountPlanTotal counts which discount plan won each checkout.
	DiscountPlanTotal *prometheus.CounterVec
	// CheckoutSavings records the savings granted per checkout in currency units.
	CheckoutSavings prometheus.Histogram
	// CouponRedemptionsTotal counts coupons spent by a winning plan.
	CouponRedemptionsTotal prometheus.Counter
	// LoyaltyPointsTotal counts loyalty points moved, by direction (earned, redeemed).
	LoyaltyPointsTotal *prometheus.CounterVec
	// RateLimitFallbackTotal counts rate limit decisions served by the local fallback store.
	RateLimitFallbackTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout outcomes.",
		}, []string{"result"})
		DiscountPlanTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_plan_selected_total",
			Help:      "Count of winning discount plans.",
		}, []string{"plan"})
		CheckoutSavings = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_savings",
			Help:      "Savings granted per checkout in currency units.",
			Buckets:   []float64{0, 0.5, 1, 2, 5, 10, 25, 50, 100},
		})
		CouponRedemptionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Number of coupons redeemed at checkout.",
		})
		LoyaltyPointsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_points_total",
			Help:      "Loyalty points moved at checkout.",
		}, []string{"direction"})

		RateLimitFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_fallback_total",
			Help:      "Rate limit decisions served by the local fallback store.",
		})

		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountPlanTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountPlanTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutSavings, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CheckoutSavings = v
			}
		})
		mustRegisterCollector(reg, CouponRedemptionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CouponRedemptionsTotal = v
			}
		})
		mustRegisterCollector(reg, LoyaltyPointsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LoyaltyPointsTotal = v
			}
		})
		mustRegisterCollector(reg, RateLimitFallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RateLimitFallbackTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
