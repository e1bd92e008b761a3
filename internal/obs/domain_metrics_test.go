package obs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/obs"
)

func TestMustRegisterDomainMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("checkout", registry)
	obs.MustRegisterDomainMetrics("checkout", registry)

	require.NotNil(t, obs.CheckoutTotal)
	require.NotNil(t, obs.DiscountPlanTotal)
	require.NotNil(t, obs.CheckoutSavings)
	require.NotNil(t, obs.CouponRedemptionsTotal)
	require.NotNil(t, obs.LoyaltyPointsTotal)

	obs.DiscountPlanTotal.WithLabelValues("coupon_first").Inc()
	require.Equal(t, float64(1), testutil.ToFloat64(obs.DiscountPlanTotal.WithLabelValues("coupon_first")))
}
