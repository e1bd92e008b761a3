// Package app wires configuration, the loaded dataset and the HTTP surface
// into a runnable checkout service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/dataset"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/loyalty"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

// ErrCatalogEmpty is reported by the readiness check while no product is loaded.
var ErrCatalogEmpty = errors.New("catalog empty")

// App owns the long-lived services of the checkout API.
type App struct {
	cfg     *config.Config
	logger  zerolog.Logger
	data    *dataset.Data
	teller  *checkout.Teller
	loyalty *loyalty.Registry
	limiter ratelimit.Allower
	redis   *redis.Client
	metrics *obs.HTTPMetrics
	now     func() time.Time
}

// New loads the dataset named by cfg and builds every service. The returned
// App must be closed.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	data, err := dataset.Load(dataset.Files{
		Catalog: cfg.CatalogFile,
		Offers:  cfg.OffersFile,
		Bundles: cfg.BundlesFile,
		Coupons: cfg.CouponsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return NewWithData(ctx, cfg, logger, data)
}

// NewWithData builds the services around an already loaded dataset.
func NewWithData(ctx context.Context, cfg *config.Config, logger zerolog.Logger, data *dataset.Data) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		data:    data,
		loyalty: loyalty.NewRegistry(cfg.LoyaltySeedPoints),
		now:     time.Now,
	}

	a.teller = checkout.NewTeller(data.Catalog, logger.With().Str("component", "teller").Logger())
	if err := data.Configure(a.teller); err != nil {
		return nil, fmt.Errorf("configure offers: %w", err)
	}

	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
		a.metrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)
	}

	if err := a.initLimiter(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Info().
		Int("products", data.Catalog.Len()).
		Int("offers", len(data.Offers)).
		Int("bundles", len(data.Bundles)).
		Int("coupons", data.Coupons.Len()).
		Msg("dataset loaded")
	return a, nil
}

func (a *App) initLimiter(ctx context.Context) error {
	local, err := ratelimit.New(a.cfg.RateLimit, ratelimit.NewMemoryStore(""))
	if err != nil {
		return err
	}
	a.limiter = local
	if a.cfg.RateLimitRedisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(a.cfg.RateLimitRedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	a.redis = redis.NewClient(opts)
	if a.cfg.TracingEnabled {
		if err := redisotel.InstrumentTracing(a.redis); err != nil {
			a.logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	store, err := ratelimit.NewRedisStore(a.redis, "checkout:ratelimit")
	if err != nil {
		return err
	}
	shared, err := ratelimit.New(a.cfg.RateLimit, store)
	if err != nil {
		return err
	}
	a.limiter = ratelimit.NewFallback(shared, local, 5, 30*time.Second,
		a.logger.With().Str("component", "ratelimit").Logger())
	return nil
}

// Teller returns the checkout teller.
func (a *App) Teller() *checkout.Teller { return a.teller }

// Catalog returns the loaded catalog.
func (a *App) Catalog() *catalog.Memory { return a.data.Catalog }

// Coupons returns the loaded coupon book.
func (a *App) Coupons() *voucher.Book { return a.data.Coupons }

// Loyalty returns the loyalty account registry.
func (a *App) Loyalty() *loyalty.Registry { return a.loyalty }

// Router builds the HTTP handler tree.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if a.cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if a.metrics != nil {
		r.Use(obs.HTTPObs{Metrics: a.metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: a.logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(a.cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Total-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	if a.cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if a.cfg.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), a.cfg.PprofUser, a.cfg.PprofPass))
	}

	healthHandler := health.Handler{Checker: a}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Catalog: a.data.Catalog})
	couponHandler := &voucher.Handler{Book: a.data.Coupons, Now: a.now}
	loyaltyHandler := &loyalty.Handler{Registry: a.loyalty}
	checkoutHandler := checkout.NewHandler(checkout.HandlerConfig{
		Teller:   a.teller,
		Catalog:  a.data.Catalog,
		Coupons:  a.data.Coupons,
		Loyalty:  a.loyalty,
		Currency: a.cfg.CurrencyCode,
	})
	limited := ratelimit.Handler{
		Limiter: a.limiter,
		Config:  ratelimit.Config{Key: common.RateLimitKey("checkout")},
		OnError: func(err error) {
			a.logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.Products)
		v.Get("/coupons", couponHandler.List)
		v.Get("/loyalty/{customerID}", loyaltyHandler.Balance)
		v.With(limited.Middleware).Post("/checkout", checkoutHandler.Checkout)
	})
	return r
}

// CheckCatalog reports an error while the catalog is empty.
func (a *App) CheckCatalog(_ context.Context, _ time.Duration) error {
	if a.data == nil || a.data.Catalog.Len() == 0 {
		return ErrCatalogEmpty
	}
	return nil
}

// CheckRateLimiter pings the shared limiter store when one is configured.
func (a *App) CheckRateLimiter(ctx context.Context, timeout time.Duration) error {
	if a.redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return a.redis.Ping(ctx).Err()
}

// Close releases external connections.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
