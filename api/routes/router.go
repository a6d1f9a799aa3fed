package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/printshop-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/printshop-backend/api/controllers/webhooks"
	"github.com/angelmondragon/printshop-backend/api/middleware"
	"github.com/angelmondragon/printshop-backend/internal/cart"
	"github.com/angelmondragon/printshop-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/printshop-backend/internal/checkout"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/webhooks/payments"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/redis"
)

// Deps carries everything the HTTP surface is wired to.
type Deps struct {
	DB              db.Pinger
	Redis           *redis.Client
	Users           middleware.UserChecker
	Gatherer        prometheus.Gatherer
	Catalog         catalog.Service
	Cart            cart.Service
	Orders          orders.Service
	Checkout        checkoutsvc.Service
	PaymentWebhooks *payments.Processor
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var cache controllers.Pinger
	if deps.Redis != nil {
		cache = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, cache, logg))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Stripe authenticates with the signature header, not a bearer token.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		if deps.PaymentWebhooks == nil {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(nil, false, logg))
			return
		}
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.PaymentWebhooks, cfg.Webhooks.ProcessInline(), logg))
	})

	idempotent := passthrough
	checkoutLimit := passthrough
	if deps.Redis != nil {
		idempotent = middleware.Idempotency(deps.Redis, middleware.IdempotencyRoutes(cfg.Checkout.IdempotencyTTL), logg)
		checkoutLimit = middleware.UserRateLimit(
			middleware.NewRateLimitPolicy("checkout", cfg.Checkout.RateLimitWindow, cfg.Checkout.RateLimitMax),
			deps.Redis,
			logg,
		)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Users, logg))

		r.Get("/formats", controllers.FormatsList(deps.Catalog, logg))

		r.Get("/cart", controllers.CartList(deps.Cart, logg))
		r.With(idempotent).Post("/cart", controllers.CartAdd(deps.Cart, logg))
		r.Patch("/cart", controllers.CartUpdate(deps.Cart, logg))
		r.Put("/cart", controllers.CartUpdate(deps.Cart, logg))
		r.Delete("/cart", controllers.CartRemove(deps.Cart, logg))

		r.Get("/orders", controllers.OrdersList(deps.Orders, logg))
		r.Get("/orders/{orderId}", controllers.OrderDetail(deps.Orders, logg))

		r.With(checkoutLimit, idempotent).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
