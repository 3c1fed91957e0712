package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/streeteats-connect/api/controllers"
	"github.com/angelmondragon/streeteats-connect/api/middleware"
	"github.com/angelmondragon/streeteats-connect/internal/notifications"
	"github.com/angelmondragon/streeteats-connect/internal/sessioncart"
	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/angelmondragon/streeteats-connect/pkg/db"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Cache, Idempotency and
// Limiter are nil when redis is not configured; pass untyped nils.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Cache         redis.Pinger
	Idempotency   redis.IdempotencyStore
	Limiter       redis.RateLimiter
	Cart          sessioncart.Service
	Notifications notifications.Service
	Suppliers     controllers.SupplierLookup
	Gatherer      prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Cache))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(d.Idempotency, logg, middleware.DefaultIdempotencyTTL)
	orderIdempotent := middleware.Idempotency(d.Idempotency, logg, middleware.OrderIdempotencyTTL)
	searchPolicy := middleware.NewRateLimitPolicy("supplier_search", cfg.RateLimit.SearchWindow, cfg.RateLimit.SearchLimit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, logg))

		r.Route("/orders/api", func(r chi.Router) {
			r.Post("/add-to-cart/", controllers.AddToCart(d.Cart, logg))
			r.Post("/update-cart/", controllers.UpdateCart(d.Cart, logg))
			r.Post("/remove-from-cart/", controllers.RemoveFromCart(d.Cart, logg))
			r.Get("/cart-count/", controllers.CartCount(d.Cart, logg))
			r.With(orderIdempotent).Post("/place-order/", controllers.PlaceOrder(d.Cart, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/popup/", controllers.NotificationPopup(d.Notifications, logg))
			r.Get("/api/", controllers.ListNotifications(d.Notifications, logg))
			r.With(idempotent).Post("/api/read-all/", controllers.MarkAllNotificationsRead(d.Notifications, logg))
			r.With(idempotent).Post("/api/{notificationId}/read/", controllers.MarkNotificationRead(d.Notifications, logg))
		})

		r.With(middleware.RateLimit(searchPolicy, d.Limiter, logg)).
			Get("/suppliers/api/search/", controllers.SearchSuppliers(d.Suppliers, logg))

		r.Post("/accounts/api/register/validate/{step}", controllers.ValidateRegistrationStep(logg))
	})

	return r
}
