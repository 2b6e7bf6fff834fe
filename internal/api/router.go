package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/api/handler"
	apimw "github.com/notifyhub/event-notifications/internal/api/middleware"
	"github.com/notifyhub/event-notifications/internal/queue"
	"github.com/notifyhub/event-notifications/internal/service"
)

// Services bundles the service dependencies the router wires into handlers.
type Services struct {
	Polling       *service.PollingService
	Creation      *service.CreationService
	Subscriptions *service.SubscriptionService
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
// onPollServed is an optional metrics hook (nil = no-op).
func NewRouter(
	svcs Services,
	q *queue.RealtimeQueue,
	reg prometheus.Gatherer,
	onPollServed func(),
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	ph := handler.NewPollingHandler(svcs.Polling, onPollServed, logger)
	ch := handler.NewCreationHandler(svcs.Creation, logger)
	sh := handler.NewSubscriptionHandler(svcs.Subscriptions, logger)
	mh := handler.NewMetricsHandler(q)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Events — /poll must be registered before any /{id} style routes
		// would be, so chi never treats the literal "poll" as a parameter.
		r.Post("/events/poll", ph.Poll)
		r.Post("/events", ch.Create)

		// Subscriptions
		r.Post("/subscriptions", sh.Create)
		r.Get("/subscriptions", sh.List)
		r.Get("/subscriptions/{clientId}", sh.GetByClientID)

		// JSON metrics snapshot
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}
