// internal/transport/http/router.go
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"notification-service/internal/common/config"
	"notification-service/internal/common/logger"
	"notification-service/internal/realtime"
	"notification-service/internal/service"
	"notification-service/internal/transport/http/handler"
	appmiddleware "notification-service/internal/transport/http/middleware"
)

// Deps holds everything the router wires together.
type Deps struct {
	Service      *service.NotificationService
	Hub          *realtime.Hub
	HealthChecks map[string]handler.HealthCheck
	Logger       logger.Logger
}

// NewRouter builds the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics)

	allowedOrigins := cfg.Server.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		authMw = appmiddleware.Auth(cfg.Auth.JWTSecret)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 10 requests/second, burst of 20, applied to write endpoints.
	writeRL := appmiddleware.NewRateLimiter(rate.Limit(10), 20)

	notifH := handler.NewNotificationHandler(deps.Service)
	prefH := handler.NewPreferenceHandler(deps.Service)
	deviceH := handler.NewDeviceHandler(deps.Service)
	healthH := handler.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.HealthChecks)
	wsH := handler.NewWSHandler(
		deps.Hub,
		allowedOrigins,
		time.Duration(cfg.Realtime.PingInterval)*time.Millisecond,
		deps.Logger,
	)

	r.Get("/healthz", healthH.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", wsH.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMw)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notifH.List)
			r.With(writeRL.Limit).Post("/", notifH.Create)

			r.Get("/unread-count", notifH.UnreadCount)
			r.Post("/mark-all-read", notifH.MarkAllRead)
			r.Get("/search", notifH.Search)

			r.Get("/preferences", prefH.Get)
			r.Post("/preferences", prefH.Update)

			r.Get("/{id}", notifH.Get)
			r.Put("/{id}", notifH.Update)
			r.Delete("/{id}", notifH.Delete)
		})

		r.Route("/devices", func(r chi.Router) {
			r.With(writeRL.Limit).Post("/", deviceH.Register)
			r.Delete("/", deviceH.Deactivate)
		})
	})

	return r
}
