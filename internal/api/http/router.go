// Package http exposes the RCCA services over JSON.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"rcca-backend/internal/logger"
	"rcca-backend/internal/metrics"
	"rcca-backend/internal/security"
	"rcca-backend/internal/service"
)

// Services bundles what the router serves.
type Services struct {
	RCCA          service.RCCAService
	Dashboard     service.DashboardService
	Notifications service.NotificationService
	Tokens        security.TokenManager
	Metrics       *metrics.Metrics
	// Ping reports backend health for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// NewRouter builds the mux with auth applied to every matched route.
func NewRouter(s Services) *mux.Router {
	validate := validator.New(validator.WithRequiredStructEnabled())

	r := mux.NewRouter()
	r.Use(LoggingMiddleware, NewAuthMiddleware(s.Tokens).Handler)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", healthHandler(s.Ping)).Methods(http.MethodGet)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	NewRCCAHandler(s.RCCA, validate).Register(api)
	NewDashboardHandler(s.Dashboard).Register(api)
	NewNotificationHandler(s.Notifications).Register(api)

	return r
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.Warn("Health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
