// Package api wires the REST handlers, the Connect service and the shared
// middleware into one HTTP handler.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mmynk/grouppay/internal/api/handler"
	"github.com/mmynk/grouppay/internal/metrics"
	"github.com/mmynk/grouppay/internal/middleware"
)

// Mount is an extra handler served under a path prefix, such as a Connect
// service.
type Mount struct {
	Path    string
	Handler http.Handler
}

// Options configures NewRouter.
type Options struct {
	Authorizer middleware.Authorizer
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Mounts     []Mount
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h *handler.Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics(opts.Metrics))

	r.Get("/health", handler.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	// Connect services authenticate with their own interceptor.
	for _, m := range opts.Mounts {
		r.Mount(m.Path, m.Handler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(chimw.Timeout(handler.DefaultTimeout))
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(handler.DefaultTimeout))
		r.Use(middleware.RequireAuthHTTP(opts.Authorizer))

		r.Get("/users/me", h.Me)
		r.Get("/users/me/notifications", h.ListNotifications)
		r.Post("/users/me/notifications/read", h.MarkAllNotificationsRead)
		r.Get("/users/{userID}/groups", h.ListUserGroups)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)

		r.Post("/groups", h.CreateGroup)
		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", h.GetGroup)
			r.Delete("/", h.DeleteGroup)
			r.Post("/members", h.AddMember)
			r.Delete("/members/{userID}", h.RemoveMember)
			r.Get("/expenses", h.ListExpenses)
			r.Get("/balances", h.GetBalances)
			r.Get("/settlements", h.GetSettlements)
			r.Post("/reminders/{userID}", h.SendReminder)
		})

		r.Post("/expenses", h.CreateExpense)
		r.Delete("/expenses/{expenseID}", h.DeleteExpense)
	})

	return r
}
