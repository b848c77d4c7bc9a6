package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/orderdesk/admin-api/internal/config"
	"github.com/orderdesk/admin-api/internal/handler"
	mw "github.com/orderdesk/admin-api/internal/middleware"
	"github.com/orderdesk/admin-api/internal/store"
	"github.com/orderdesk/admin-api/internal/ws"
)

// New creates a Chi router with all back-office routes wired up.
func New(cfg *config.Config, st *store.Store, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AdminOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket order feed (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(st, cfg.JWTSecret)
		authHandler.RegisterRoutes(r)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))

			orderHandler := handler.NewOrderHandler(st, hub)
			r.Route("/orders", orderHandler.RegisterRoutes)

			// Dispatch roster is a manager concern.
			employeeHandler := handler.NewEmployeeHandler(st)
			r.Route("/employees", func(r chi.Router) {
				r.Use(mw.RequireRole("ADMIN", "MANAGER"))
				employeeHandler.RegisterRoutes(r)
			})
		})
	})

	return r
}
