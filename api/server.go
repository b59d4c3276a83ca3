/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/requests (POST)  Public enrollment submission
  /api/login            Public administrator login
  /api/*                Everything else requires a Bearer token
  /files/*              Uploaded signed contracts (admin)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token verification middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public: guardians submit without an account, admins log in here.
		r.Post("/requests", h.SubmitRequest)
		r.Post("/login", h.Login)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", h.ListRequests)
				r.Get("/{id}", h.GetRequest)
				r.Post("/{id}/approve", h.ApproveRequest)
				r.Post("/{id}/reject", h.RejectRequest)
			})

			r.Route("/students", func(r chi.Router) {
				r.Get("/", h.ListStudents)
				r.Get("/{id}", h.GetStudent)
				r.Post("/{id}/payments", h.RegisterPayment)
				r.Post("/{id}/contract-file", h.UploadContractFile)
				r.Get("/{id}/contract-file", h.GetContractFile)
				r.Get("/{id}/contract.html", h.PrintContract)
			})

			r.Route("/finance", func(r chi.Router) {
				r.Get("/summary", h.GetSummary)
			})
		})
	})

	// Uploaded files. Behind auth: signed contracts carry personal data.
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Middleware)
		r.Get("/files/*", h.ServeFile)
	})

	return r
}
