/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /auth/*                  Registration, login, token verification
  /api/materials/*         Raw material inventory
  /api/scrap/*             Reusable offcut pieces
  /api/products/*          Product catalog and recipes
  /api/clients/*           Client registry and history
  /api/invoices/*          Invoices and quotes
  /api/purchases/*         Supplier purchases
  /api/dashboard/*         Dashboard stats
  /api/reports/*           Analytics
  /api/report-export/*     Monthly detailed export
  /api/settings/*          Shop settings and material types
  /metrics                 Prometheus scrape endpoint (optional)
  /health                  Liveness check

Everything under /api requires a valid session token.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	// CORSOrigins lists the allowed origins. Empty means allow any.
	CORSOrigins []string

	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "token"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(h.Authorize).Get("/is-verify", h.Verify)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(h.Authorize)

		// Material routes
		r.Route("/materials", func(r chi.Router) {
			r.Get("/", h.ListMaterials)
			r.Post("/", h.CreateMaterial)
			r.Put("/{id}", h.UpdateMaterial)
			r.Delete("/{id}", h.DeleteMaterial)
		})

		// Scrap routes
		r.Route("/scrap", func(r chi.Router) {
			r.Get("/", h.ListScrap)
			r.Delete("/{id}", h.DeleteScrap)
		})

		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Put("/{id}", h.UpdateClient)
			r.Delete("/{id}", h.DeleteClient)
			r.Get("/{id}/history", h.ClientHistory)
		})

		// Invoice and quote routes
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.CreateInvoice)
			r.Get("/{id}", h.GetInvoice)
			r.Put("/{id}", h.UpdateQuote)
			r.Delete("/{id}", h.DeleteInvoice)
			r.Put("/{id}/convert", h.ConvertQuote)
			r.Put("/{id}/status", h.UpdateInvoiceStatus)
			r.Put("/{id}/payment-method", h.UpdatePaymentMethod)
		})

		// Purchase routes
		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", h.ListPurchases)
			r.Post("/", h.CreatePurchase)
			r.Get("/{id}", h.GetPurchase)
		})

		// Dashboard routes
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", h.Dashboard)
			r.Get("/breakdown", h.DashboardBreakdown)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/revenue", h.RevenueReport)
			r.Get("/materials", h.MaterialsReport)
			r.Get("/clients", h.ClientsReport)
			r.Get("/stats", h.StatsReport)
			r.Get("/financials", h.FinancialsReport)
		})

		// Export routes
		r.Get("/report-export/detailed", h.DetailedExport)

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.SaveSettings)
			r.Route("/types", func(r chi.Router) {
				r.Get("/", h.ListMaterialTypes)
				r.Post("/", h.CreateMaterialType)
				r.Delete("/{id}", h.DeleteMaterialType)
			})
		})
	})

	return r
}

// MetricsHandler returns the default promhttp handler for use with
// RouterOptions.MetricsHandler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
