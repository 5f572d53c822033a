package router

import (
	"net/http"
	"time"

	"clinic-orders/internal/handler"
	"clinic-orders/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// requestTimeout bounds every request except exports and imports.
const requestTimeout = 15 * time.Second

// OrderingHandlers groups the handlers served by the ordering API.
type OrderingHandlers struct {
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Review  *handler.ReviewHandler
}

// PolicyHandlers groups the handlers served by the policy manager API.
type PolicyHandlers struct {
	Directory *handler.DirectoryHandler
	Policy    *handler.PolicyHandler
}

// New creates the ordering API router with all routes and middleware configured.
func New(h OrderingHandlers, apiKey string, logger zerolog.Logger) http.Handler {
	r := base(apiKey, logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))

			r.Get("/products", h.Catalog.Search)
			r.Get("/products/facets", h.Catalog.Facets)

			r.Get("/cart", h.Cart.GetDraft)
			r.Post("/cart/items", h.Cart.AddItem)
			r.Patch("/cart/items/{itemID}", h.Cart.UpdateItem)

			r.Get("/carts", h.Cart.List)
			r.Get("/carts/{cartID}", h.Cart.Get)
			r.Post("/carts/{cartID}/submit", h.Cart.Submit)
			r.Get("/carts/{cartID}/history", h.Cart.History)

			r.Get("/review/carts", h.Review.Queue)
			r.Post("/review/items/{itemID}/approve", h.Review.ApproveItem)
			r.Post("/review/items/{itemID}/deny", h.Review.DenyItem)
			r.Post("/review/items/{itemID}/adjust", h.Review.AdjustItem)
			r.Post("/review/carts/{cartID}/approve", h.Review.ApproveCart)
			r.Post("/review/carts/{cartID}/return", h.Review.ReturnCart)
		})

		// Long running: the workbook streams and the import reads a whole file.
		r.Get("/carts/{cartID}/export", h.Cart.Export)
		r.Post("/catalog/import", h.Catalog.Import)
	})

	return r
}

// NewPolicy creates the policy manager API router.
func NewPolicy(h PolicyHandlers, apiKey string, logger zerolog.Logger) http.Handler {
	r := base(apiKey, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", h.Directory.ListCompanies)
			r.Post("/", h.Directory.CreateCompany)
			r.Delete("/{companyID}", h.Directory.DeleteCompany)
			r.Get("/{companyID}/access-codes", h.Directory.ListAccessCodes)
			r.Post("/{companyID}/access-codes", h.Directory.CreateAccessCode)
		})
		r.Delete("/access-codes/{code}", h.Directory.DeleteAccessCode)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Directory.ListUsers)
			r.Post("/", h.Directory.CreateUser)
			r.Delete("/{userID}", h.Directory.DeleteUser)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.Policy.List)
			r.Get("/{policyID}", h.Policy.Get)
			r.Put("/{policyID}", h.Policy.Save)
		})
	})

	return r
}

// base wires the shared middleware chain and health check:
// RequestID -> RealIP -> Recovery -> Logging -> CORS -> APIKeyAuth -> Identity.
func base(apiKey string, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID, chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))
	r.Use(middleware.Identity)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	return r
}
