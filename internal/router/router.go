package router

import (
	"net/http"

	"kart-checkout/internal/handler"
	"kart-checkout/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	cartHandler *handler.CartHandler,
	checkoutHandler *handler.CheckoutHandler,
	orderHandler *handler.OrderHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Delete("/", cartHandler.Clear)
			r.Post("/items", cartHandler.AddLine)
			r.Patch("/items/{productID}", cartHandler.UpdateLine)
			r.Delete("/items/{productID}", cartHandler.RemoveLine)
			r.Post("/merge", cartHandler.Merge)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Start)
			r.Post("/{orderID}/payment", checkoutHandler.CreatePaymentOrder)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/verify", checkoutHandler.Verify)
			r.Post("/{orderID}/failed", checkoutHandler.ReportFailure)
			r.Post("/{orderID}/abandon", checkoutHandler.Abandon)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Get("/{orderID}", orderHandler.GetByID)
			r.Patch("/{orderID}/status", orderHandler.UpdateStatus)
			r.Patch("/{orderID}/payment-status", orderHandler.UpdatePaymentStatus)
		})
	})

	return r
}
