package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openpantry/barcode-resolver/internal/http/handlers"
)

func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(RateLimitMiddleware)

	r.Get("/products/{barcode}", handlers.ResolveProductHandler)
	r.Post("/products/{barcode}/contributions", handlers.ContributeProductHandler)
	r.Post("/auth/login", handlers.LoginHandler)

	r.Group(func(protected chi.Router) {
		protected.Use(AuthMiddleware)
		protected.Put("/products/{barcode}/curation", handlers.CurateProductHandler)
		protected.Delete("/products/{barcode}", handlers.DeleteProductHandler)
	})

	return r
}
