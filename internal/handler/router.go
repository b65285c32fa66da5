package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/storefront/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/api/store", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Post("/products/{id}/discount", h.ApplyDiscount)
		r.Get("/purchases/{id}", h.PurchaseStatus)
		r.Get("/purchases/{id}/download", h.DownloadContent)
	})

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Post("/api/checkout", h.Checkout)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/products/events", h.CreateEvent)
			r.Post("/products/digital", h.CreateDigitalContent)
			r.Get("/products", h.AdminListProducts)
			r.Get("/products/{id}", h.AdminGetProduct)
			r.Patch("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
			r.Put("/products/{id}/event", h.UpdateEvent)
			r.Put("/products/{id}/file", h.ReplaceContentFile)
			r.Get("/products/{id}/capacity", h.GetCapacity)
			r.Post("/products/{id}/clients", h.RegisterClient)
			r.Get("/products/{id}/purchases", h.ProductPurchases)

			r.Get("/purchases", h.Purchases)
			r.Post("/purchases/{id}/finalize", h.FinalizePurchase)

			r.Get("/discount-codes", h.ListDiscountCodes)
			r.Post("/discount-codes", h.CreateDiscountCode)
			r.Post("/discount-codes/{id}/toggle", h.ToggleDiscountCode)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
