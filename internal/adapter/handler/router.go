package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *HTTPHandler, events *EventStream) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/{id}", h.GetOrder)
		r.Post("/orders/{id}/products", h.AddProducts)
		r.Post("/orders/{id}/settle", h.SettleOrder)

		r.Post("/tables", h.RegisterTable)
		r.Get("/tables/{id}", h.GetTable)
		r.Put("/tables/{id}/name", h.RenameTable)
		r.Delete("/tables/{id}", h.DeregisterTable)

		if events != nil {
			r.Get("/events/{id}", events.ServeHTTP)
		}
	})
	return r
}
