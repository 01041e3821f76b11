package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type InventoryHandlers interface {
	Reserve(w http.ResponseWriter, r *http.Request)
	PreviewPlan(w http.ResponseWriter, r *http.Request)
	GetReservation(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Fulfill(w http.ResponseWriter, r *http.Request)
	Intake(w http.ResponseWriter, r *http.Request)
	ListBatches(w http.ResponseWriter, r *http.Request)
}

type ProductHandlers interface {
	HandleSearchProducts(w http.ResponseWriter, r *http.Request)
}

type ImportHandlers interface {
	HandleUpload(w http.ResponseWriter, r *http.Request)
}

// Routes groups the feature handlers mounted by NewRouter. Metrics is
// optional; /metrics is only served when it is set.
type Routes struct {
	Inventory InventoryHandlers
	Products  ProductHandlers
	Imports   ImportHandlers
	Metrics   http.Handler
}

func NewRouter(routes Routes, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if routes.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", routes.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reservations", routes.Inventory.Reserve)
		r.Get("/reservations/{planId}", routes.Inventory.GetReservation)
		r.Post("/reservations/{planId}/cancel", routes.Inventory.Cancel)
		r.Post("/reservations/{planId}/fulfill", routes.Inventory.Fulfill)
		r.Post("/plans", routes.Inventory.PreviewPlan)
		r.Post("/intake", routes.Inventory.Intake)
		r.Get("/products/{productId}/warehouses/{warehouseId}/batches", routes.Inventory.ListBatches)
		r.Post("/products/search", routes.Products.HandleSearchProducts)
		r.Post("/warehouses/{warehouseId}/imports", routes.Imports.HandleUpload)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				return
			}
			logger.Info("http request",
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
