// Package api serves the sizing calculator over HTTP: REST endpoints for the
// catalog and calculations, Prometheus metrics and the WebSocket endpoint.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"battery_sizer/internal/catalog"
	"battery_sizer/internal/metrics"
	"battery_sizer/internal/sizing"
	"battery_sizer/internal/ws"
)

// Deps are the services exposed by the router. WS and StaticDir are optional.
type Deps struct {
	Store      *catalog.Store
	Calculator *sizing.Calculator
	WS         *ws.Handler
	Logger     *zap.Logger
	StaticDir  string
}

func NewRouter(d Deps) *chi.Mux {
	h := &handlers{
		store:  d.Store,
		calc:   d.Calculator,
		logger: d.Logger.Named("api"),
	}

	router := chi.NewRouter()
	router.Use(
		metrics.HTTP,
		middleware.RequestID,
		RequestLogger(d.Logger, "http"),
		middleware.Recoverer,
	)

	router.Get("/health", h.health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.catalog)
		r.Post("/sizing", h.sizeJSON)
		r.Get("/sizing", h.sizeForm)
	})

	if d.WS != nil {
		router.Handle("/ws", d.WS)
	}
	if d.StaticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(d.StaticDir)))
	}
	return router
}
