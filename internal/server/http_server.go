// internal/server/http_server.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wallet-sync-service/internal/handler"
)

// NewRouter mounts the REST, websocket and metrics routes
func NewRouter(h *handler.HTTPHandler) chi.Router {
	r := chi.NewRouter()

	// ---- Global Middleware ----
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/wallets", h.ListWallets)
		r.Get("/wallets/{publicKey}/state", h.WalletState)
		r.Get("/addresses/{address}/state", h.AddressState)
		r.Get("/ws/wallets/{publicKey}", h.WalletStateWS)
	})

	return r
}

type HTTPServer struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewHTTPServer(addr string, h *handler.HTTPHandler, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     NewRouter(h),
			ReadTimeout: 10 * time.Second,
			// Address inspections may run several ledger round trips
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		logger: logger,
	}
}

func (s *HTTPServer) ListenAndServe() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
