// Package server wires the storefront together: config, database, cache,
// queue workers, the route table, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/controllers"
	"github.com/mad23dog/nomad-detroit-coffee/app/notifications"
	"github.com/mad23dog/nomad-detroit-coffee/app/repositories"
	"github.com/mad23dog/nomad-detroit-coffee/app/routes"
	"github.com/mad23dog/nomad-detroit-coffee/app/services"
	"github.com/mad23dog/nomad-detroit-coffee/config"
	"github.com/mad23dog/nomad-detroit-coffee/internal/paypal"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/cache"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/database"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/logger"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/metrics"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/middleware"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/migration"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/queue"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/reqid"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/router"
)

const (
	shutdownTimeout = 10 * time.Second
	queueWorkers    = 2
)

// Server is the running storefront application.
type Server struct {
	db   *gorm.DB
	http *http.Server
}

// New loads configuration, opens the database, runs any pending
// migrations, and builds the full handler chain.
func New() (*Server, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Setup()

	db, err := database.Open()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migration.New(db).Run(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Redis is optional; the cache falls back to in-memory when it is
	// not reachable.
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, using in-memory cache", "error", err)
	}

	notifications.RegisterJobs()

	handler := Handler(db)
	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{db: db, http: srv}, nil
}

// Handler builds the complete HTTP handler for the given database. Split
// out so tests can mount the real route table over a test database.
func Handler(db *gorm.DB) http.Handler {
	productRepo := repositories.NewProductRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	catalog := services.NewCatalogService(productRepo)
	orders := services.NewOrderService(db, productRepo, orderRepo,
		paypal.NewClient(), notifications.QueueNotifier{})
	auth := services.NewAuthService(db)

	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(120, time.Minute),
	)
	routes.Register(r, routes.Controllers{
		Products: controllers.NewProductController(catalog),
		Orders:   controllers.NewOrderController(orders),
		Auth:     controllers.NewAuthController(auth),
	})
	return r.Handler()
}

// Run starts the queue workers and the HTTP listener, then blocks until
// SIGINT/SIGTERM and drains in-flight requests.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue.StartWorkers(ctx, queueWorkers)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", s.http.Addr, "env", config.AppEnv())
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return database.Close(s.db)
}
