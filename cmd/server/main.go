package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"accelerator-admin/internal/admin"
	"accelerator-admin/internal/auth"
	"accelerator-admin/internal/config"
	"accelerator-admin/internal/engine"
	"accelerator-admin/internal/instrument"
	"accelerator-admin/internal/logger"
	"accelerator-admin/internal/metadata"
	"accelerator-admin/internal/store"
	"accelerator-admin/internal/views"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	// 2. Load entity descriptors
	reg := metadata.NewRegistry()
	if err := metadata.LoadAll(reg, cfg.Catalog.Path, zl); err != nil {
		return err
	}

	// 3. Open the record store
	rs, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer rs.Close()
	zl.Info("record store ready", zap.String("driver", cfg.Database.Driver))

	// 4. Wire the engine
	defaults := engine.Defaults{Limit: cfg.Pagination.DefaultLimit, MaxLimit: cfg.Pagination.MaxLimit}
	metrics := instrument.NewMetrics()
	renderer := engine.NewRenderer(views.MustNew(), cfg.Server.FragmentHeader, zl)
	engineHandler := engine.NewHandler(
		engine.NewLocator(reg, rs, zl),
		engine.NewBulkExecutor(cfg.Bulk.Concurrency, metrics, zl),
		renderer,
		defaults,
	)

	// 5. Create Fiber app
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(renderer, zl),
	})
	app.Use(instrument.Middleware(metrics, zl, func(c *fiber.Ctx) string {
		return renderer.ModeOf(c).String()
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 6. Health check and metrics
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := rs.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	// 7. Auth middleware for all /api routes
	authMW := auth.AuthMiddleware(cfg.JWTSecret)
	adminMW := auth.RequireAdmin(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		zl.Warn("jwt_secret is empty; /api routes are not authenticated")
	}

	// 8. Descriptor routes go first so /api/:entity/:id does not shadow them
	admin.RegisterAdminRoutes(app, admin.NewHandler(reg, defaults), authMW, adminMW)

	// 9. Register dynamic entity routes
	engine.RegisterDynamicRoutes(app, engineHandler, authMW, adminMW)

	// 10. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		zl.Info("starting server", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.RecordStore, error) {
	if cfg.IsMemory() {
		return store.NewMemoryStore(), nil
	}
	s, err := store.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return s, nil
}

// errorHandler is the last resort for errors that escape a handler, such as
// those returned by the auth middleware.
func errorHandler(r *engine.Renderer, zl *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return r.Error(c, engine.NewAppError("HTTP_ERROR", fiberErr.Code, fiberErr.Message))
		}

		var appErr *engine.AppError
		if !errors.As(err, &appErr) {
			zl.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			appErr = engine.NewAppError("INTERNAL_ERROR", fiber.StatusInternalServerError, "Internal server error")
		}
		return r.Error(c, appErr)
	}
}
