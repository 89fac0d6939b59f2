package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/trn-portal/trn_portal/internal/config"
	"github.com/trn-portal/trn_portal/internal/metrics"
	"github.com/trn-portal/trn_portal/internal/routes"
)

// Server wraps the Fiber application and the lifetime of its background work.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	cancel context.CancelFunc
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// db and cache may be nil in development.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(FiberConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	err := routes.Setup(app, routes.Deps{
		Cfg:     cfg,
		DB:      db,
		Cache:   cache,
		Logger:  logger,
		Metrics: metrics.New(),
		Ctx:     ctx,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	return &Server{app: app, cfg: cfg, cancel: cancel}, nil
}

// FiberConfig derives the Fiber settings from cfg. Without a proxy header
// c.IP() is the socket peer; with one it is read only from trusted proxies.
func FiberConfig(cfg config.Config) fiber.Config {
	fc := fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	if cfg.ProxyHeader != "" {
		fc.ProxyHeader = cfg.ProxyHeader
		fc.EnableTrustedProxyCheck = true
		fc.TrustedProxies = cfg.TrustedProxies
	}
	return fc
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops background janitors and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.app.ShutdownWithContext(ctx)
}
