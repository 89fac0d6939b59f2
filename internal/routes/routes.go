package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/trn-portal/trn_portal/internal/account"
	"github.com/trn-portal/trn_portal/internal/auth"
	"github.com/trn-portal/trn_portal/internal/config"
	"github.com/trn-portal/trn_portal/internal/eligibility"
	"github.com/trn-portal/trn_portal/internal/metrics"
	"github.com/trn-portal/trn_portal/internal/middleware"
	"github.com/trn-portal/trn_portal/internal/notification"
	"github.com/trn-portal/trn_portal/internal/options"
	"github.com/trn-portal/trn_portal/internal/otp"
	"github.com/trn-portal/trn_portal/internal/trn"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Notifier notification.Notifier
	// Ctx bounds background janitors. Defaults to context.Background.
	Ctx context.Context
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}

	roster, err := eligibility.LoadRoster(d.Cfg.AdminRosterFile)
	if err != nil {
		return err
	}
	d.Logger.Info("admin roster loaded", slog.Int("entries", roster.Len()))

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	app.Use(d.Metrics.Middleware())

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", d.Metrics.Handler())

	optionSvc := options.NewService(optionRepository(d))
	accountSvc := account.NewService(accountRepository(d))
	trnSvc := trn.NewService(trnRepository(d), optionSvc)

	authSvc := auth.NewService(auth.Deps{
		Accounts: accountSvc,
		Registry: otpRegistry(d),
		Roster:   roster,
		Options:  optionSvc,
		Notifier: d.Notifier,
		Metrics:  d.Metrics,
		Logger:   d.Logger,
	}, auth.Settings{PhonePrefix: d.Cfg.PhonePrefix, OTPTTL: d.Cfg.OTPTTL})

	otpLimiter := middleware.NewIPRateLimiter(d.Cfg.OTPRateLimitPerSecond, d.Cfg.OTPRateLimitBurst)
	go otpLimiter.RunPruner(d.Ctx, d.Cfg.OTPSweepInterval)

	api := app.Group("/api")
	RegisterAuthRoutes(api, auth.NewHandler(authSvc, d.Logger),
		middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit),
		otpLimiter.Handler(),
	)
	RegisterOptionRoutes(api, options.NewHandler(optionSvc, d.Logger))
	RegisterTRNRoutes(api, trn.NewHandler(trnSvc, d.Logger),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	)

	return nil
}

// RegisterAuthRoutes wires login and registration endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, loginLimit, otpLimit fiber.Handler) {
	r.Post("/login", loginLimit, h.Login)
	r.Post("/register", otpLimit, h.Register)
	r.Post("/send-otp", otpLimit, h.SendOTP)
	r.Post("/verify-otp", otpLimit, h.VerifyOTP)
	r.Post("/cancel-otp", h.CancelOTP)
	r.Post("/admin-eligible", h.AdminEligible)
}

// RegisterOptionRoutes wires the dropdown list endpoints.
func RegisterOptionRoutes(r fiber.Router, h *options.Handler) {
	r.Get("/positions", h.Positions)
	r.Get("/provinces", h.Provinces)
	r.Get("/status-options", h.Statuses)
}

// RegisterTRNRoutes wires record search and update.
func RegisterTRNRoutes(r fiber.Router, h *trn.Handler, idempotency fiber.Handler) {
	r.Post("/trn-search", h.Search)
	r.Post("/trn-update", idempotency, h.Update)
}

func accountRepository(d Deps) account.Repository {
	if d.DB != nil {
		return account.NewPostgresRepository(d.DB)
	}
	return account.NewMemoryRepository()
}

func optionRepository(d Deps) options.Repository {
	if d.DB != nil {
		return options.NewPostgresRepository(d.DB)
	}
	return options.NewMemoryRepository(map[string][]string{
		options.KindPosition: d.Cfg.DefaultPositions,
		options.KindProvince: d.Cfg.DefaultProvinces,
		options.KindStatus:   d.Cfg.DefaultStatuses,
	})
}

func trnRepository(d Deps) trn.Repository {
	if d.DB != nil {
		return trn.NewPostgresRepository(d.DB)
	}
	return trn.NewMemoryRepository()
}

func otpRegistry(d Deps) otp.Registry {
	opts := otp.Options{
		TTL:            d.Cfg.OTPTTL,
		ResendCooldown: d.Cfg.OTPResendCooldown,
		MaxAttempts:    d.Cfg.OTPMaxAttempts,
	}
	if d.Cache != nil {
		d.Logger.Info("otp registry backend", slog.String("backend", "redis"))
		return otp.NewRedisRegistry(d.Cache, opts)
	}
	d.Logger.Info("otp registry backend", slog.String("backend", "memory"))
	reg := otp.NewMemoryRegistry(opts)
	go reg.RunJanitor(d.Ctx, d.Cfg.OTPSweepInterval)
	return reg
}
