package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tenantops/subadmin/internal/auth"
	"github.com/tenantops/subadmin/internal/cache"
	"github.com/tenantops/subadmin/internal/config"
	"github.com/tenantops/subadmin/internal/handler"
	"github.com/tenantops/subadmin/internal/repository"
	"github.com/tenantops/subadmin/internal/service"
	appvalidator "github.com/tenantops/subadmin/internal/validator"
	"github.com/tenantops/subadmin/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Plan cache is optional: without REDIS_ADDR plan lookups go straight
	// to the database.
	planCache := newPlanCache(cfg)

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Subscription Admin Service",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator with custom rules
	validate := appvalidator.New()

	// Repositories
	couponRepo := repository.NewCouponRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Services. PlanService doubles as the plan lookup for coupon
	// eligibility and plan assignment.
	planService := service.NewPlanService(planRepo, planCache)
	couponService := service.NewCouponService(pool, couponRepo, redemptionRepo, planService)
	userService := service.NewUserService(userRepo, planService)

	// Handlers
	couponHandler := handler.NewCouponHandler(couponService, validate)
	redemptionHandler := handler.NewRedemptionHandler(couponService, validate)
	planHandler := handler.NewPlanHandler(planService, validate)
	userHandler := handler.NewUserHandler(userService, validate)
	healthHandler := handler.NewHealthHandler(pool)

	app.Get("/health", healthHandler.Check)

	// Coupon routes. validate/redeem come before :code so the literal
	// segments are not captured as a code parameter.
	app.Post("/api/coupons/validate", auth.Require(auth.ActionCouponsRedeem), redemptionHandler.ValidateCoupon)
	app.Post("/api/coupons/redeem", auth.Require(auth.ActionCouponsRedeem), redemptionHandler.RedeemCoupon)
	app.Post("/api/coupons", auth.Require(auth.ActionCouponsManage), couponHandler.CreateCoupon)
	app.Get("/api/coupons", auth.Require(auth.ActionCouponsRead), couponHandler.ListCoupons)
	app.Get("/api/coupons/:code", auth.Require(auth.ActionCouponsRead), couponHandler.GetCoupon)
	app.Put("/api/coupons/:id", auth.Require(auth.ActionCouponsManage), couponHandler.UpdateCoupon)
	app.Post("/api/coupons/:id/toggle", auth.Require(auth.ActionCouponsManage), couponHandler.ToggleCoupon)

	// Plan routes
	app.Post("/api/plans", auth.Require(auth.ActionPlansManage), planHandler.CreatePlan)
	app.Get("/api/plans", auth.Require(auth.ActionPlansRead), planHandler.ListPlans)
	app.Get("/api/plans/active", auth.Require(auth.ActionPlansRead), planHandler.ListActivePlans)
	app.Get("/api/plans/:id", auth.Require(auth.ActionPlansRead), planHandler.GetPlan)
	app.Put("/api/plans/:id", auth.Require(auth.ActionPlansManage), planHandler.UpdatePlan)
	app.Post("/api/plans/:id/toggle", auth.Require(auth.ActionPlansManage), planHandler.TogglePlan)

	// User routes
	app.Post("/api/users", auth.Require(auth.ActionUsersManage), userHandler.CreateUser)
	app.Get("/api/users", auth.Require(auth.ActionUsersRead), userHandler.ListUsers)
	app.Get("/api/users/:id", auth.Require(auth.ActionUsersRead), userHandler.GetUser)
	app.Put("/api/users/:id", auth.Require(auth.ActionUsersManage), userHandler.UpdateUser)
	app.Post("/api/users/:id/toggle", auth.Require(auth.ActionUsersManage), userHandler.ToggleUser)
	app.Post("/api/users/:id/assign-plan", auth.Require(auth.ActionUsersManage), userHandler.AssignPlan)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// newPlanCache builds the redis plan cache, or a noop when REDIS_ADDR is
// unset. A redis that is down at startup is tolerated: reads degrade to
// database lookups.
func newPlanCache(cfg *config.Config) service.PlanCache {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("plan cache disabled (no REDIS_ADDR)")
		return cache.NewNoop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Info().Str("addr", cfg.Redis.Addr).Int("ttl_seconds", cfg.Redis.PlanTTLSec).Msg("plan cache enabled")
	return cache.NewRedisPlanCache(client, time.Duration(cfg.Redis.PlanTTLSec)*time.Second)
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
