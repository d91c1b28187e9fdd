package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pie-progression/config"
	"pie-progression/handlers"
	"pie-progression/logger"
	"pie-progression/middleware"
	"pie-progression/observability"
	"pie-progression/services"
	"pie-progression/store"
	"pie-progression/utils"
	"pie-progression/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot, _ := logger.New("development")
		boot.Fatal("invalid configuration", "error", err)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: "pie-progression",
		Environment: cfg.AppEnv,
	})

	rules, err := services.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatal("failed to load progression rules", "file", cfg.RulesFile, "error", err)
	}

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", "driver", cfg.DBDriver, "error", err)
	}
	st := store.NewGormStore(db)

	var publisher services.Publisher
	if cfg.RedisAddr != "" {
		redisPublisher, err := utils.NewRedisPublisher(utils.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.NotifyChannel,
		})
		if err != nil {
			log.Warn("redis unavailable, notifications will only be stored", "error", err)
		} else {
			defer redisPublisher.Close()
			publisher = redisPublisher
		}
	}

	opts := []services.Option{
		services.WithRules(rules),
		services.WithNotifier(services.NewNotifier(st, publisher, log)),
	}
	if cfg.R2Enabled() {
		archiver, err := utils.NewR2Archiver(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client", "error", err)
		}
		opts = append(opts, services.WithArchiver(archiver))
	}
	progressionService := services.NewProgressionService(st, log, opts...)

	sched, err := progressionService.StartScheduler(ctx, services.ScheduleConfig{
		RotateEvery:      cfg.SeasonRotateInterval,
		SweepEvery:       cfg.InfluenceSweepInterval,
		SweepConcurrency: cfg.InfluenceSweepConcurrency,
	})
	if err != nil {
		log.Fatal("failed to start scheduler", "error", err)
	}

	if cfg.SyncServiceURL != "" {
		workers.NewProfileSyncWorker(st, log, cfg.SyncServiceURL, cfg.ServiceToken, cfg.SyncInterval).Start(ctx)
	} else {
		log.Warn("SYNC_SERVICE_URL not set, profile sync disabled")
	}

	app := fiber.New(fiber.Config{
		AppName: "pie-progression",
	})

	// scraped in-cluster, outside the gateway
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// GLOBAL: only Gateway requests allowed past this point
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, log))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupProgressionRoutes(app, progressionService, log)

	go func() {
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Error("server error", "error", err)
		}
	}()

	log.Info("server running", "port", cfg.AppPort, "env", cfg.AppEnv, "driver", cfg.DBDriver,
		"origins", cfg.AllowedOrigins, "redis", publisher != nil, "r2", cfg.R2Enabled())

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := sched.Shutdown(); err != nil {
		log.Error("scheduler shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "error", err)
	}
}
