package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saju-content-payments/internal/config"
	"saju-content-payments/internal/domain/ports/adapter"
	"saju-content-payments/internal/domain/ports/repository"
	pg "saju-content-payments/internal/infra/db/postgres"
	"saju-content-payments/internal/infra/logging"
	"saju-content-payments/internal/infra/metrics"
	pay "saju-content-payments/internal/infra/payment"
	red "saju-content-payments/internal/infra/redis"
	"saju-content-payments/internal/infra/sched"
	"saju-content-payments/internal/infra/web"
	"saju-content-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (mock gateway, unsigned webhooks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis (optional: cache + webhook dedup) ----
	var redisClient red.RedisClient
	var deduper *red.WebhookDeduper
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		deduper = red.NewWebhookDeduper(redisClient, 24*time.Hour)
	} else {
		logger.Warn().Msg("redis.url not set; product cache and webhook dedup disabled")
	}

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	notifRepo := pg.NewNotificationLogRepo(pool)
	var productRepo repository.ProductRepository = pg.NewProductRepo(pool)
	if redisClient != nil {
		productRepo = pg.NewProductRepoCacheDecorator(productRepo, redisClient, cfg.Redis.TTL)
	}

	// ---- Gateway ----
	var gateway adapter.PaymentGateway
	switch {
	case cfg.Toss.SecretKey != "":
		gateway = pay.NewTossGateway(cfg.Toss.SecretKey, cfg.Toss.BaseURL)
		logger.Info().Str("base_url", cfg.Toss.BaseURL).Msg("gateway: toss")
	case cfg.MockAllowed():
		gateway = pay.NewMockGateway()
		logger.Warn().Msg("gateway: mock (dev only)")
	default:
		// LoadConfig fails closed before this point; keep the guard anyway.
		logger.Fatal().Msg("no gateway secret and mock payments disabled")
	}

	// ---- Use cases ----
	entUC := usecase.NewEntitlementUseCase(purchaseRepo, logger)
	notifUC := usecase.NewNotificationUseCase(notifRepo, logger)
	payUC := usecase.NewPaymentUseCase(payRepo, productRepo, purchaseRepo, entUC, gateway, tm, cfg.MockAllowed(), logger)
	hookUC := usecase.NewWebhookUseCase(payRepo, payUC, entUC, notifUC, logger)

	// ---- HTTP servers ----
	apiSrv := web.NewServer(payUC, hookUC, entUC, cfg.Toss.WebhookSecret, cfg.MockAllowed(), deduper, logger)
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", 30*time.Minute)
	adminSrv := web.NewAdminServer(payUC, cfg.Admin.APIKey, auth, logger)

	go func() {
		if err := apiSrv.Start(cfg.Server.Port); err != nil {
			logger.Error().Err(err).Msg("payments API server stopped")
			cancel()
		}
	}()
	go func() {
		if err := adminSrv.Start(cfg.Admin.Port); err != nil {
			logger.Error().Err(err).Msg("admin server stopped")
			cancel()
		}
	}()

	// ---- Workers ----
	expiry := sched.NewExpiryWorker(cfg.Worker.ExpirySweepInterval, entUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	reconciler := sched.NewPaymentReconciler(
		payUC, payRepo, gateway,
		cfg.Worker.ReconcileInterval, cfg.Worker.ReconcileStaleAfter, cfg.Worker.ReconcileBatchLimit,
		logger,
	)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
}
