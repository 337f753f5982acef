package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/internal/stock"
	"github.com/angelmondragon/pos-backend/internal/sweep"
	"github.com/angelmondragon/pos-backend/pkg/audit"
	"github.com/angelmondragon/pos-backend/pkg/config"
	"github.com/angelmondragon/pos-backend/pkg/db"
	"github.com/angelmondragon/pos-backend/pkg/logger"
	"github.com/angelmondragon/pos-backend/pkg/metrics"
	"github.com/angelmondragon/pos-backend/pkg/migrate"
	"github.com/angelmondragon/pos-backend/pkg/redis"
)

const sweepLockName = "stock-sweep"

func main() {
	logg := logger.New(logger.Options{ServiceName: "stock-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "stock-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var lock sweep.Lock = &sweep.LocalLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := sweep.NewRedisLock(redisClient, redis.LockKey(sweepLockName, cfg.App.Env), 0)
		if err != nil {
			logg.Error(ctx, "failed to create sweep lock", err)
			os.Exit(1)
		}
		lock = redisLock
	} else {
		logg.Warn(ctx, "redis not configured, run a single stock worker")
	}

	dbSink, err := audit.NewDBSink(dbClient.DB())
	if err != nil {
		logg.Error(ctx, "failed to create audit sink", err)
		os.Exit(1)
	}

	stockSvc, err := stock.NewService(stock.ServiceParams{
		Repository: stock.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Audit:      audit.NewRecorder(logg, dbSink),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stock service", err)
		os.Exit(1)
	}

	sweepMetrics := metrics.NewSweepMetrics(prometheus.DefaultRegisterer)
	threshold := decimal.NewFromFloat(cfg.Stock.LowStockThresholdGrams)

	lowStockJob, err := sweep.NewLowStockJob(stockSvc, threshold, sweepMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create low stock job", err)
		os.Exit(1)
	}
	reconcileJob, err := sweep.NewLedgerReconcileJob(stockSvc, sweepMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create reconcile job", err)
		os.Exit(1)
	}

	runner, err := sweep.NewRunner(sweep.RunnerParams{
		Logger:   logg,
		Lock:     lock,
		Metrics:  sweepMetrics,
		Interval: cfg.Stock.SweepInterval,
		Jobs:     []sweep.Job{lowStockJob, reconcileJob},
	})
	if err != nil {
		logg.Error(ctx, "failed to create stock sweep runner", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "interval", cfg.Stock.SweepInterval.String()), "starting stock worker")
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "stock worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "stock worker shutting down gracefully")
}
