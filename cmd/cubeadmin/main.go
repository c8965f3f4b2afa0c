// Command cubeadmin runs the ledger/balance/cube backend as a
// long-lived process that periodically validates and repairs cube
// consistency for every tenant with recent activity. It carries no
// HTTP surface: per spec, routing, auth, and the UI built on top of
// this module are a separate concern.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/fortuna/cubeadmin/internal/app"
	"github.com/dafibh/fortuna/cubeadmin/internal/balance"
	"github.com/dafibh/fortuna/cubeadmin/internal/config"
	"github.com/dafibh/fortuna/cubeadmin/internal/cube"
	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/ledger"
	"github.com/dafibh/fortuna/cubeadmin/internal/pacing"
	"github.com/dafibh/fortuna/cubeadmin/internal/storage/postgres"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	log.Info().Msg("connected to database")

	accountRepo := postgres.NewAccountRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	anchorRepo := postgres.NewBalanceAnchorRepository(pool)
	cubeRepo := postgres.NewCubeRepository(pool)

	accountService := ledger.NewAccountService(accountRepo, anchorRepo)
	categoryService := ledger.NewCategoryService(categoryRepo)
	transactionService := ledger.NewTransactionService(transactionRepo, accountRepo, categoryRepo)
	balanceEngine := balance.NewEngine(accountRepo, anchorRepo, transactionRepo)
	cubeEngine := cube.NewEngine(cubeRepo, transactionRepo)
	pacer := pacing.New(10, 20)
	defer pacer.Stop()

	txManager := postgres.NewTxManager(pool)
	facade := app.New(txManager, accountService, categoryService, transactionService, balanceEngine, cubeEngine, pacer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go runReconciliationLoop(ctx, facade, transactionRepo, cfg, done)

	<-quit
	log.Info().Msg("shutting down")
	cancel()
	<-done
}

// runReconciliationLoop periodically validates cube consistency for
// every tenant with activity in the lookback window and repairs any
// drift it finds via Backfill. It is the only thing this process does
// once started -- every other operation (CreateTransaction, and so
// on) is exposed as a Facade method for a caller (an import job, an
// admin CLI invocation embedding this package) to drive directly.
func runReconciliationLoop(ctx context.Context, facade *app.Facade, transactions domain.TransactionRepository, cfg *config.Config, done chan<- struct{}) {
	defer close(done)

	interval := time.Duration(cfg.BackfillPaceMS) * time.Millisecond * 100
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lookback := 90 * 24 * time.Hour

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reconcileActiveTenants(ctx, facade, transactions, lookback)
		}
	}
}

func reconcileActiveTenants(ctx context.Context, facade *app.Facade, transactions domain.TransactionRepository, lookback time.Duration) {
	since := time.Now().UTC().Add(-lookback)
	tenantIDs, err := transactions.ActiveTenants(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("failed to list active tenants")
		return
	}

	now := time.Now().UTC()
	for _, tenantID := range tenantIDs {
		for _, periodType := range []domain.PeriodType{domain.PeriodWeekly, domain.PeriodMonthly} {
			err := facade.Cube.ValidateConsistency(ctx, tenantID, periodType, since, now)
			if err == nil {
				continue
			}
			log.Warn().Err(err).Str("tenant_id", tenantID).Str("period_type", string(periodType)).Msg("cube drift detected, reconciling")
			if err := facade.Cube.Reconcile(ctx, tenantID, facade.Pacer); err != nil {
				log.Error().Err(err).Str("tenant_id", tenantID).Msg("reconciliation failed")
			}
		}
	}
}
