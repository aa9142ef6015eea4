package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/awonak/pool-party/internal/adapter/repo"
	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/infra"
	"github.com/awonak/pool-party/internal/ledger"
)

type reconciler struct {
	recorder *ledger.Recorder
	logger   infra.Logger
	interval time.Duration
}

func main() {
	var once bool
	flag.BoolVar(&once, "once", false, "run a single check and exit non-zero on drift")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "reconciler").Logger()
	if cfg.StoreDriver != infra.StoreDriverPostgres {
		logger.Fatal().Str("driver", cfg.StoreDriver).Msg("reconciler: needs the postgres store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("reconciler: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	r := &reconciler{
		recorder: ledger.NewRecorder(repo.NewLedgerRepository(runner), logger),
		logger:   logger,
		interval: cfg.ReconcileInterval,
	}

	if once {
		if err := r.check(ctx); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("reconciler: stopped with error")
	}
	logger.Info().Msg("reconciler: stopped")
}

func (r *reconciler) Run(ctx context.Context) error {
	if r.interval <= 0 {
		r.interval = 5 * time.Minute
	}
	r.logger.Info().Dur("interval", r.interval).Msg("reconciler: started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		_ = r.check(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *reconciler) check(ctx context.Context) error {
	summary, err := r.recorder.Reconcile(ctx)
	switch {
	case errors.Is(err, domain.ErrLedgerDrift):
		r.logger.Error().Err(err).
			Str("net_balance", domain.FormatAmount(summary.NetBalance)).
			Str("pool_balance", domain.FormatAmount(summary.PoolBalance)).
			Msg("reconciler: ledger drift detected")
	case err != nil:
		if !errors.Is(err, context.Canceled) {
			r.logger.Error().Err(err).Msg("reconciler: check failed")
		}
	default:
		r.logger.Info().
			Str("total_donations", domain.FormatAmount(summary.TotalDonations)).
			Str("total_withdrawals", domain.FormatAmount(summary.TotalWithdrawals)).
			Str("net_balance", domain.FormatAmount(summary.NetBalance)).
			Msg("reconciler: ledger consistent")
	}
	return err
}
