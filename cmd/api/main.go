package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/awonak/pool-party/internal/adapter/memory"
	"github.com/awonak/pool-party/internal/adapter/repo"
	"github.com/awonak/pool-party/internal/auth"
	"github.com/awonak/pool-party/internal/display"
	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/http/handlers"
	"github.com/awonak/pool-party/internal/http/httpapi"
	"github.com/awonak/pool-party/internal/idempotency"
	"github.com/awonak/pool-party/internal/infra"
	"github.com/awonak/pool-party/internal/infra/geoip"
	"github.com/awonak/pool-party/internal/ledger"
	"github.com/awonak/pool-party/internal/payment"
)

type stores struct {
	pools      domain.PoolRepository
	ledger     domain.LedgerRepository
	site       domain.SiteRepository
	moderators auth.ModeratorDirectory
	close      func()
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer st.close()

	formatter, err := display.NewFormatter(cfg.Currency, cfg.DefaultLocale)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid display settings")
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid session settings")
	}
	payments, err := payment.New(cfg.PaymentProvider, cfg.Currency)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid payment provider")
	}
	if _, disabled := payments.(payment.Disabled); disabled {
		logger.Warn().Msg("PAYMENT_PROVIDER not set, donation capture is disabled")
	}

	countries, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer countries.Close()

	var idem idempotency.Store
	if cfg.RedisURL != "" {
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer client.Close()
		idem = idempotency.NewRedisStore(client)
	} else {
		logger.Warn().Msg("REDIS_URL not set, Idempotency-Key headers are ignored")
	}

	recorder := ledger.NewRecorder(st.ledger, logger)
	app := &handlers.App{
		Registry:  ledger.NewRegistry(st.pools),
		Ledger:    ledger.NewService(recorder, cfg.MinDonation, logger),
		Payments:  payments,
		Site:      st.site,
		Formatter: formatter,
		Logger:    logger,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		Authenticator:   auth.NewAuthenticator(tokens, st.moderators),
		Locales:         formatter,
		CountryLookup:   countries.Lookup(),
		Idempotency:     idem,
		IdempotencyTTL:  cfg.IdempotencyTTL,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("store", cfg.StoreDriver).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func openStores(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*stores, error) {
	site := domain.Site{Title: cfg.SiteTitle, Headline: cfg.SiteHeadline}
	static := auth.NewStaticDirectory(cfg.ModeratorIDs)

	if cfg.StoreDriver == infra.StoreDriverMemory {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		mem := memory.NewStore()
		return &stores{
			pools:      mem,
			ledger:     mem,
			site:       memory.NewSiteStore(site),
			moderators: static,
			close:      func() {},
		}, nil
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := infra.NewSQLRunner(pool, logger)
	if err := repo.EnsureSchema(ctx, runner); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		pools:  repo.NewPoolRepository(runner),
		ledger: repo.NewLedgerRepository(runner),
		site:   repo.NewSiteRepository(runner, site),
		moderators: auth.AnyDirectory{
			static,
			auth.NewUserDirectory(repo.NewUserRepository(runner)),
		},
		close: pool.Close,
	}, nil
}
