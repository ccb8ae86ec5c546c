package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"climatefund/internal/adapter/repo"
	"climatefund/internal/chain"
	"climatefund/internal/fhe"
	"climatefund/internal/http/handlers"
	httpapi "climatefund/internal/http/httpapi"
	"climatefund/internal/infra"
	"climatefund/internal/infra/credentials"
	"climatefund/internal/infra/geoip"
	"climatefund/internal/ipfs"
	"climatefund/internal/middleware"
	"climatefund/internal/nft"
	"climatefund/internal/sqlinline"
	"climatefund/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	metrics := infra.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.Dial(ctx, cfg.RPCURL, chain.Options{Logger: &logger, Metrics: metrics, CallTimeout: cfg.RPCTimeout})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect rpc")
	}

	app := &handlers.App{
		Chain:           client,
		Metrics:         metrics,
		Logger:          &logger,
		DefaultContract: cfg.ContractAddress,
	}

	pinata := credentials.Pinata{APIKey: cfg.PinataAPIKey, SecretKey: cfg.PinataSecretKey}
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		app.Ledger = repo.NewNFTRepository(runner, metrics)
		app.Submissions = repo.NewSubmissionRepository(runner)
		if pinata, err = credentials.NewStore(runner).Resolve(ctx, pinata); err != nil {
			logger.Warn().Err(err).Msg("failed to load pinata credentials from store")
		}
	} else {
		store, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure storage")
		}
		app.Ledger = nft.NewFileLedger(store, &logger)
		logger.Warn().Str("path", store.BasePath()).Msg("DATABASE_URL not set, using file ledger without submission queue")
	}

	if !pinata.Empty() {
		app.Pinner = ipfs.NewClient(ipfs.Options{
			APIKey:    pinata.APIKey,
			SecretKey: pinata.SecretKey,
			BaseURL:   cfg.PinataBaseURL,
			Logger:    &logger,
		})
	}

	fheCtx, cancelFHE := context.WithTimeout(ctx, 15*time.Second)
	session, err := fhe.NewSession(fheCtx, fhe.Config{
		ChainID:        cfg.ChainID,
		GatewayChainID: cfg.GatewayChainID,
		NetworkURL:     cfg.RPCURL,
		RelayerURL:     cfg.RelayerURL,
		EncryptorURL:   cfg.EncryptorURL,
	}, fhe.Options{Logger: &logger, Metrics: metrics})
	cancelFHE()
	if err != nil {
		logger.Warn().Err(err).Msg("fhe session unavailable, status route will report it")
	} else {
		app.FHE = session
		defer session.Close()
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		DefaultLocale:  middleware.LocaleEN,
		CountryLookup:  resolver.Lookup(),
		Limiter:        middleware.NewIPLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, 10*time.Minute),
		RequestTimeout: cfg.HTTPWriteTimeout,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("contract", cfg.ContractAddress).Msg("api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
