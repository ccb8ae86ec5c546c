package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"climatefund/internal/adapter/repo"
	"climatefund/internal/chain"
	"climatefund/internal/infra"
	"climatefund/internal/sqlinline"
	"climatefund/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("component", "worker").Logger()
	metrics := infra.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to ensure schema")
	}

	client, err := chain.Dial(ctx, cfg.RPCURL, chain.Options{Logger: &logger, Metrics: metrics, CallTimeout: cfg.RPCTimeout})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to connect rpc")
	}

	var defaultContract common.Address
	if cfg.ContractAddress != "" {
		if defaultContract, err = chain.ParseAddress(cfg.ContractAddress); err != nil {
			logger.Fatal().Err(err).Msg("worker: invalid CONTRACT_ADDRESS")
		}
	}

	w := &worker.Worker{
		Queue:           repo.NewSubmissionRepository(runner),
		Chain:           client,
		Ledger:          repo.NewNFTRepository(runner, metrics),
		Logger:          &logger,
		Metrics:         metrics,
		PollInterval:    cfg.WorkerPollInterval,
		DefaultContract: defaultContract,
	}

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
