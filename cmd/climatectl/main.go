package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"climatefund/internal/chain"
	"climatefund/internal/infra"
	"climatefund/internal/nft"
	"climatefund/internal/storage"
)

var (
	rpcURL       string
	contractAddr string
	privateKey   string
	chainID      int64
	relayerURL   string
	encryptorURL string
	dataDir      string
	timeout      time.Duration
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "climatectl",
	Short: "Command-line wallet for ClimateProtectionPHE deployments",
	Long: `climatectl reads projects and platform statistics, creates projects,
sends encrypted donations and keeps a local ledger of virtual NFTs.

Settings default to the same environment variables as the API server
(RPC_URL, CONTRACT_ADDRESS, PRIVATE_KEY, CHAIN_ID, RELAYER_URL).`,
	SilenceUsage: true,
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func init() {
	_ = godotenv.Load()

	defaultContract := envOr("CONTRACT_ADDRESS", os.Getenv("NEXT_PUBLIC_CONTRACT_ADDRESS"))
	var defaultChain int64 = 11155111
	if v := os.Getenv("CHAIN_ID"); v != "" {
		fmt.Sscan(v, &defaultChain)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rpcURL, "rpc", envOr("RPC_URL", "https://eth-sepolia.public.blastapi.io"), "Ethereum JSON-RPC endpoint")
	flags.StringVar(&contractAddr, "contract", defaultContract, "ClimateProtectionPHE contract address")
	flags.StringVar(&privateKey, "key", os.Getenv("PRIVATE_KEY"), "hex private key used to sign transactions")
	flags.Int64Var(&chainID, "chain-id", defaultChain, "chain id used for signing")
	flags.StringVar(&relayerURL, "relayer", envOr("RELAYER_URL", "https://relayer.testnet.zama.cloud"), "FHE relayer URL")
	flags.StringVar(&encryptorURL, "encryptor", os.Getenv("FHE_ENCRYPTOR_URL"), "input encryption endpoint (defaults to the relayer)")
	flags.StringVar(&dataDir, "data-dir", envOr("STORAGE_PATH", "./storage"), "directory of the local NFT ledger")
	flags.DurationVar(&timeout, "timeout", 5*time.Minute, "overall operation timeout")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")

	projectCmd.AddCommand(projectCreateCmd, projectShowCmd, projectProgressCmd, projectListCmd)
	nftCmd.AddCommand(nftListCmd, nftStatsCmd, nftCardCmd, nftPinCmd)
	fheCmd.AddCommand(fheStatusCmd)
	rootCmd.AddCommand(projectCmd, statsCmd, donateCmd, withdrawCmd, nftCmd, fheCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// session carries what every chain-facing command needs.
type session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *infra.Logger
	client   *chain.Client
	contract common.Address
}

func connect(cmd *cobra.Command) (*session, error) {
	logger := infra.NewCLILogger(verbose)
	contract, err := chain.ParseAddress(contractAddr)
	if err != nil {
		return nil, errors.New("a contract address is required (--contract or CONTRACT_ADDRESS)")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	client, err := chain.Dial(ctx, rpcURL, chain.Options{Logger: &logger})
	if err != nil {
		cancel()
		return nil, err
	}
	return &session{ctx: ctx, cancel: cancel, logger: &logger, client: client, contract: contract}, nil
}

func (s *session) transactor() (*chain.Transactor, error) {
	if strings.TrimSpace(privateKey) == "" {
		return nil, errors.New("a signing key is required (--key or PRIVATE_KEY)")
	}
	return chain.NewTransactor(s.client, privateKey, chainID)
}

func openLedger(logger *infra.Logger) (*nft.FileLedger, error) {
	store, err := storage.NewFileStore(dataDir)
	if err != nil {
		return nil, err
	}
	return nft.NewFileLedger(store, logger), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
