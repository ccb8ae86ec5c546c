package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"climatefund/internal/infra"
)

var (
	// ErrReverted is returned when a mined transaction has a failed status.
	ErrReverted = errors.New("chain: transaction reverted")
	// ErrPending is returned when a transaction is known but not yet mined.
	ErrPending = errors.New("chain: transaction pending")
	// ErrNotDonation is returned when a transaction is not a donate call to the contract.
	ErrNotDonation = errors.New("chain: transaction is not a donation")
)

// Backend is the subset of the JSON-RPC client used by this package.
// *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// Options configures a Client.
type Options struct {
	Logger       *infra.Logger
	Metrics      *infra.Metrics
	PollInterval time.Duration
	CallTimeout  time.Duration
}

// Client reads from and writes to ClimateProtectionPHE deployments through a
// JSON-RPC backend. The contract address is passed per call so one client can
// serve several deployments.
type Client struct {
	backend      Backend
	logger       *infra.Logger
	metrics      *infra.Metrics
	pollInterval time.Duration
	callTimeout  time.Duration
}

// NewClient wraps a backend.
func NewClient(backend Backend, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		backend:      backend,
		logger:       logger,
		metrics:      opts.Metrics,
		pollInterval: poll,
		callTimeout:  timeout,
	}
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rawURL string, opts Options) (*Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("chain: rpc url is required")
	}
	ec, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial rpc: %w", err)
	}
	return NewClient(ec, opts), nil
}

// ParseAddress validates and parses a hex address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("chain: invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func (c *Client) call(ctx context.Context, contract common.Address, method string, args ...any) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	out, err := c.doCall(ctx, contract, method, args...)
	c.metrics.ObserveContractCall(method, err)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("contract", contract.Hex()).Msg("chain: call failed")
		return nil, err
	}
	c.logger.Debug().Str("method", method).Str("contract", contract.Hex()).Msg("chain: call ok")
	return out, nil
}

func (c *Client) doCall(ctx context.Context, contract common.Address, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	raw, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("chain: call %s: empty response (is %s a contract?)", method, contract.Hex())
	}
	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return out, nil
}
