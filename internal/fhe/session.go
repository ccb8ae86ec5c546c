package fhe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"climatefund/internal/infra"
)

var (
	// ErrUnavailable is returned when the relayer cannot be reached or rejects
	// initialization.
	ErrUnavailable = errors.New("fhe: relayer unavailable")
	// ErrNotInitialized is returned when a session is used after Close.
	ErrNotInitialized = errors.New("fhe: session not initialized")
	// ErrAmountRange is returned when an amount does not fit a 64-bit input.
	ErrAmountRange = errors.New("fhe: amount out of range")
	// ErrEmptyInput is returned when Encrypt is called with no values.
	ErrEmptyInput = errors.New("fhe: encrypted input has no values")
)

// SDKName identifies the client library the relayer protocol belongs to.
const SDKName = "@zama-fhe/relayer-sdk"

// Options configures a Session.
type Options struct {
	HTTPClient *http.Client
	Logger     *infra.Logger
	Metrics    *infra.Metrics
}

// Session is an initialized connection to the relayer. Create one with
// NewSession and release it with Close; sessions are safe for concurrent use.
type Session struct {
	cfg        Config
	httpClient *http.Client
	logger     *infra.Logger
	metrics    *infra.Metrics

	mu          sync.RWMutex
	initialized bool
	publicKeyID string
}

// Ciphertext is the output of one encryption: a handle per input value and
// a single proof covering all of them.
type Ciphertext struct {
	Handles    []Encoded `json:"handles"`
	InputProof Encoded   `json:"inputProof"`
}

// Status describes the session for diagnostics.
type Status struct {
	SDK            string `json:"sdk"`
	Config         string `json:"config"`
	RelayerURL     string `json:"relayerUrl"`
	ChainID        int64  `json:"chainId"`
	GatewayChainID int64  `json:"gatewayChainId"`
	IsInitialized  bool   `json:"isInitialized"`
	HasInstance    bool   `json:"hasInstance"`
	PublicKeyID    string `json:"publicKeyId,omitempty"`
}

type keyURLResponse struct {
	Response struct {
		FHEKeyInfo []struct {
			FHEPublicKey struct {
				DataID string   `json:"data_id"`
				URLs   []string `json:"urls"`
			} `json:"fhe_public_key"`
		} `json:"fhe_key_info"`
	} `json:"response"`
	Status string `json:"status"`
}

// NewSession discovers the relayer's public key material. Any failure is
// reported as ErrUnavailable.
func NewSession(ctx context.Context, cfg Config, opts Options) (*Session, error) {
	cfg = cfg.withDefaults()
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	s := &Session{cfg: cfg, httpClient: httpClient, logger: logger, metrics: opts.Metrics}

	keyID, err := s.fetchKeyURL(ctx)
	if err != nil {
		logger.Error().Err(err).Str("relayer", cfg.RelayerURL).Msg("fhe: initialization failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.initialized = true
	s.publicKeyID = keyID
	logger.Info().
		Str("relayer", cfg.RelayerURL).
		Int64("chain_id", cfg.ChainID).
		Int64("gateway_chain_id", cfg.GatewayChainID).
		Msg("fhe: session ready")
	return s, nil
}

func (s *Session) fetchKeyURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.RelayerURL+"/v1/keyurl", nil)
	if err != nil {
		return "", fmt.Errorf("build keyurl request: %w", err)
	}
	raw, err := s.do(req)
	if err != nil {
		return "", err
	}
	var decoded keyURLResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode keyurl: %w", err)
	}
	for _, info := range decoded.Response.FHEKeyInfo {
		if id := strings.TrimSpace(info.FHEPublicKey.DataID); id != "" {
			return id, nil
		}
	}
	return "", nil
}

// Ready reports whether the session can encrypt.
func (s *Session) Ready() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Close ends the session. Later encryptions fail with ErrNotInitialized.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
}

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// Status reports the session state in the shape of the diagnostics route.
func (s *Session) Status() Status {
	cfg := DefaultConfig()
	if s != nil {
		cfg = s.cfg
	}
	st := Status{
		SDK:            SDKName,
		Config:         "OfficialConfig",
		RelayerURL:     cfg.RelayerURL,
		ChainID:        cfg.ChainID,
		GatewayChainID: cfg.GatewayChainID,
		IsInitialized:  s.Ready(),
	}
	st.HasInstance = st.IsInitialized
	if s != nil {
		s.mu.RLock()
		st.PublicKeyID = s.publicKeyID
		s.mu.RUnlock()
	}
	return st
}

// EncryptedInput collects typed plaintext values bound to a contract and the
// user that will submit them.
type EncryptedInput struct {
	session  *Session
	contract common.Address
	user     common.Address
	values   []typedValue
}

type typedValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CreateEncryptedInput starts an input for contract, submitted by user.
func (s *Session) CreateEncryptedInput(contract, user common.Address) *EncryptedInput {
	return &EncryptedInput{session: s, contract: contract, user: user}
}

// Add64 appends a 64-bit unsigned value.
func (in *EncryptedInput) Add64(v uint64) *EncryptedInput {
	in.values = append(in.values, typedValue{Type: "euint64", Value: strconv.FormatUint(v, 10)})
	return in
}

// AddBool appends a boolean value.
func (in *EncryptedInput) AddBool(v bool) *EncryptedInput {
	in.values = append(in.values, typedValue{Type: "ebool", Value: strconv.FormatBool(v)})
	return in
}

// Len reports the number of values added so far.
func (in *EncryptedInput) Len() int { return len(in.values) }

type encryptRequest struct {
	ContractAddress string       `json:"contractAddress"`
	UserAddress     string       `json:"userAddress"`
	ContractChainID string       `json:"contractChainId"`
	Values          []typedValue `json:"values"`
}

// Encrypt sends the collected values to the encryption endpoint and returns
// one handle per value plus the input proof.
func (in *EncryptedInput) Encrypt(ctx context.Context) (Ciphertext, error) {
	s := in.session
	if !s.Ready() {
		return Ciphertext{}, ErrNotInitialized
	}
	if len(in.values) == 0 {
		return Ciphertext{}, ErrEmptyInput
	}
	body, err := json.Marshal(encryptRequest{
		ContractAddress: in.contract.Hex(),
		UserAddress:     in.user.Hex(),
		ContractChainID: "0x" + strconv.FormatInt(s.cfg.ChainID, 16),
		Values:          in.values,
	})
	if err != nil {
		return Ciphertext{}, fmt.Errorf("fhe: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.EncryptorURL+"/v1/encrypt", bytes.NewReader(body))
	if err != nil {
		return Ciphertext{}, fmt.Errorf("fhe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := s.do(req)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("fhe: encrypt: %w", err)
	}
	var decoded struct {
		Response *Ciphertext `json:"response"`
		Ciphertext
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Ciphertext{}, fmt.Errorf("fhe: decode ciphertext: %w", err)
	}
	out := decoded.Ciphertext
	if decoded.Response != nil {
		out = *decoded.Response
	}
	if len(out.Handles) != len(in.values) {
		return Ciphertext{}, fmt.Errorf("fhe: got %d handles for %d values", len(out.Handles), len(in.values))
	}
	s.logger.Debug().
		Str("contract", in.contract.Hex()).
		Str("user", in.user.Hex()).
		Int("values", len(in.values)).
		Msg("fhe: input encrypted")
	return out, nil
}

func (s *Session) do(req *http.Request) ([]byte, error) {
	started := time.Now()
	resp, err := s.httpClient.Do(req)
	s.metrics.ObserveRelayer(time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// EncryptUint64 encrypts a single 64-bit value bound to contract and user.
func (s *Session) EncryptUint64(ctx context.Context, contract, user common.Address, v uint64) (Ciphertext, error) {
	return s.CreateEncryptedInput(contract, user).Add64(v).Encrypt(ctx)
}
