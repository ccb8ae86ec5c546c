package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"climatefund/internal/infra"
)

// Gateways are the public IPFS gateways used for reads.
var Gateways = []string{
	"https://ipfs.io/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
	"https://cloudflare-ipfs.com/ipfs/",
}

// GatewayURL returns the URL of hash on a randomly chosen gateway.
func GatewayURL(hash string) string {
	return Gateways[rand.Intn(len(Gateways))] + strings.TrimSpace(hash)
}

// Options configures a Client.
type Options struct {
	APIKey     string
	SecretKey  string
	BaseURL    string
	Gateways   []string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client pins JSON documents through the Pinata API and reads them back
// through public gateways.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	gateways   []string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a client. Missing credentials are allowed; see PinJSON.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.pinata.cloud"
	}
	gateways := opts.Gateways
	if len(gateways) == 0 {
		gateways = Gateways
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		secretKey:  strings.TrimSpace(opts.SecretKey),
		baseURL:    baseURL,
		gateways:   gateways,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote pins.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.secretKey != ""
}

type pinRequest struct {
	PinataContent  Metadata       `json:"pinataContent"`
	PinataMetadata pinataMetadata `json:"pinataMetadata"`
}

type pinataMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinJSON uploads metadata and returns its content hash. Without credentials
// it returns a synthetic "Qm" hash so local flows keep working.
func (c *Client) PinJSON(ctx context.Context, m Metadata) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	if !c.HasCredentials() {
		hash := syntheticHash(time.Now())
		c.logger.Warn().Str("hash", hash).Msg("ipfs: pinata credentials not configured, using synthetic hash")
		return hash, nil
	}
	body, err := json.Marshal(pinRequest{
		PinataContent: m,
		PinataMetadata: pinataMetadata{
			Name: m.Name,
			KeyValues: map[string]string{
				"climateTheme": m.Attribute("Climate Theme"),
				"donationTier": m.Attribute("Donation Tier"),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ipfs: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ipfs: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipfs: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ipfs: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ipfs: pinata status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded pinResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("ipfs: decode response: %w", err)
	}
	if decoded.IpfsHash == "" {
		return "", errors.New("ipfs: pinata returned no hash")
	}
	c.logger.Info().Str("hash", decoded.IpfsHash).Int64("size", decoded.PinSize).Msg("ipfs: metadata pinned")
	return decoded.IpfsHash, nil
}

// Fetch downloads and validates metadata, trying each gateway in turn.
func (c *Client) Fetch(ctx context.Context, hash string) (Metadata, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return Metadata{}, errors.New("ipfs: hash is required")
	}
	var lastErr error
	for _, gw := range c.gateways {
		m, err := c.fetchFrom(ctx, gw+hash)
		if err == nil {
			return m, nil
		}
		if errors.Is(err, ErrInvalidMetadata) || ctx.Err() != nil {
			return Metadata{}, err
		}
		c.logger.Debug().Err(err).Str("gateway", gw).Msg("ipfs: gateway failed")
		lastErr = err
	}
	return Metadata{}, lastErr
}

func (c *Client) fetchFrom(ctx context.Context, url string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("ipfs: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("ipfs: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Metadata{}, fmt.Errorf("ipfs: gateway status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Metadata{}, fmt.Errorf("ipfs: read response: %w", err)
	}
	return ParseMetadata(raw)
}

func syntheticHash(now time.Time) string {
	return "Qm" + strconv.FormatUint(rand.Uint64(), 36) + strconv.FormatInt(now.UnixMilli(), 10)
}
