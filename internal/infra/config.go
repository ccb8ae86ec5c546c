package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RPCURL             string
	ChainID            int64
	ContractAddress    string
	RelayerURL         string
	EncryptorURL       string
	GatewayChainID     int64
	PinataAPIKey       string
	PinataSecretKey    string
	PinataBaseURL      string
	StoragePath        string
	GeoIPDBPath        string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RPCTimeout         time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
	WorkerPollInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RPCURL:             getEnv("RPC_URL", "https://eth-sepolia.public.blastapi.io"),
		ChainID:            int64(getEnvInt("CHAIN_ID", 11155111)),
		ContractAddress:    getEnv("CONTRACT_ADDRESS", os.Getenv("NEXT_PUBLIC_CONTRACT_ADDRESS")),
		RelayerURL:         getEnv("RELAYER_URL", "https://relayer.testnet.zama.cloud"),
		GatewayChainID:     int64(getEnvInt("GATEWAY_CHAIN_ID", 55815)),
		EncryptorURL:       os.Getenv("FHE_ENCRYPTOR_URL"),
		PinataAPIKey:       os.Getenv("PINATA_API_KEY"),
		PinataSecretKey:    os.Getenv("PINATA_SECRET_KEY"),
		PinataBaseURL:      getEnv("PINATA_BASE_URL", "https://api.pinata.cloud"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RPCTimeout:         time.Second * time.Duration(getEnvInt("RPC_TIMEOUT_SECONDS", 20)),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 30),
		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 4)),
	}

	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, fmt.Errorf("RPC_URL is required")
	}
	if cfg.EncryptorURL == "" {
		cfg.EncryptorURL = cfg.RelayerURL
	}
	if cfg.ChainID <= 0 {
		return nil, fmt.Errorf("CHAIN_ID must be positive")
	}

	return cfg, nil
}

// RequireDatabase reports an error when no DATABASE_URL was configured.
func (c *Config) RequireDatabase() error {
	if c == nil || strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
