package infra

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RPC_URL", "")
	t.Setenv("CHAIN_ID", "")
	t.Setenv("CONTRACT_ADDRESS", "")
	t.Setenv("NEXT_PUBLIC_CONTRACT_ADDRESS", "")
	t.Setenv("RELAYER_URL", "")
	t.Setenv("FHE_ENCRYPTOR_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.EncryptorURL != cfg.RelayerURL {
		t.Fatalf("EncryptorURL should default to the relayer, got %q", cfg.EncryptorURL)
	}
	if cfg.ChainID != 11155111 {
		t.Fatalf("ChainID mismatch: got %d", cfg.ChainID)
	}
	if cfg.RelayerURL != "https://relayer.testnet.zama.cloud" {
		t.Fatalf("RelayerURL mismatch: got %q", cfg.RelayerURL)
	}
	if cfg.ContractAddress != "" {
		t.Fatalf("expected empty contract address, got %q", cfg.ContractAddress)
	}
}

func TestLoadConfigFallsBackToPublicContractAddress(t *testing.T) {
	t.Setenv("CONTRACT_ADDRESS", "")
	t.Setenv("NEXT_PUBLIC_CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000aa")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ContractAddress != "0x00000000000000000000000000000000000000aa" {
		t.Fatalf("ContractAddress mismatch: got %q", cfg.ContractAddress)
	}
}

func TestLoadConfigExplicitContractWins(t *testing.T) {
	t.Setenv("CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000bb")
	t.Setenv("NEXT_PUBLIC_CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000aa")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ContractAddress != "0x00000000000000000000000000000000000000bb" {
		t.Fatalf("ContractAddress mismatch: got %q", cfg.ContractAddress)
	}
}

func TestLoadConfigRejectsNonPositiveChainID(t *testing.T) {
	t.Setenv("CHAIN_ID", "-1")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for negative chain id")
	}
}

func TestLoadConfigSplitsCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: got %#v want %#v", cfg.CORSAllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireDatabase(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
	cfg.DatabaseURL = "postgres://example"
	if err := cfg.RequireDatabase(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
