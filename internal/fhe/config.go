package fhe

import "strings"

// Config holds the addresses and endpoints of the FHEVM host chain, the
// gateway chain and the relayer.
type Config struct {
	ACLContractAddress                        string
	KMSContractAddress                        string
	InputVerifierContractAddress              string
	VerifyingContractAddressDecryption        string
	VerifyingContractAddressInputVerification string
	ChainID                                   int64
	GatewayChainID                            int64
	NetworkURL                                string
	RelayerURL                                string
	// EncryptorURL serves the input encryption endpoint. It defaults to
	// RelayerURL when a sidecar running the relayer SDK is not configured.
	EncryptorURL string
}

// DefaultConfig returns the Sepolia testnet deployment.
func DefaultConfig() Config {
	return Config{
		ACLContractAddress:                        "0x687820221192C5B662b25367F70076A37bc79b6c",
		KMSContractAddress:                        "0x1364cBBf2cDF5032C47d8226a6f6FBD2AFCDacAC",
		InputVerifierContractAddress:              "0xbc91f3daD1A5F19F8390c400196e58073B6a0BC4",
		VerifyingContractAddressDecryption:        "0xb6E160B1ff80D67Bfe90A85eE06Ce0A2613607D1",
		VerifyingContractAddressInputVerification: "0x7048C39f048125eDa9d678AEbaDfB22F7900a29F",
		ChainID:        11155111,
		GatewayChainID: 55815,
		NetworkURL:     "https://eth-sepolia.public.blastapi.io",
		RelayerURL:     "https://relayer.testnet.zama.cloud",
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return strings.TrimRight(strings.TrimSpace(v), "/")
	}
	c.ACLContractAddress = pick(c.ACLContractAddress, def.ACLContractAddress)
	c.KMSContractAddress = pick(c.KMSContractAddress, def.KMSContractAddress)
	c.InputVerifierContractAddress = pick(c.InputVerifierContractAddress, def.InputVerifierContractAddress)
	c.VerifyingContractAddressDecryption = pick(c.VerifyingContractAddressDecryption, def.VerifyingContractAddressDecryption)
	c.VerifyingContractAddressInputVerification = pick(c.VerifyingContractAddressInputVerification, def.VerifyingContractAddressInputVerification)
	c.NetworkURL = pick(c.NetworkURL, def.NetworkURL)
	c.RelayerURL = pick(c.RelayerURL, def.RelayerURL)
	c.EncryptorURL = pick(c.EncryptorURL, c.RelayerURL)
	if c.ChainID <= 0 {
		c.ChainID = def.ChainID
	}
	if c.GatewayChainID <= 0 {
		c.GatewayChainID = def.GatewayChainID
	}
	return c
}
