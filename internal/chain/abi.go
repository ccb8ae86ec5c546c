package chain

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// climate_protection_abi.json is the compiled ABI of the current
// ClimateProtectionPHE deployment. The earlier layout (ciphertext handle at
// index 10, donorCount at 13) is not supported.
//
//go:embed climate_protection_abi.json
var climateProtectionABI []byte

var contractABI = mustParseABI(climateProtectionABI)

func mustParseABI(raw []byte) abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("chain: parse contract abi: %v", err))
	}
	return parsed
}

// ABI returns the parsed contract ABI.
func ABI() abi.ABI {
	return contractABI
}
