package fhe

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Encoded is a binary value the relayer may return either as raw bytes or as
// a hex string. Exactly one representation is set.
type Encoded struct {
	raw   []byte
	text  string
	isHex bool
}

// Bytes wraps a raw byte value.
func Bytes(b []byte) Encoded {
	return Encoded{raw: append([]byte(nil), b...)}
}

// HexString wraps a hex value, with or without 0x prefix.
func HexString(s string) Encoded {
	return Encoded{text: s, isHex: true}
}

// IsHex reports whether the value arrived as a string.
func (e Encoded) IsHex() bool { return e.isHex }

// ToHex renders e as 0x-prefixed lowercase hex. It is the only conversion
// used before values are passed to the contract.
func ToHex(e Encoded) string {
	if e.isHex {
		s := strings.TrimSpace(e.text)
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		return "0x" + strings.ToLower(s)
	}
	return "0x" + hex.EncodeToString(e.raw)
}

// Decode returns the value as bytes, validating hex input.
func (e Encoded) Decode() ([]byte, error) {
	if !e.isHex {
		return append([]byte(nil), e.raw...), nil
	}
	body := strings.TrimPrefix(ToHex(e), "0x")
	if len(body)%2 == 1 {
		body = "0" + body
	}
	out, err := hex.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("fhe: invalid hex value: %w", err)
	}
	return out, nil
}

// Bytes32 decodes a handle into a contract bytes32 argument. The value must
// be exactly 32 bytes.
func (e Encoded) Bytes32() ([32]byte, error) {
	var out [32]byte
	b, err := e.Decode()
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("fhe: handle is %d bytes, want 32", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// UnmarshalJSON accepts a string or an array of byte values.
func (e *Encoded) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = Encoded{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = HexString(s)
		return nil
	}
	var nums []json.Number
	if err := json.Unmarshal(data, &nums); err != nil {
		return fmt.Errorf("fhe: encoded value must be a string or byte array: %w", err)
	}
	raw := make([]byte, len(nums))
	for i, n := range nums {
		v, err := n.Int64()
		if err != nil || v < 0 || v > 255 {
			return fmt.Errorf("fhe: byte %d out of range: %s", i, n)
		}
		raw[i] = byte(v)
	}
	*e = Bytes(raw)
	return nil
}

// MarshalJSON always emits the canonical hex form.
func (e Encoded) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToHex(e))
}

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// AmountToUint64 converts a donation amount for a 64-bit encrypted input.
// Negative values and values above 2^64-1 are rejected.
func AmountToUint64(amount *big.Int) (uint64, error) {
	if amount == nil || amount.Sign() < 0 {
		return 0, fmt.Errorf("%w: amount must be non-negative", ErrAmountRange)
	}
	if amount.Cmp(maxUint64) > 0 {
		return 0, fmt.Errorf("%w: %s exceeds 64 bits", ErrAmountRange, amount)
	}
	return amount.Uint64(), nil
}
