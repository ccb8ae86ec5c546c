package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBigInt converts the numeric shapes produced by ABI decoding and JSON
// transport into a big integer. nil and "" map to zero.
func ToBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case nil:
		return new(big.Int), nil
	case *big.Int:
		if n == nil {
			return new(big.Int), nil
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return nil, fmt.Errorf("non-integer number %v", n)
		}
		return big.NewInt(int64(n)), nil
	case [32]byte:
		return new(big.Int).SetBytes(n[:]), nil
	case []byte:
		return new(big.Int).SetBytes(n), nil
	case bool:
		if n {
			return big.NewInt(1), nil
		}
		return new(big.Int), nil
	case string:
		return parseBigString(n)
	case fmt.Stringer:
		return parseBigString(n.String())
	default:
		return nil, fmt.Errorf("unsupported numeric type %T", v)
	}
}

// ParseBigInt parses a decimal or 0x-prefixed hex string.
func ParseBigInt(s string) (*big.Int, error) {
	return parseBigString(s)
}

func parseBigString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
		if s == "" {
			return new(big.Int), nil
		}
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func toBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		s := strings.TrimSpace(strings.ToLower(b))
		return s != "" && s != "false" && s != "0"
	default:
		n, err := ToBigInt(v)
		return err == nil && n.Sign() != 0
	}
}
