package domain

import (
	"math/big"
	"strings"
)

const (
	MinDurationDays = 1
	MaxDurationDays = 365

	secondsPerDay = 24 * 60 * 60
)

// CreateProjectInput is the form submitted before calling createProject.
type CreateProjectInput struct {
	Title           string
	Description     string
	TargetAmountWei *big.Int
	DurationDays    int
}

// Validate applies the form checks performed before anything reaches the
// contract. The contract remains the source of truth for every other rule.
func (in CreateProjectInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "Please enter project title"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Message: "Please enter project description"}
	}
	if in.TargetAmountWei == nil || in.TargetAmountWei.Sign() <= 0 {
		return &ValidationError{Field: "targetAmount", Message: "Target amount must be greater than 0"}
	}
	if in.DurationDays < MinDurationDays || in.DurationDays > MaxDurationDays {
		return &ValidationError{Field: "duration", Message: "Project duration must be between 1-365 days"}
	}
	return nil
}

// DurationSeconds converts the duration to the contract's seconds argument.
func (in CreateProjectInput) DurationSeconds() *big.Int {
	return big.NewInt(int64(in.DurationDays) * secondsPerDay)
}

// ParseEther converts a decimal ETH amount such as "0.25" into wei. At most
// 18 fractional digits are accepted.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return nil, ErrInvalidAmount
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 18 {
		return nil, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", 18-len(frac))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	return v, nil
}

// FormatEther renders wei as a decimal ETH string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)
	s := abs.String()
	if len(s) <= 18 {
		s = strings.Repeat("0", 19-len(s)) + s
	}
	whole, frac := s[:len(s)-18], strings.TrimRight(s[len(s)-18:], "0")
	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
