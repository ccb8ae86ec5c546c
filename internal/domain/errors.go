package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidProjectID   = errors.New("invalid project id")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrWithdrawNotAllowed = errors.New("withdrawal not allowed yet")
	ErrDonationClosed     = errors.New("project is not accepting donations")
)

// ValidationError describes a rejected form field before anything is sent to the contract.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
