package donation

import (
	"errors"
	"fmt"

	"climatefund/internal/domain"
)

var (
	// ErrFHEUnavailable means no live encryption session exists.
	ErrFHEUnavailable = errors.New("donation: fhe environment not ready")
	// ErrEncryption means the amount could not be encrypted or the relayer
	// output could not be normalized.
	ErrEncryption = errors.New("donation: encryption failed")
	// ErrTransaction means the node or wallet rejected the transaction.
	ErrTransaction = errors.New("donation: transaction failed")
	// ErrReverted means the transaction was mined with a failed status.
	ErrReverted = errors.New("donation: transaction reverted")
)

// MaxMessageLength caps the optional donor message, in characters.
const MaxMessageLength = 200

// UserMessage renders err as the text shown to the person who triggered the
// action.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Please enter a valid donation amount"
	case errors.Is(err, domain.ErrDonationClosed):
		return "This project is not accepting donations"
	case errors.Is(err, domain.ErrWithdrawNotAllowed):
		return "Funds can be withdrawn once the target is reached or the project has ended"
	case errors.Is(err, domain.ErrNotFound):
		return "Project not found"
	case errors.Is(err, ErrFHEUnavailable):
		return "FHE environment not ready, please try again later"
	case errors.Is(err, ErrEncryption):
		return fmt.Sprintf("Encryption failed: %s", cause(err))
	case errors.Is(err, ErrReverted):
		return "Transaction reverted by the contract"
	case errors.Is(err, ErrTransaction):
		return fmt.Sprintf("Donation failed: %s", cause(err))
	default:
		return err.Error()
	}
}

// cause returns the text of the error that failed a stage.
func cause(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.err.Error()
	}
	return err.Error()
}

type stageError struct {
	stage error
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%v: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() []error {
	return []error{e.stage, e.err}
}

func wrap(stage, err error) error {
	return &stageError{stage: stage, err: err}
}
