package usecase

import (
	"errors"
	"fmt"

	"hotel-booking/pkg/utils"
)

// Domain errors. Services wrap them with context via fmt.Errorf("%w: ...")
// and handlers map them to status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("not allowed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidState       = errors.New("invalid state")
	ErrPayment            = errors.New("payment failed")
	// ErrInconsistentState: a linked record that must exist is missing. Always
	// raised together with a reconciliation alert.
	ErrInconsistentState = errors.New("inconsistent state")
)

func validationError(errs map[string]string) error {
	return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
}
