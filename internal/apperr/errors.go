// Package apperr holds the error kinds shared by the ledger, booking and
// settlement layers. Callers wrap them with fmt.Errorf("%w: ...") and the HTTP
// boundary maps them to status codes with errors.Is.
package apperr

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidQuantity     = errors.New("ticket quantity must be between 1 and 5")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientFunds   = errors.New("insufficient wallet balance")
	ErrQuotaExceeded       = errors.New("cannot request more than 5 tickets per event")
	ErrSoldOut             = errors.New("not enough tickets available")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("insufficient permissions")
	ErrConflict            = errors.New("conflict")
	ErrGatewayFailure      = errors.New("payment gateway failure")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrPartialSettlement   = errors.New("partial settlement failure")
)

// IsClientError reports whether err is one of the validation kinds that are
// surfaced to the caller as a 4xx response.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrInvalidQuantity,
		ErrInvalidInput,
		ErrInsufficientFunds,
		ErrQuotaExceeded,
		ErrSoldOut,
		ErrNotFound,
		ErrUnauthorized,
		ErrForbidden,
		ErrConflict,
		ErrPaymentNotCompleted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
