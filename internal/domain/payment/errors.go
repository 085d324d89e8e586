package payment

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid payment request")
	// ErrVerificationUnavailable is returned when no secret key is configured.
	// Confirmation never succeeds unverified.
	ErrVerificationUnavailable = errors.New("payment verification unavailable")
	ErrOrderMismatch           = errors.New("order does not match session")
	ErrPaymentRequired         = errors.New("payment required to unlock the report")
	ErrAlreadyPaid             = errors.New("session is already paid")
)
