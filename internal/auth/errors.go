package auth

import "errors"

// ValidationError rejects a request before any store is touched. Message is
// shown to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// ErrDelivery means the verification code could not be sent. The pending
// registration is dropped so the caller must resubmit.
var ErrDelivery = errors.New("auth: otp delivery failed")
