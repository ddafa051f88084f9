package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrDealFailed        = errors.New("deal creation failed")
	ErrNoCRM             = errors.New("crm client not configured")
)

// MissingIdentityMessage is the rejection text for a blank name or email.
const MissingIdentityMessage = "Faltan nombre o email"

// ValidationError rejects a submission before any external call.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is matches ErrInvalidSubmission.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidSubmission }
