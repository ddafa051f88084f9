package mailer

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrDisabled       = errors.New("confirmation email disabled")
	ErrInvalidAddress = errors.New("invalid email address")
	ErrSend           = errors.New("send email failed")
)
