package region

import "errors"

// Sentinel kinds for region table validation.
var (
	ErrUnsupported      = errors.New("unsupported region")
	ErrIncompleteTables = errors.New("incomplete region tables")
)
