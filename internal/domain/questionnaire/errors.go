package questionnaire

import "errors"

// Sentinel kinds for catalog and answer validation.
var (
	ErrInvalidCatalog    = errors.New("invalid catalog")
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrUnknownChoice     = errors.New("unknown choice")
	ErrScoreMismatch     = errors.New("score mismatch")
	ErrMissingText       = errors.New("choice requires text")
	ErrUnanswered        = errors.New("required question unanswered")
	ErrTooManySelections = errors.New("too many selections")
)
