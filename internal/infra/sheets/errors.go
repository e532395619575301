package sheets

import "errors"

var (
	ErrInvalidRange  = errors.New("invalid A1 range")
	ErrHeaderMissing = errors.New("task sheet has no header row")
	ErrColumnMissing = errors.New("required column missing from header row")
	ErrInvalidTime   = errors.New("invalid time value")
)
