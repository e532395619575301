package domain

import "errors"

var (
	ErrUnknownPhase  = errors.New("unknown phase")
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskIDMissing = errors.New("task id is empty")
)
