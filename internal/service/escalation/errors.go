package escalation

import "errors"

var ErrRunInProgress = errors.New("another escalation run is in progress")
