package engine

import "errors"

// Engine-specific errors
var (
	ErrRunnerRunning    = errors.New("runner is already running")
	ErrInvalidTickSetup = errors.New("invalid tick period or step")
	ErrInvalidFieldSize = errors.New("invalid field size")
)
