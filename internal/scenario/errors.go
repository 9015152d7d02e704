package scenario

import "errors"

var (
	ErrInvalidScenario   = errors.New("invalid scenario")
	ErrExpectationFailed = errors.New("scenario expectation failed")
)
