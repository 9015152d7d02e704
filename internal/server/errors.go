package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed   = errors.New("server is closed")
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownAction  = errors.New("unknown action")
	ErrRateLimited    = errors.New("command rate exceeded")
	ErrSlowConsumer   = errors.New("client is not reading fast enough")
)
