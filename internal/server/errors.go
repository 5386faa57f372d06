package server

import "errors"

var (
	ErrAlreadyRunning = errors.New("relay: already running")
	ErrNotRunning     = errors.New("relay: not running")
)
