package server

import "errors"

var (
	ErrInvalidPort   = errors.New("port must be between 0 and 65535")
	ErrTunnelInDebug = errors.New("refusing to expose a debug server through ngrok")
)
