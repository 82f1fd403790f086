package domain

import "errors"

var (
	// ErrNoHealthyEndpoint is raised by endpoint selection when no candidate
	// answered healthy within its probe timeout.
	ErrNoHealthyEndpoint = errors.New("no healthy endpoint")

	ErrConnectFailed   = errors.New("connect failed")
	ErrHandshakeFailed = errors.New("handshake failed")

	// ErrInvalidScheduleWindow means the refresh buffer is not smaller than
	// the token duration, so no refresh could ever be scheduled.
	ErrInvalidScheduleWindow = errors.New("invalid refresh schedule window")

	// ErrSessionLost is terminal for the current session only. The caller
	// must reconnect explicitly.
	ErrSessionLost = errors.New("session lost")

	ErrUnknownRegion     = errors.New("unknown region")
	ErrNotConnected      = errors.New("not connected")
	ErrAlreadyConnected  = errors.New("already connected")
	ErrAttemptSuperseded = errors.New("connect attempt superseded")
)
