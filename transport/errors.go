package transport

import "errors"

var (
	// ErrNotConnected is returned by Send when the worker has no open channel.
	ErrNotConnected = errors.New("transport: not connected")
	// ErrWorkerUsed is returned by Connect on a worker that already connected
	// or was disconnected. Workers are single-use.
	ErrWorkerUsed = errors.New("transport: worker already used")
	// ErrCloseTimeout is returned by Disconnect when the loops did not exit in
	// time. The worker is closed regardless.
	ErrCloseTimeout = errors.New("transport: close timeout")
	// ErrConfigNil indicates that a nil Config was provided.
	ErrConfigNil = errors.New("transport: config is nil")
)
