package circuit

import "errors"

var (
	ErrNotFound      = errors.New("circuit: not found")
	ErrUnknownType   = errors.New("circuit: unknown component type")
	ErrUnknownParam  = errors.New("circuit: unknown parameter")
	ErrUnknownPort   = errors.New("circuit: unknown port")
	ErrInvalidValue  = errors.New("circuit: invalid value")
	ErrSelfLoop      = errors.New("circuit: wire connects a port to itself")
	ErrDuplicateWire = errors.New("circuit: ports already connected")
)
