package items

import "errors"

var (
	ErrNotFound        = errors.New("processing item not found")
	ErrAlreadyExists   = errors.New("processing item already exists")
	ErrTerminalState   = errors.New("processing item already in a different terminal state")
	ErrInvalidMutation = errors.New("invalid processing item mutation")
)
