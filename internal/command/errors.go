package command

import "errors"

var (
	// ErrDuplicateName means a descriptor's name or alias is already taken.
	// The loader treats this as a per-unit load failure.
	ErrDuplicateName = errors.New("duplicate command name")

	// ErrInvalidDescriptor means a descriptor is malformed (empty name,
	// missing handler, no surfaces).
	ErrInvalidDescriptor = errors.New("invalid command descriptor")
)
