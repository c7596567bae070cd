package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks caller mistakes: bad coordinates, radius or ids.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateID is returned when a map item id is already registered.
	ErrDuplicateID = fmt.Errorf("%w: duplicate id", ErrInvalidArgument)

	// ErrNotFound is returned by stores and sources for a missing key.
	ErrNotFound = errors.New("not found")
)
