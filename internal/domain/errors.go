package domain

import "errors"

var (
	// ErrInvalidTarget is returned when a target URL does not have the expected shape.
	ErrInvalidTarget = errors.New("invalid target url")
	ErrNotFound      = errors.New("not found")
)
