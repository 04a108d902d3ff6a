package schema

import "errors"

var (
	// ErrUnknownCategory is returned for categories without a form variant
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownApplicationCode is returned when no active application code matches
	ErrUnknownApplicationCode = errors.New("unknown application code")
)
