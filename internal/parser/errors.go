package parser

import "errors"

var (
	// ErrEmptyTitle is returned when nothing is left for a title after the
	// entities were removed.
	ErrEmptyTitle = errors.New("parser: empty title")
	// ErrMissingSeparator is returned when a meeting has no header/body separator.
	ErrMissingSeparator = errors.New("parser: missing separator")
	// ErrInvalidDateTime is returned when a required date/time does not resolve.
	ErrInvalidDateTime = errors.New("parser: invalid date or time")
	// ErrInvalidAmount is returned for non-numeric or non-positive amounts.
	ErrInvalidAmount = errors.New("parser: invalid amount")
	// ErrMissingArgument is returned when a required token is absent.
	ErrMissingArgument = errors.New("parser: missing argument")
	// ErrInvalidID is returned when an identifier is not a positive integer.
	ErrInvalidID = errors.New("parser: invalid id")
	// ErrInvalidDuration is returned for snooze durations outside the fixed set.
	ErrInvalidDuration = errors.New("parser: invalid duration")
)
