package domain

import "errors"

var (
	// ErrValidation is returned by Validate when a command does not apply to
	// the aggregate's current state.
	ErrValidation = errors.New("command rejected")
	// ErrFormation is returned when an aggregate cannot be built from the
	// given input.
	ErrFormation = errors.New("input cannot be converted into an aggregate")
	// ErrVersionConflict is returned by event stores when an appended record
	// does not directly follow the last stored sequence number.
	ErrVersionConflict = errors.New("event sequence conflict")
	// ErrUnknownEvent is returned by codecs for unregistered tags.
	ErrUnknownEvent = errors.New("unknown event tag")
)
