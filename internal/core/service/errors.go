package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/restaurant/internal/core/process"
	"github.com/rl1809/restaurant/internal/core/projection"
)

var (
	// ErrFormation is returned when a command cannot build or move an
	// aggregate, such as a mutation for an id with no history.
	ErrFormation = errors.New("formation error")
	// ErrProcess is returned when the live actor cannot take the command.
	ErrProcess    = errors.New("process error")
	ErrRequiredID = errors.New("aggregate id required")
	// ErrIO is returned when a collaborator could not be reached.
	ErrIO       = errors.New("io error")
	ErrNotFound = errors.New("referenced entity not found")
	// ErrKernel is returned when the aggregate rejects the command.
	ErrKernel         = errors.New("command rejected")
	ErrCorruptHistory = projection.ErrCorruptHistory
)

// dispatchError maps the outcome of delivering a command to an actor.
func dispatchError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, process.ErrRejected):
		return fmt.Errorf("%w: %w", ErrKernel, err)
	default:
		return fmt.Errorf("%w: %w", ErrProcess, err)
	}
}

// resolveError maps a failed find-or-replay.
func resolveError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, projection.ErrCorruptHistory):
		return err
	case errors.Is(err, projection.ErrEmptyHistory):
		return fmt.Errorf("%w: %w", ErrFormation, err)
	case errors.Is(err, process.ErrTerminated), errors.Is(err, process.ErrStopped),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrProcess, err)
	default:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
}
