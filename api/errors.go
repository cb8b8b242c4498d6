// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types for the hioload-iobuf library. Allocation failure is
// never retried internally; every failure carries the requested size, the
// failing component, and the purpose of the memory so callers can decide
// whether to shed load or retry at a higher level.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrArenaClosed     = fmt.Errorf("arena is closed")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// OutOfMemoryError reports that the arena could not supply a block, or that
// a hard resource ceiling (such as the output buffer's segment directory)
// was exhausted. An operation returning it leaves its receiver unchanged.
type OutOfMemoryError struct {
	Requested int    // bytes asked for
	Component string // failing operation, e.g. "ibuf.Reserve"
	Purpose   string // what the memory was for, e.g. "slab cache"
}

// Error implements the error interface.
func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("out of memory: failed to allocate %d bytes in %s for %s",
		e.Requested, e.Component, e.Purpose)
}

// NewOutOfMemory creates a new OutOfMemoryError.
func NewOutOfMemory(requested int, component, purpose string) error {
	return &OutOfMemoryError{Requested: requested, Component: component, Purpose: purpose}
}

// IsOutOfMemory reports whether err is (or wraps) an OutOfMemoryError.
func IsOutOfMemory(err error) bool {
	var oom *OutOfMemoryError
	return errors.As(err, &oom)
}
