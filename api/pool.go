// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract object-pooling API for fixed-size object reuse.

package api

// ObjectPool provides pooling of fixed-size objects with a hard cap.
// Exhaustion surfaces as OutOfMemory rather than unbounded growth.
type ObjectPool[T any] interface {
	// AcquireObject returns an available instance from the pool.
	AcquireObject() (*T, error)

	// ReleaseObject returns an instance for reuse.
	ReleaseObject(*T)
}
