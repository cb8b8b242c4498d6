// Package iobuf
// Author: momentics <momentics@gmail.com>
//
// Connection I/O buffering: a growable input buffer with a parse cursor,
// a multi-segment output buffer with savepoint/rollback for length-prefixed
// framing, and a per-context cache recycling buffer pairs across
// connections. Sits between a network reader/writer and a protocol codec.
//
// Everything in this package is single-owner: one execution context per
// Cache, pairs never migrate, no locks on any hot path.
package iobuf
