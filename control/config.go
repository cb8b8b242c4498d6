// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe tuning store with dynamic update and reload propagation.
// The server's configuration path writes here (e.g. the "readahead" knob);
// subsystems register appliers that pick the new values up.

package control

import (
	"sync"
)

// TuningStore is a dynamic key/value map with snapshot reads and listener
// support. Values are written rarely (operator action) and read on reload.
type TuningStore struct {
	mu        sync.RWMutex
	values    map[string]any
	listeners []func(map[string]any)
}

// NewTuningStore initializes an empty tuning store.
func NewTuningStore() *TuningStore {
	return &TuningStore{
		values: make(map[string]any),
	}
}

// Snapshot returns a copy of all tuning values.
func (ts *TuningStore) Snapshot() map[string]any {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make(map[string]any, len(ts.values))
	for k, v := range ts.values {
		out[k] = v
	}
	return out
}

// Set merges new values and notifies listeners synchronously with the
// merged snapshot. Synchronous dispatch keeps "set then observe" cheap to
// reason about for tests and operator tooling.
func (ts *TuningStore) Set(newValues map[string]any) {
	ts.mu.Lock()
	for k, v := range newValues {
		ts.values[k] = v
	}
	snapshot := make(map[string]any, len(ts.values))
	for k, v := range ts.values {
		snapshot[k] = v
	}
	listeners := ts.listeners
	ts.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// OnReload registers a listener invoked after every Set.
func (ts *TuningStore) OnReload(fn func(map[string]any)) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.listeners = append(ts.listeners, fn)
}

// IntValue reads an int-typed tuning value, with a fallback default.
func IntValue(snapshot map[string]any, key string, def int) int {
	if v, ok := snapshot[key]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return def
}
