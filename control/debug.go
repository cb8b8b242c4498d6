// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Runtime debug handler and probe reflector for internal inspection.
// Buffering components register probes here; an admin endpoint or a test
// calls DumpState to see arena, cache, and region usage in one map.

package control

import (
	"sync"

	"github.com/momentics/hioload-iobuf/api"
	"github.com/momentics/hioload-iobuf/pool"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// RegisterArenaProbe exports arena counters under name.
func (dp *DebugProbes) RegisterArenaProbe(name string, arena api.Arena) {
	dp.RegisterProbe(name, func() any { return arena.Stats() })
}

// RegisterRegistryProbe exports per-region usage from reg under name.
func (dp *DebugProbes) RegisterRegistryProbe(name string, reg *pool.Registry) {
	dp.RegisterProbe(name, func() any { return reg.Snapshot() })
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any)
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}
