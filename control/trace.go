// control/trace.go
// Author: momentics <momentics@gmail.com>
//
// Colorized lifecycle tracing for development runs. Green for cheap paths
// (free-list reuse, in-place resets), red for expensive ones (shrinks, OOM).
// Off by default; a disabled tracer costs one atomic load per event.

package control

import (
	"log"
	"sync/atomic"

	"github.com/fatih/color"
)

// Trace logs buffer cache lifecycle events. Implements iobuf.Tracer.
type Trace struct {
	enabled atomic.Bool
}

// NewTrace creates a tracer, initially disabled.
func NewTrace() *Trace {
	return &Trace{}
}

// Enable turns event logging on.
func (t *Trace) Enable() { t.enabled.Store(true) }

// Disable turns event logging off.
func (t *Trace) Disable() { t.enabled.Store(false) }

// Event logs one lifecycle event with its byte footprint.
func (t *Trace) Event(event, name string, bytes int) {
	if !t.enabled.Load() {
		return
	}
	switch event {
	case "acquire", "release":
		log.Print(color.GreenString("iobuf %s %s footprint=%d", event, name, bytes))
	default:
		log.Print(color.RedString("iobuf %s %s footprint=%d", event, name, bytes))
	}
}
