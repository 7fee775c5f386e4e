// Package observability aggregates pipeline telemetry for logging and the
// runtime-stats worker.
package observability

import (
	"sync/atomic"
)

// Counters tracks the message pipeline with atomic counters so the hot
// path never takes a lock for telemetry.
type Counters struct {
	Appended       atomic.Uint64 // durable writes acknowledged by the log
	AppendFailures atomic.Uint64
	Published      atomic.Uint64 // events handed to the router
	Delivered      atomic.Uint64 // frames written to live sessions
	Dropped        atomic.Uint64 // backpressure drops on session buffers
}

func NewCounters() *Counters {
	return &Counters{}
}
