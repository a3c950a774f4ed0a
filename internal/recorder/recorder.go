// Package recorder implements C3: the append-only event sink tied to an
// open trace file (spec §4.3). It is the record-time analogue of the
// teacher's internal/events.EventLog — same "open file on construction,
// flush on every append, survive a crash mid-write" shape — adapted from a
// sequence-numbered financial event log to a sticky-error trace sink.
package recorder

import (
	"fmt"
	"sync"

	"github.com/rishav/wasm-rr/internal/rrerr"
	"github.com/rishav/wasm-rr/internal/trace"
)

// Recorder owns the open trace Writer for the lifetime of a recording. Its
// record_<kind> methods never fail outward: a host-call handler invoked
// from inside the runtime's dispatch often cannot propagate a write error
// back to the guest synchronously without corrupting semantics (spec §9,
// "Sticky recorder errors"), so the first write failure is captured and
// every subsequent record_* call becomes a silent no-op.
type Recorder struct {
	mu        sync.Mutex
	w         *trace.Writer
	stickyErr error
}

// New opens path for writing in the given format and returns a Recorder
// that owns it for the rest of the process's life.
func New(path string, format trace.Format) (*Recorder, error) {
	w, err := trace.WriteBegin(path, format)
	if err != nil {
		return nil, &rrerr.Setup{Op: "open trace for recording", Err: err}
	}
	return &Recorder{w: w}, nil
}

// Record appends one event. If a previous write already failed, Record is a
// no-op — the sticky error remains the one returned by Save.
func (r *Recorder) Record(e trace.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stickyErr != nil {
		return
	}
	if err := r.w.WriteEvent(e); err != nil {
		r.stickyErr = &rrerr.TraceWrite{Err: fmt.Errorf("writing %s event: %w", e.Kind(), err)}
	}
}

// Save writes the closing framing and flushes (spec §4.3). It returns the
// first write error encountered during recording, if any — this is the one
// place a TraceWrite failure is surfaced.
func (r *Recorder) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stickyErr != nil {
		return r.stickyErr
	}
	if err := r.w.End(); err != nil {
		r.stickyErr = &rrerr.TraceWrite{Err: err}
		return r.stickyErr
	}
	return nil
}

// RecordClockNow records the result of wall_clock.now.
func (r *Recorder) RecordClockNow(seconds uint64, nanoseconds uint32) {
	r.Record(trace.ClockNow{Seconds: seconds, Nanoseconds: nanoseconds})
}

// RecordClockResolution records the result of wall_clock.resolution.
func (r *Recorder) RecordClockResolution(seconds uint64, nanoseconds uint32) {
	r.Record(trace.ClockResolution{Seconds: seconds, Nanoseconds: nanoseconds})
}

// RecordMonotonicClockNow records the result of monotonic_clock.now.
func (r *Recorder) RecordMonotonicClockNow(nanoseconds uint64) {
	r.Record(trace.MonotonicClockNow{Nanoseconds: nanoseconds})
}

// RecordMonotonicClockResolution records the result of monotonic_clock.resolution.
func (r *Recorder) RecordMonotonicClockResolution(nanoseconds uint64) {
	r.Record(trace.MonotonicClockResolution{Nanoseconds: nanoseconds})
}

// RecordEnvironment records the result of environment.get_environment.
func (r *Recorder) RecordEnvironment(vars []trace.EnvVar) {
	r.Record(trace.Environment{Vars: vars})
}

// RecordArguments records the result of environment.get_arguments.
func (r *Recorder) RecordArguments(args []string) {
	r.Record(trace.Arguments{Args: args})
}

// RecordInitialCwd records the result of environment.initial_cwd.
func (r *Recorder) RecordInitialCwd(cwd *string) {
	r.Record(trace.InitialCwd{Cwd: cwd})
}

// RecordRandomBytes records the result of random.get_random_bytes.
func (r *Recorder) RecordRandomBytes(b []byte) {
	r.Record(trace.RandomBytes{Bytes: b})
}

// RecordInsecureRandomBytes records the result of random.insecure.get_insecure_random_bytes.
func (r *Recorder) RecordInsecureRandomBytes(b []byte) {
	r.Record(trace.InsecureRandomBytes{Bytes: b})
}

// RecordRandomU64 records the result of random.get_random_u64.
func (r *Recorder) RecordRandomU64(v uint64) {
	r.Record(trace.RandomU64{Value: v})
}

// RecordInsecureRandomU64 records the result of random.insecure.get_insecure_random_u64.
func (r *Recorder) RecordInsecureRandomU64(v uint64) {
	r.Record(trace.InsecureRandomU64{Value: v})
}

// RecordInsecureSeed records the result of random.insecure_seed.
func (r *Recorder) RecordInsecureSeed(lo, hi uint64) {
	r.Record(trace.InsecureSeed{Lo: lo, Hi: hi})
}

// RecordRead records an advisory marker for a stream/file read call.
func (r *Recorder) RecordRead() {
	r.Record(trace.Read{})
}

// RecordHttpResponse records the result of an outgoing http.send_request
// call. Headers must already be sorted (trace.SortHeaders) by the caller.
func (r *Recorder) RecordHttpResponse(resp trace.HttpResponse) {
	r.Record(resp)
}

// RecordExit records a guest exit(code) call.
func (r *Recorder) RecordExit(code int32) {
	r.Record(trace.Exit{Code: code})
}
