// Package rrerr defines the error taxonomy used across wasm-rr: Setup,
// TraceWrite, Backend, Divergence, Unused, and ProcessExit errors (see
// spec §7). Keeping these as distinct types, rather than sentinel values or
// plain fmt.Errorf strings, lets the run harness classify a failure (fatal
// setup vs. recorded exit vs. fatal divergence) without string matching —
// the same reason orders.OrderStatus and orders.OrderType are typed enums
// rather than bare strings in the teacher's codebase.
package rrerr

import "fmt"

// Setup indicates the process could not get far enough to begin
// recording or replaying: the wasm file couldn't be opened, the trace file
// couldn't be created/opened, or the runtime couldn't be configured.
type Setup struct {
	Op  string
	Err error
}

func (e *Setup) Error() string {
	return fmt.Sprintf("setup: %s: %v", e.Op, e.Err)
}

func (e *Setup) Unwrap() error { return e.Err }

// TraceWrite is a write failure encountered while recording. It is never
// returned synchronously from a record_* call (see recorder.Recorder's
// sticky error slot); it only surfaces from Recorder.Save.
type TraceWrite struct {
	Err error
}

func (e *TraceWrite) Error() string {
	return fmt.Sprintf("trace write failed: %v", e.Err)
}

func (e *TraceWrite) Unwrap() error { return e.Err }

// Backend is an error returned by a real host backend during recording. It
// is handed back to the guest unchanged; wasm-rr wraps it only so callers
// that inspect an error chain can recognize "this came from the backend,
// not from the trace."
type Backend struct {
	Interface string
	Err       error
}

func (e *Backend) Error() string {
	return fmt.Sprintf("%s backend error: %v", e.Interface, e.Err)
}

func (e *Backend) Unwrap() error { return e.Err }

// Divergence is a replay-time mismatch between what the guest asked for and
// what the trace next provides: wrong event kind, random-bytes length
// mismatch, HTTP request mismatch, or trace exhaustion. It is always fatal —
// the run harness traps the guest.
type Divergence struct {
	Reason string
}

func (e *Divergence) Error() string {
	return fmt.Sprintf("replay divergence: %s", e.Reason)
}

// UnexpectedEventKind is the Divergence raised by Playback.Next<Kind> when
// the next event in the trace is not the kind the caller expected.
func UnexpectedEventKind(expected, got string) error {
	return &Divergence{Reason: fmt.Sprintf("expected %q event, got %q", expected, got)}
}

// TraceExhausted is the Divergence raised when a call needs a recorded event
// but the trace has none left.
func TraceExhausted(expected string) error {
	return &Divergence{Reason: fmt.Sprintf("trace exhausted, wanted %q event", expected)}
}

// RandomLengthMismatch is the Divergence raised when a replayed RandomBytes
// or InsecureRandomBytes event's length does not match the guest's request.
func RandomLengthMismatch(want, got int) error {
	return &Divergence{Reason: fmt.Sprintf("random bytes length mismatch: guest requested %d, trace has %d", want, got)}
}

// HTTPRequestMismatch is the Divergence raised when a replayed HttpResponse
// event's request_method/request_url/request_headers do not match the
// guest's outgoing request.
type HTTPRequestMismatch struct {
	Field    string
	Expected string
	Got      string
}

func (e *HTTPRequestMismatch) Error() string {
	return fmt.Sprintf("replay divergence: http request %s mismatch: trace has %q, guest sent %q", e.Field, e.Expected, e.Got)
}

// Unused indicates that, at Playback.Finish, the trace still held one or
// more non-advisory (non-Read) events that the guest never consumed.
type Unused struct {
	Remaining int
	NextKind  string
}

func (e *Unused) Error() string {
	return fmt.Sprintf("replay finished with %d unused event(s), next is %q", e.Remaining, e.NextKind)
}

// ProcessExit is not an error in the ordinary sense: it is how the run
// harness classifies a recorded guest exit so it is never surfaced to the
// user as a failure. Callers that want to distinguish "guest called exit(n)"
// from "run failed" should check for this type.
type ProcessExit struct {
	Code int32
}

func (e *ProcessExit) Error() string {
	return fmt.Sprintf("guest exited with code %d", e.Code)
}
