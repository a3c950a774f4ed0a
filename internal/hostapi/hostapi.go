// Package hostapi declares the typed operations the core requires from each
// external backend (spec §6.2). The core never talks to a wall clock, an
// entropy source, or an HTTP client directly — it only requires each
// backend to satisfy one of these small interfaces, the same way the
// teacher's internal/risk.Checker only requires a position/volume lookup,
// never a concrete ledger implementation.
//
// Concrete backends (the real OS clock, crypto/rand, net/http, the
// filesystem) are out of scope for the core (spec §1) — they are supplied
// by the run harness when it wires the component-model runtime (C6), and
// production implementations live in internal/osbackend.
package hostapi

import "context"

// WallClock is the backend behind wall_clock.{now,resolution}.
type WallClock interface {
	Now() (seconds uint64, nanoseconds uint32, err error)
	Resolution() (seconds uint64, nanoseconds uint32, err error)
}

// MonotonicClock is the backend behind monotonic_clock.{now,resolution}.
// subscribe_instant/subscribe_duration are pass-through (spec §4.5) and so
// are not part of this contract; the harness wires them straight to the
// runtime's own pollable machinery.
type MonotonicClock interface {
	Now() (nanoseconds uint64, err error)
	Resolution() (nanoseconds uint64, err error)
}

// Environment is the backend behind environment.{get_environment,
// get_arguments,initial_cwd}.
type Environment interface {
	GetEnvironment() (vars []EnvVar, err error)
	GetArguments() (args []string, err error)
	InitialCwd() (cwd *string, err error)
}

// EnvVar is one (name, value) environment variable pair.
type EnvVar struct {
	Name  string
	Value string
}

// Random is the backend behind random.{get_random_bytes,get_random_u64}.
type Random interface {
	GetRandomBytes(n int) ([]byte, error)
	GetRandomU64() (uint64, error)
}

// InsecureRandom is the backend behind random.insecure.* and
// random.insecure_seed.
type InsecureRandom interface {
	GetInsecureRandomBytes(n int) ([]byte, error)
	GetInsecureRandomU64() (uint64, error)
	InsecureSeed() (lo uint64, hi uint64, err error)
}

// HTTPRequest is the normalized shape of an outgoing request, after header
// canonicalization (spec §4.5, "Header normalization").
type HTTPRequest struct {
	Method  string
	URL     string
	Headers []Header // sorted, lower-cased names
}

// Header is one (name, value) pair.
type Header struct {
	Name  string
	Value string
}

// HTTPResponsePayload is the normalized shape of a response, before it is
// wrapped back into the runtime's incoming-response future.
type HTTPResponsePayload struct {
	Status  uint16
	Headers []Header
	Body    []byte
}

// HTTPClient is the backend behind outgoing http.send_request. The core
// always drives it synchronously (spec §5): it blocks until the full
// response body is buffered, even if the backend is internally async.
type HTTPClient interface {
	SendRequest(ctx context.Context, req HTTPRequest) (HTTPResponsePayload, error)
}

// StreamBackend is the backend behind stream read/blocking_read and
// filesystem descriptor.read. These are pass-through on both record and
// replay except for the advisory Read marker (spec §4.5); the core never
// inspects the bytes returned.
type StreamBackend interface {
	Read(n int) (data []byte, eof bool, err error)
}

// ProcessExiter is the backend behind exit(code). Calling it is expected to
// raise the runtime's typed process-exit signal rather than return
// normally; the run harness (C6) classifies that signal afterward.
type ProcessExiter interface {
	Exit(code int32) error
}
