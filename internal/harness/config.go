// Package harness implements C6: it wires a wazero runtime to the shim
// layer (C5), compiles and instantiates the guest component, invokes its
// entrypoint, and classifies the resulting exit the same way the teacher's
// cmd/server wires its matching engine to a transport before calling Run
// (spec §4.6, §6.1).
package harness

import (
	"log"

	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/playback"
	"github.com/rishav/wasm-rr/internal/recorder"
	"github.com/rishav/wasm-rr/internal/trace"
)

// Mode selects whether the run records a fresh trace or replays one
// previously captured.
type Mode int

const (
	// ModeRecord runs the guest against live backends and writes a trace.
	ModeRecord Mode = iota
	// ModeReplay runs the guest against a previously recorded trace,
	// reading backend results from it instead of calling the real world.
	ModeReplay
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// Backends bundles the concrete implementations the harness wires to the
// shim layer in record mode. In replay mode only Stream and ProcessExiter
// are required of the caller — everything else is read from the trace — but the harness
// accepts the same bundle in both modes so callers don't need two Config
// shapes; unused fields in replay mode are simply never invoked.
type Backends struct {
	WallClock      hostapi.WallClock
	MonotonicClock hostapi.MonotonicClock
	Environment    hostapi.Environment
	Random         hostapi.Random
	InsecureRandom hostapi.InsecureRandom
	HTTPClient     hostapi.HTTPClient
	Stream         hostapi.StreamBackend
	ProcessExiter  hostapi.ProcessExiter
}

// Config describes one harness run.
type Config struct {
	WasmPath string
	Args     []string

	Mode        Mode
	TracePath   string
	TraceFormat trace.Format

	Backends Backends

	// Logger receives the harness's start/finish log lines, mirroring
	// cmd/server/main.go's single process-lifetime *log.Logger. Defaults to
	// log.Default() if nil.
	Logger *log.Logger
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// session is the resolved, mode-specific wiring the harness assembles
// before instantiating the guest: one of Recorder or Playback is non-nil,
// never both.
type session struct {
	rec *recorder.Recorder
	pb  *playback.Playback
}

func newSession(cfg Config) (*session, error) {
	switch cfg.Mode {
	case ModeRecord:
		rec, err := recorder.New(cfg.TracePath, cfg.TraceFormat)
		if err != nil {
			return nil, err
		}
		return &session{rec: rec}, nil
	case ModeReplay:
		pb, err := playback.New(cfg.TracePath, cfg.TraceFormat)
		if err != nil {
			return nil, err
		}
		return &session{pb: pb}, nil
	default:
		return nil, errInvalidMode(cfg.Mode)
	}
}
