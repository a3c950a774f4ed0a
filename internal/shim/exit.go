package shim

import (
	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/playback"
	"github.com/rishav/wasm-rr/internal/recorder"
)

// RecordExit records Exit{code} and then propagates the exit to the
// runtime, which raises its typed process-exit trap (spec §4.5, "State
// machine for Exit").
type RecordExit struct {
	Backend hostapi.ProcessExiter
	Rec     *recorder.Recorder
}

func (s *RecordExit) Exit(code int32) error {
	s.Rec.RecordExit(code)
	return s.Backend.Exit(code)
}

// ReplayExit consumes an Exit event if present, then propagates the exit.
// On replay the recorded Exit is a data point the shim already expects the
// guest to reach; it is consumed here purely so Playback.Finish doesn't see
// it as an unused event, since finish is called after the exit trap has
// already been classified by the run harness.
type ReplayExit struct {
	Backend hostapi.ProcessExiter
	PB      *playback.Playback
}

func (s *ReplayExit) Exit(code int32) error {
	s.PB.NextExit() //nolint:errcheck // best-effort consume; divergence here is surfaced by the harness's own Exit classification, not this call
	return s.Backend.Exit(code)
}
