// Package shim implements C5: the host-call shim layer. For each
// intercepted interface there are two instantiations — a record-mode
// implementation that calls the real backend and records the result, and a
// replay-mode implementation that reads the next recorded value and returns
// it — sharing the same interface surface so the runtime sees identical
// function signatures either way (spec §4.5, §9 "Dual-mode interface
// implementation").
package shim

import (
	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/playback"
	"github.com/rishav/wasm-rr/internal/recorder"
)

// RecordWallClock calls the real backend and records the result.
type RecordWallClock struct {
	Backend hostapi.WallClock
	Rec     *recorder.Recorder
}

func (s *RecordWallClock) Now() (uint64, uint32, error) {
	sec, ns, err := s.Backend.Now()
	if err != nil {
		return 0, 0, backendErr("wall_clock.now", err)
	}
	s.Rec.RecordClockNow(sec, ns)
	return sec, ns, nil
}

func (s *RecordWallClock) Resolution() (uint64, uint32, error) {
	sec, ns, err := s.Backend.Resolution()
	if err != nil {
		return 0, 0, backendErr("wall_clock.resolution", err)
	}
	s.Rec.RecordClockResolution(sec, ns)
	return sec, ns, nil
}

// ReplayWallClock returns the next recorded clock value instead of calling a
// backend.
type ReplayWallClock struct {
	PB *playback.Playback
}

func (s *ReplayWallClock) Now() (uint64, uint32, error) {
	e, err := s.PB.NextClockNow()
	if err != nil {
		return 0, 0, err
	}
	return e.Seconds, e.Nanoseconds, nil
}

func (s *ReplayWallClock) Resolution() (uint64, uint32, error) {
	e, err := s.PB.NextClockResolution()
	if err != nil {
		return 0, 0, err
	}
	return e.Seconds, e.Nanoseconds, nil
}

// RecordMonotonicClock calls the real backend and records the result for
// now/resolution. subscribe_instant/subscribe_duration are not part of this
// shim and the harness binds no host function for them, so they never touch
// the trace.
type RecordMonotonicClock struct {
	Backend hostapi.MonotonicClock
	Rec     *recorder.Recorder
}

func (s *RecordMonotonicClock) Now() (uint64, error) {
	ns, err := s.Backend.Now()
	if err != nil {
		return 0, backendErr("monotonic_clock.now", err)
	}
	s.Rec.RecordMonotonicClockNow(ns)
	return ns, nil
}

func (s *RecordMonotonicClock) Resolution() (uint64, error) {
	ns, err := s.Backend.Resolution()
	if err != nil {
		return 0, backendErr("monotonic_clock.resolution", err)
	}
	s.Rec.RecordMonotonicClockResolution(ns)
	return ns, nil
}

// ReplayMonotonicClock returns the next recorded monotonic value.
type ReplayMonotonicClock struct {
	PB *playback.Playback
}

func (s *ReplayMonotonicClock) Now() (uint64, error) {
	e, err := s.PB.NextMonotonicClockNow()
	if err != nil {
		return 0, err
	}
	return e.Nanoseconds, nil
}

func (s *ReplayMonotonicClock) Resolution() (uint64, error) {
	e, err := s.PB.NextMonotonicClockResolution()
	if err != nil {
		return 0, err
	}
	return e.Nanoseconds, nil
}
