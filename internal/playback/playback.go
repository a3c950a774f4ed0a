// Package playback implements C4: the event source replay reads from,
// with typed next_<kind>() accessors that enforce expected event kind and
// terminal-state checks (spec §4.4).
package playback

import (
	"errors"
	"fmt"
	"io"

	"github.com/rishav/wasm-rr/internal/rrerr"
	"github.com/rishav/wasm-rr/internal/trace"
)

// Playback owns the input trace for the lifetime of a replay.
type Playback struct {
	r       trace.Reader
	pending []trace.Event // single-slot-in-practice pushback queue for NextExit
	done    bool          // true once the underlying reader has returned io.EOF
}

// New opens path for reading in the given format.
func New(path string, format trace.Format) (*Playback, error) {
	r, err := trace.OpenReader(path, format)
	if err != nil {
		return nil, &rrerr.Setup{Op: "open trace for replay", Err: err}
	}
	return &Playback{r: r}, nil
}

// read is the single low-level read path: it drains any pushed-back event
// first, then falls through to the underlying trace.Reader, tracking EOF so
// a Playback never asks an exhausted reader for more.
func (p *Playback) read() (trace.Event, error) {
	if len(p.pending) > 0 {
		e := p.pending[0]
		p.pending = p.pending[1:]
		return e, nil
	}
	if p.done {
		return nil, io.EOF
	}
	e, err := p.r.ReadNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			p.done = true
		}
		return nil, err
	}
	return e, nil
}

func (p *Playback) pushBack(e trace.Event) {
	p.pending = append([]trace.Event{e}, p.pending...)
}

// Next advances one event. It fails with a Divergence (TraceExhausted) if
// none remain.
func (p *Playback) Next() (trace.Event, error) {
	e, err := p.read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, rrerr.TraceExhausted("any")
		}
		return nil, fmt.Errorf("playback: %w", err)
	}
	return e, nil
}

// expect advances one event and fails with UnexpectedEventKind if its Kind
// doesn't match want, or TraceExhausted if none remain.
func (p *Playback) expect(want trace.Call) (trace.Event, error) {
	e, err := p.read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, rrerr.TraceExhausted(string(want))
		}
		return nil, fmt.Errorf("playback: %w", err)
	}
	if e.Kind() != want {
		return nil, rrerr.UnexpectedEventKind(string(want), string(e.Kind()))
	}
	return e, nil
}

// NextClockNow returns the next ClockNow event's payload.
func (p *Playback) NextClockNow() (trace.ClockNow, error) {
	e, err := p.expect(trace.CallClockNow)
	if err != nil {
		return trace.ClockNow{}, err
	}
	return e.(trace.ClockNow), nil
}

// NextClockResolution returns the next ClockResolution event's payload.
func (p *Playback) NextClockResolution() (trace.ClockResolution, error) {
	e, err := p.expect(trace.CallClockResolution)
	if err != nil {
		return trace.ClockResolution{}, err
	}
	return e.(trace.ClockResolution), nil
}

// NextMonotonicClockNow returns the next MonotonicClockNow event's payload.
func (p *Playback) NextMonotonicClockNow() (trace.MonotonicClockNow, error) {
	e, err := p.expect(trace.CallMonotonicClockNow)
	if err != nil {
		return trace.MonotonicClockNow{}, err
	}
	return e.(trace.MonotonicClockNow), nil
}

// NextMonotonicClockResolution returns the next MonotonicClockResolution event's payload.
func (p *Playback) NextMonotonicClockResolution() (trace.MonotonicClockResolution, error) {
	e, err := p.expect(trace.CallMonotonicClockResolution)
	if err != nil {
		return trace.MonotonicClockResolution{}, err
	}
	return e.(trace.MonotonicClockResolution), nil
}

// NextEnvironment returns the next Environment event's payload.
func (p *Playback) NextEnvironment() (trace.Environment, error) {
	e, err := p.expect(trace.CallEnvironment)
	if err != nil {
		return trace.Environment{}, err
	}
	return e.(trace.Environment), nil
}

// NextArguments returns the next Arguments event's payload.
func (p *Playback) NextArguments() (trace.Arguments, error) {
	e, err := p.expect(trace.CallArguments)
	if err != nil {
		return trace.Arguments{}, err
	}
	return e.(trace.Arguments), nil
}

// NextInitialCwd returns the next InitialCwd event's payload.
func (p *Playback) NextInitialCwd() (trace.InitialCwd, error) {
	e, err := p.expect(trace.CallInitialCwd)
	if err != nil {
		return trace.InitialCwd{}, err
	}
	return e.(trace.InitialCwd), nil
}

// NextRandomBytes returns the next RandomBytes event's payload.
func (p *Playback) NextRandomBytes() (trace.RandomBytes, error) {
	e, err := p.expect(trace.CallRandomBytes)
	if err != nil {
		return trace.RandomBytes{}, err
	}
	return e.(trace.RandomBytes), nil
}

// NextInsecureRandomBytes returns the next InsecureRandomBytes event's payload.
func (p *Playback) NextInsecureRandomBytes() (trace.InsecureRandomBytes, error) {
	e, err := p.expect(trace.CallInsecureRandomBytes)
	if err != nil {
		return trace.InsecureRandomBytes{}, err
	}
	return e.(trace.InsecureRandomBytes), nil
}

// NextRandomU64 returns the next RandomU64 event's payload.
func (p *Playback) NextRandomU64() (trace.RandomU64, error) {
	e, err := p.expect(trace.CallRandomU64)
	if err != nil {
		return trace.RandomU64{}, err
	}
	return e.(trace.RandomU64), nil
}

// NextInsecureRandomU64 returns the next InsecureRandomU64 event's payload.
func (p *Playback) NextInsecureRandomU64() (trace.InsecureRandomU64, error) {
	e, err := p.expect(trace.CallInsecureRandomU64)
	if err != nil {
		return trace.InsecureRandomU64{}, err
	}
	return e.(trace.InsecureRandomU64), nil
}

// NextInsecureSeed returns the next InsecureSeed event's payload.
func (p *Playback) NextInsecureSeed() (trace.InsecureSeed, error) {
	e, err := p.expect(trace.CallInsecureSeed)
	if err != nil {
		return trace.InsecureSeed{}, err
	}
	return e.(trace.InsecureSeed), nil
}

// NextHttpResponse returns the next HttpResponse event's payload.
func (p *Playback) NextHttpResponse() (trace.HttpResponse, error) {
	e, err := p.expect(trace.CallHttpResponse)
	if err != nil {
		return trace.HttpResponse{}, err
	}
	return e.(trace.HttpResponse), nil
}

// NextExit optionally consumes a trailing Exit event. It returns ok=false
// (no error) if the next event is not an Exit, pushing it back so Finish
// still sees it — a guest that never exits has no Exit event to consume,
// and that is not itself a divergence.
func (p *Playback) NextExit() (evt trace.Exit, ok bool, err error) {
	e, err := p.read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return trace.Exit{}, false, nil
		}
		return trace.Exit{}, false, fmt.Errorf("playback: %w", err)
	}
	if e.Kind() != trace.CallExit {
		p.pushBack(e)
		return trace.Exit{}, false, nil
	}
	return e.(trace.Exit), true, nil
}

// ExpectRead consumes a Read marker, failing if the next event is not one.
// Used by stream/file shims before delegating to the backend (spec §4.5).
func (p *Playback) ExpectRead() error {
	_, err := p.expect(trace.CallRead)
	return err
}

// Finish is the terminal check (spec §4.4): it succeeds if every remaining
// event is an advisory Read marker, discarding them, and fails with Unused
// if any other kind remains. The reference behavior from spec §9's Open
// Question is adopted: a *missing* Read marker is not itself checked here
// (there is nothing to check against), only extra non-Read events are
// rejected.
func (p *Playback) Finish() error {
	n := 0
	for {
		e, err := p.read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("playback: %w", err)
		}
		if e.Kind() != trace.CallRead {
			n++
			for {
				if _, err := p.read(); err != nil {
					if errors.Is(err, io.EOF) {
						return &rrerr.Unused{Remaining: n, NextKind: string(e.Kind())}
					}
					return fmt.Errorf("playback: %w", err)
				}
				n++
			}
		}
	}
}
