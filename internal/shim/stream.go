package shim

import (
	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/playback"
	"github.com/rishav/wasm-rr/internal/recorder"
)

// RecordStream records an advisory Read marker, then delegates to the
// backend. This covers both stream read/blocking_read and filesystem
// descriptor.read — spec §4.5 gives them identical treatment, so one shim
// type serves both; the harness registers a single stream_read host
// function over one StreamBackend.
type RecordStream struct {
	Backend hostapi.StreamBackend
	Rec     *recorder.Recorder
}

func (s *RecordStream) Read(n int) ([]byte, bool, error) {
	s.Rec.RecordRead()
	data, eof, err := s.Backend.Read(n)
	if err != nil {
		return nil, false, backendErr("stream.read", err)
	}
	return data, eof, nil
}

// ReplayStream consumes a Read marker, then delegates to the backend. True
// determinism for reads would require capturing the returned bytes; the
// reference design accepts this as a known gap (spec §9, "Stream-read
// markers vs. full capture") — replay determinism for stream/file content
// depends on the environment being stable across runs.
type ReplayStream struct {
	Backend hostapi.StreamBackend
	PB      *playback.Playback
}

func (s *ReplayStream) Read(n int) ([]byte, bool, error) {
	if err := s.PB.ExpectRead(); err != nil {
		return nil, false, err
	}
	return s.Backend.Read(n)
}
