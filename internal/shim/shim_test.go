package shim

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/playback"
	"github.com/rishav/wasm-rr/internal/recorder"
	"github.com/rishav/wasm-rr/internal/rrerr"
	"github.com/rishav/wasm-rr/internal/trace"
)

type fakeWallClock struct {
	sec uint64
	ns  uint32
}

func (f *fakeWallClock) Now() (uint64, uint32, error)        { return f.sec, f.ns, nil }
func (f *fakeWallClock) Resolution() (uint64, uint32, error) { return 0, 1000, nil }

// TestClock_RecordThenReplay verifies a value captured on record is
// returned unchanged on replay (spec §8 scenario 1, "Clock capture").
func TestClock_RecordThenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	rec, err := recorder.New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("recorder.New: %v", err)
	}

	backend := &fakeWallClock{sec: 1_700_000_000, ns: 123_456_789}
	recordShim := &RecordWallClock{Backend: backend, Rec: rec}

	sec, ns, err := recordShim.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	if sec != 1_700_000_000 || ns != 123_456_789 {
		t.Fatalf("got (%d, %d)", sec, ns)
	}
	if err := rec.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	pb, err := playback.New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("playback.New: %v", err)
	}
	replayShim := &ReplayWallClock{PB: pb}

	sec, ns, err = replayShim.Now()
	if err != nil {
		t.Fatalf("replay Now: %v", err)
	}
	if sec != 1_700_000_000 || ns != 123_456_789 {
		t.Errorf("replay got (%d, %d), want (1700000000, 123456789)", sec, ns)
	}
}

type fakeRandom struct{ bytes []byte }

func (f *fakeRandom) GetRandomBytes(n int) ([]byte, error) { return f.bytes, nil }
func (f *fakeRandom) GetRandomU64() (uint64, error)        { return 42, nil }

// TestRandom_ReplayLengthMismatchTraps verifies scenario 4 in spec §8: a
// recorded RandomBytes whose length differs from the guest's request traps.
func TestRandom_ReplayLengthMismatchTraps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	rec, err := recorder.New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("recorder.New: %v", err)
	}

	recordShim := &RecordRandom{Backend: &fakeRandom{bytes: []byte{0x01, 0x02, 0x03}}, Rec: rec}
	if _, err := recordShim.GetRandomBytes(3); err != nil {
		t.Fatalf("GetRandomBytes: %v", err)
	}
	if err := rec.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	pb, err := playback.New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("playback.New: %v", err)
	}
	replayShim := &ReplayRandom{PB: pb}

	_, err = replayShim.GetRandomBytes(4)
	if err == nil {
		t.Fatal("expected a length-mismatch divergence, got nil")
	}
	if _, ok := err.(*rrerr.Divergence); !ok {
		t.Errorf("expected *rrerr.Divergence, got %T", err)
	}
}

type fakeHTTPClient struct {
	resp hostapi.HTTPResponsePayload
}

func (f *fakeHTTPClient) SendRequest(ctx context.Context, req hostapi.HTTPRequest) (hostapi.HTTPResponsePayload, error) {
	return f.resp, nil
}

// TestHTTP_RecordThenReplay verifies the matching half of scenario 3 in
// spec §8: a GET with a matching Accept header replays the same response.
// The mismatching half is TestHTTP_ReplayHeaderMismatchTraps.
func TestHTTP_RecordThenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	rec, err := recorder.New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("recorder.New: %v", err)
	}

	backend := &fakeHTTPClient{resp: hostapi.HTTPResponsePayload{
		Status:  200,
		Headers: []hostapi.Header{{Name: "content-type", Value: "text/plain"}},
		Body:    []byte("hello"),
	}}
	recordShim := &RecordHTTP{Backend: backend, Rec: rec}

	req := hostapi.HTTPRequest{
		Method:  "GET",
		URL:     "https://example/x",
		Headers: []hostapi.Header{{Name: "Accept", Value: "text/plain"}},
	}
	resp, err := recordShim.SendRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if resp.Status != 200 || string(resp.Body) != "hello" {
		t.Fatalf("got %+v", resp)
	}
	if err := rec.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Replay with the same request: succeeds even though the backend is
	// unreachable (ReplayHTTP never touches it).
	pb, err := playback.New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("playback.New: %v", err)
	}
	replayShim := &ReplayHTTP{PB: pb}

	replayResp, err := replayShim.SendRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("replay SendRequest: %v", err)
	}
	if replayResp.Status != 200 || string(replayResp.Body) != "hello" {
		t.Errorf("replay got %+v", replayResp)
	}
}

// TestHTTP_ReplayHeaderMismatchTraps verifies a changed Accept header
// diverges from the recorded request.
func TestHTTP_ReplayHeaderMismatchTraps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	rec, err := recorder.New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("recorder.New: %v", err)
	}

	backend := &fakeHTTPClient{resp: hostapi.HTTPResponsePayload{Status: 200, Body: []byte("hello")}}
	recordShim := &RecordHTTP{Backend: backend, Rec: rec}

	recorded := hostapi.HTTPRequest{
		Method:  "GET",
		URL:     "https://example/x",
		Headers: []hostapi.Header{{Name: "Accept", Value: "text/plain"}},
	}
	if _, err := recordShim.SendRequest(context.Background(), recorded); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := rec.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	pb, err := playback.New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("playback.New: %v", err)
	}
	replayShim := &ReplayHTTP{PB: pb}

	diverged := hostapi.HTTPRequest{
		Method:  "GET",
		URL:     "https://example/x",
		Headers: []hostapi.Header{{Name: "Accept", Value: "application/json"}},
	}
	_, err = replayShim.SendRequest(context.Background(), diverged)
	if err == nil {
		t.Fatal("expected a request-mismatch divergence, got nil")
	}
	if _, ok := err.(*rrerr.HTTPRequestMismatch); !ok {
		t.Errorf("expected *rrerr.HTTPRequestMismatch, got %T (%v)", err, err)
	}
}
