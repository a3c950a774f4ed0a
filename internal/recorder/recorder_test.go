package recorder

import (
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rishav/wasm-rr/internal/trace"
)

// TestRecorder_RecordsInOrder verifies events land on disk in the order
// they were recorded (spec §8, event-order preservation).
func TestRecorder_RecordsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	rec, err := New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec.RecordClockNow(1_700_000_000, 123_456_789)
	rec.RecordArguments([]string{"prog.wasm", "alpha", "beta"})
	rec.RecordExit(2)

	if err := rec.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r, err := trace.OpenReader(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	var got []trace.Event
	for {
		e, err := r.ReadNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("ReadNext: %v", err)
		}
		got = append(got, e)
	}

	want := []trace.Event{
		trace.ClockNow{Seconds: 1_700_000_000, Nanoseconds: 123_456_789},
		trace.Arguments{Args: []string{"prog.wasm", "alpha", "beta"}},
		trace.Exit{Code: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("event %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestRecorder_StickyErrorSurvivesToSave verifies that once a write fails,
// later Record calls are no-ops and Save reports the original error (spec
// §4.3, §9 "Sticky recorder errors").
func TestRecorder_StickyErrorSurvivesToSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	rec, err := New(path, trace.FormatJSON)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec.RecordExit(0)

	// Force a write failure by closing the underlying file out from under
	// the recorder, simulating a disk-full or permission failure mid-run.
	rec.w.End() // legitimately closes the file handle

	rec.RecordClockNow(1, 2) // should become a sticky no-op, not panic

	if err := rec.Save(); err == nil {
		t.Error("expected Save to report the write failure, got nil")
	}
}
