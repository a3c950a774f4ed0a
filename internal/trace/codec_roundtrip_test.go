package trace

import (
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"testing"
)

// sampleEvents returns one instance of every TraceEvent variant, including
// non-empty binary payloads for RandomBytes and HttpResponse.Body, mirroring
// scenario 6 in spec §8 ("Format conversion").
func sampleEvents() []Event {
	cwd := "/home/guest"
	return []Event{
		ClockNow{Seconds: 1_700_000_000, Nanoseconds: 123_456_789},
		ClockResolution{Seconds: 0, Nanoseconds: 1000},
		MonotonicClockNow{Nanoseconds: 987654321},
		MonotonicClockResolution{Nanoseconds: 1},
		Environment{Vars: []EnvVar{{Name: "PATH", Value: "/usr/bin"}, {Name: "HOME", Value: "/home/guest"}}},
		Arguments{Args: []string{"prog.wasm", "alpha", "beta"}},
		InitialCwd{Cwd: &cwd},
		RandomBytes{Bytes: []byte{0x01, 0x02, 0x03, 0xff}},
		InsecureRandomBytes{Bytes: []byte{0xde, 0xad, 0xbe, 0xef}},
		RandomU64{Value: 42},
		InsecureRandomU64{Value: 7},
		InsecureSeed{Lo: 1, Hi: 2},
		Read{},
		HttpResponse{
			RequestMethod:  "GET",
			RequestURL:     "https://example/x",
			RequestHeaders: SortHeaders([]Header{{Name: "accept", Value: "text/plain"}}),
			Status:         200,
			Headers:        SortHeaders([]Header{{Name: "content-type", Value: "text/plain"}}),
			Body:           []byte("hello"),
		},
		Exit{Code: 2},
	}
}

func writeAll(t *testing.T, path string, format Format, events []Event) {
	t.Helper()
	w, err := WriteBegin(path, format)
	if err != nil {
		t.Fatalf("WriteBegin(%q): %v", format, err)
	}
	for _, e := range events {
		if err := w.WriteEvent(e); err != nil {
			t.Fatalf("WriteEvent: %v", err)
		}
	}
	if err := w.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func readAll(t *testing.T, path string, format Format) []Event {
	t.Helper()
	r, err := OpenReader(path, format)
	if err != nil {
		t.Fatalf("OpenReader(%q): %v", format, err)
	}
	defer r.Close()

	var out []Event
	for {
		e, err := r.ReadNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("ReadNext: %v", err)
		}
		out = append(out, e)
	}
	return out
}

// TestRoundTrip_SameFormat verifies writing then reading back in the same
// format reproduces the exact event sequence (spec §8, event-order
// preservation).
func TestRoundTrip_SameFormat(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatCBOR} {
		path := filepath.Join(t.TempDir(), "trace."+string(format))
		want := sampleEvents()
		writeAll(t, path, format, want)
		got := readAll(t, path, format)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("[%s] round trip mismatch:\n got=%#v\nwant=%#v", format, got, want)
		}
	}
}

// TestRoundTrip_JSONToCBORToJSON verifies json->cbor->json is an identity on
// the event sequence (spec §8, round-trip purity).
func TestRoundTrip_JSONToCBORToJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "trace.json")
	cborPath := filepath.Join(dir, "trace.cbor")
	json2Path := filepath.Join(dir, "trace2.json")

	want := sampleEvents()
	writeAll(t, jsonPath, FormatJSON, want)

	if err := Convert(jsonPath, FormatJSON, cborPath, FormatCBOR); err != nil {
		t.Fatalf("Convert json->cbor: %v", err)
	}
	if err := Convert(cborPath, FormatCBOR, json2Path, FormatJSON); err != nil {
		t.Fatalf("Convert cbor->json: %v", err)
	}

	got := readAll(t, json2Path, FormatJSON)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("json->cbor->json mismatch:\n got=%#v\nwant=%#v", got, want)
	}
}

// TestRoundTrip_CBORToJSONToCBOR verifies cbor->json->cbor is an identity on
// the event sequence (spec §8, round-trip purity).
func TestRoundTrip_CBORToJSONToCBOR(t *testing.T) {
	dir := t.TempDir()
	cborPath := filepath.Join(dir, "trace.cbor")
	jsonPath := filepath.Join(dir, "trace.json")
	cbor2Path := filepath.Join(dir, "trace2.cbor")

	want := sampleEvents()
	writeAll(t, cborPath, FormatCBOR, want)

	if err := Convert(cborPath, FormatCBOR, jsonPath, FormatJSON); err != nil {
		t.Fatalf("Convert cbor->json: %v", err)
	}
	if err := Convert(jsonPath, FormatJSON, cbor2Path, FormatCBOR); err != nil {
		t.Fatalf("Convert json->cbor: %v", err)
	}

	got := readAll(t, cbor2Path, FormatCBOR)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cbor->json->cbor mismatch:\n got=%#v\nwant=%#v", got, want)
	}
}

// TestJSONReader_ToleratesMissingClosingBracket verifies the text decoder
// repairs a trace whose trailing "\n]}" is missing because the recorder
// never called Save before the process died (spec §4.3).
func TestJSONReader_ToleratesMissingClosingBracket(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")

	w, err := WriteBegin(path, FormatJSON)
	if err != nil {
		t.Fatalf("WriteBegin: %v", err)
	}
	events := []Event{ClockNow{Seconds: 1, Nanoseconds: 2}, Exit{Code: 0}}
	for _, e := range events {
		if err := w.WriteEvent(e); err != nil {
			t.Fatalf("WriteEvent: %v", err)
		}
	}
	// Deliberately skip w.End() — simulate a crash before Save/End ran.
	if err := w.json.f.Close(); err != nil {
		t.Fatalf("close underlying file: %v", err)
	}

	got := readAll(t, path, FormatJSON)
	if !reflect.DeepEqual(got, events) {
		t.Errorf("got %#v, want %#v", got, events)
	}
}
