package harness

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/tetratelabs/wazero/sys"

	"github.com/rishav/wasm-rr/internal/rrerr"
	"github.com/rishav/wasm-rr/internal/trace"
)

func TestMode_String(t *testing.T) {
	cases := map[Mode]string{
		ModeRecord: "record",
		ModeReplay: "replay",
		Mode(99):   "unknown",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", mode, got, want)
		}
	}
}

func TestNewSession_RecordOpensRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	cfg := Config{Mode: ModeRecord, TracePath: path, TraceFormat: trace.FormatJSON}

	sess, err := newSession(cfg)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if sess.rec == nil || sess.pb != nil {
		t.Fatalf("expected record session to populate rec only, got %+v", sess)
	}
}

func TestNewSession_ReplayRequiresExistingTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	cfg := Config{Mode: ModeReplay, TracePath: path, TraceFormat: trace.FormatJSON}

	if _, err := newSession(cfg); err == nil {
		t.Fatal("expected an error opening a nonexistent trace for replay")
	}
}

func TestNewSession_InvalidMode(t *testing.T) {
	cfg := Config{Mode: Mode(42)}
	if _, err := newSession(cfg); err == nil {
		t.Fatal("expected an error for an invalid mode")
	}
}

func TestClassifyExit_NilIsNil(t *testing.T) {
	if err := classifyExit(nil); err != nil {
		t.Fatalf("classifyExit(nil) = %v, want nil", err)
	}
}

func TestClassifyExit_WrapsSysExitError(t *testing.T) {
	err := classifyExit(sys.NewExitError(7))
	var pe *rrerr.ProcessExit
	if !errors.As(err, &pe) {
		t.Fatalf("classifyExit did not produce *rrerr.ProcessExit, got %T (%v)", err, err)
	}
	if pe.Code != 7 {
		t.Errorf("ProcessExit.Code = %d, want 7", pe.Code)
	}
}

func TestClassifyExit_OtherErrorsAreNotExits(t *testing.T) {
	if err := classifyExit(errors.New("boom")); err != nil {
		t.Fatalf("classifyExit of a non-exit error should return nil, got %v", err)
	}
}

func TestConfig_LoggerDefaultsWhenNil(t *testing.T) {
	cfg := Config{}
	if cfg.logger() == nil {
		t.Fatal("logger() should never return nil")
	}
}
