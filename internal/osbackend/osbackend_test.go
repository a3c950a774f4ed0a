package osbackend

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero/sys"
)

func TestMonotonicClock_Increases(t *testing.T) {
	c := MonotonicClock{}
	first, err := c.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	second, err := c.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	if second < first {
		t.Errorf("monotonic clock went backwards: %d then %d", first, second)
	}
}

func TestEnvironment_GetArgumentsOverride(t *testing.T) {
	e := Environment{Args: []string{"guest.wasm", "alpha", "beta"}}
	got, err := e.GetArguments()
	if err != nil {
		t.Fatalf("GetArguments: %v", err)
	}
	want := []string{"guest.wasm", "alpha", "beta"}
	if len(got) != len(want) {
		t.Fatalf("GetArguments() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetArguments()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEnvironment_GetArgumentsFallsBackToOSArgs(t *testing.T) {
	e := Environment{}
	if _, err := e.GetArguments(); err != nil {
		t.Fatalf("GetArguments: %v", err)
	}
}

func TestEnvironment_GetEnvironmentSplitsOnFirstEquals(t *testing.T) {
	t.Setenv("WASM_RR_TEST_VAR", "a=b")
	e := Environment{}
	vars, err := e.GetEnvironment()
	if err != nil {
		t.Fatalf("GetEnvironment: %v", err)
	}
	found := false
	for _, v := range vars {
		if v.Name == "WASM_RR_TEST_VAR" {
			found = true
			if v.Value != "a=b" {
				t.Errorf("value = %q, want %q", v.Value, "a=b")
			}
		}
	}
	if !found {
		t.Fatal("WASM_RR_TEST_VAR not found in GetEnvironment() output")
	}
}

func TestInsecureRandom_SeededDeterminism(t *testing.T) {
	a := NewInsecureRandom(42)
	b := NewInsecureRandom(42)

	ab, err := a.GetInsecureRandomBytes(16)
	if err != nil {
		t.Fatalf("GetInsecureRandomBytes: %v", err)
	}
	bb, err := b.GetInsecureRandomBytes(16)
	if err != nil {
		t.Fatalf("GetInsecureRandomBytes: %v", err)
	}
	if !bytes.Equal(ab, bb) {
		t.Errorf("two InsecureRandom sources seeded with 42 diverged: %x vs %x", ab, bb)
	}

	au, _ := a.GetInsecureRandomU64()
	bu, _ := b.GetInsecureRandomU64()
	if au != bu {
		t.Errorf("GetInsecureRandomU64 diverged after matching byte reads: %d vs %d", au, bu)
	}
}

func TestInsecureRandom_DifferentSeedsDiverge(t *testing.T) {
	a := NewInsecureRandom(1)
	b := NewInsecureRandom(2)
	ab, _ := a.GetInsecureRandomBytes(32)
	bb, _ := b.GetInsecureRandomBytes(32)
	if bytes.Equal(ab, bb) {
		t.Error("two InsecureRandom sources with different seeds produced identical output")
	}
}

func TestStream_ReadReportsEOF(t *testing.T) {
	s := Stream{R: strings.NewReader("hi")}
	b1, eof1, err := s.Read(10)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if eof1 {
		t.Fatal("first Read reported EOF before data was exhausted")
	}
	if string(b1) != "hi" {
		t.Errorf("Read = %q, want %q", b1, "hi")
	}

	_, eof2, err := s.Read(10)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !eof2 {
		t.Fatal("second Read should have reported EOF")
	}
}

func TestProcessExiter_PanicsWithSysExitError(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Exit did not panic")
		}
		var exitErr *sys.ExitError
		if !errors.As(panicToError(r), &exitErr) {
			t.Fatalf("panic value is not a *sys.ExitError: %T", r)
		}
		if exitErr.ExitCode() != 3 {
			t.Errorf("ExitCode() = %d, want 3", exitErr.ExitCode())
		}
	}()
	ProcessExiter{}.Exit(3)
}

// panicToError adapts a recovered panic value for errors.As, which requires
// an error rather than the bare interface{} recover() returns.
func panicToError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}
