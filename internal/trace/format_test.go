package trace

import "testing"

// TestInferFormat_Explicit verifies an explicit --format flag wins over the
// path extension.
func TestInferFormat_Explicit(t *testing.T) {
	got, err := InferFormat("trace.cbor", "json")
	if err != nil {
		t.Fatalf("InferFormat returned error: %v", err)
	}
	if got != FormatJSON {
		t.Errorf("expected explicit format to win, got %q", got)
	}
}

// TestInferFormat_FromExtension verifies the path extension is used when no
// explicit format is given.
func TestInferFormat_FromExtension(t *testing.T) {
	cases := map[string]Format{
		"trace.json": FormatJSON,
		"trace.cbor": FormatCBOR,
	}
	for path, want := range cases {
		got, err := InferFormat(path, "")
		if err != nil {
			t.Fatalf("InferFormat(%q) returned error: %v", path, err)
		}
		if got != want {
			t.Errorf("InferFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

// TestInferFormat_Unresolvable verifies InferFormat fails when neither an
// explicit format nor a recognized extension is available.
func TestInferFormat_Unresolvable(t *testing.T) {
	if _, err := InferFormat("wasm-rr-trace", ""); err == nil {
		t.Error("expected an error for an unresolvable format, got nil")
	}
}

// TestParseFormat_Invalid verifies an unknown --format value is rejected.
func TestParseFormat_Invalid(t *testing.T) {
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("expected an error for an unsupported format, got nil")
	}
}
