package trace

import (
	"reflect"
	"testing"
)

// TestSortHeaders verifies headers come back sorted lexicographically by
// (name, value), the invariant HttpResponse relies on for deterministic
// comparison (spec §3 invariant 3).
func TestSortHeaders(t *testing.T) {
	in := []Header{
		{Name: "content-type", Value: "text/plain"},
		{Name: "accept", Value: "application/json"},
		{Name: "accept", Value: "text/plain"},
	}
	want := []Header{
		{Name: "accept", Value: "application/json"},
		{Name: "accept", Value: "text/plain"},
		{Name: "content-type", Value: "text/plain"},
	}

	got := SortHeaders(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortHeaders() = %+v, want %+v", got, want)
	}

	// The input slice must not be mutated.
	if in[0].Name != "content-type" {
		t.Error("SortHeaders mutated its input")
	}
}

// TestSortHeaders_Empty verifies the empty case doesn't panic and returns
// an empty (not nil-vs-non-nil-sensitive) slice.
func TestSortHeaders_Empty(t *testing.T) {
	got := SortHeaders(nil)
	if len(got) != 0 {
		t.Errorf("expected 0 headers, got %d", len(got))
	}
}
