// Package trace defines the TraceEvent model (one variant per recorded host
// operation), the TraceFile envelope, and the codecs that serialize both to
// disk in two interchangeable encodings. See spec §3/§4.1/§4.2.
//
// Design Decisions (grounding: internal/orders.OrderType and
// internal/events.EventType in the teacher's codebase use the same
// "iota-backed enum with a String method" idiom for a closed set of tagged
// variants):
//
//  1. Closed Variant Set: Call is a string-backed enum. Every TraceEvent
//     implementation reports its own Call via Kind(), so the codec and the
//     playback layer can dispatch on it without a type switch at every call
//     site.
//  2. Binary Payloads Survive Both Encodings: RandomBytes.Bytes and
//     HttpResponse.Body are plain []byte. The JSON codec hex-encodes them;
//     the CBOR codec stores them as native byte strings. Both round-trip
//     losslessly.
//  3. Sorted Headers: HttpResponse.RequestHeaders and .Headers are always
//     stored pre-sorted by (name, value) — SortHeaders is called once, at
//     construction, not at comparison time, so every consumer sees the same
//     canonical order.
package trace

// Call identifies which host operation a TraceEvent recorded. Values are
// the snake_case call names used as the "call" discriminant in the text
// encoding (spec §4.1).
type Call string

const (
	CallClockNow                 Call = "clock_now"
	CallClockResolution          Call = "clock_resolution"
	CallMonotonicClockNow        Call = "monotonic_clock_now"
	CallMonotonicClockResolution Call = "monotonic_clock_resolution"
	CallEnvironment              Call = "environment"
	CallArguments                Call = "arguments"
	CallInitialCwd               Call = "initial_cwd"
	CallRandomBytes              Call = "random_bytes"
	CallInsecureRandomBytes      Call = "insecure_random_bytes"
	CallRandomU64                Call = "random_u64"
	CallInsecureRandomU64        Call = "insecure_random_u64"
	CallInsecureSeed             Call = "insecure_seed"
	CallRead                     Call = "read"
	CallHttpResponse             Call = "http_response"
	CallExit                     Call = "exit"
)

// Event is implemented by every TraceEvent variant.
type Event interface {
	// Kind returns the call name this event records.
	Kind() Call
}

// ClockNow records the result of wall_clock.now.
type ClockNow struct {
	Seconds     uint64
	Nanoseconds uint32
}

func (ClockNow) Kind() Call { return CallClockNow }

// ClockResolution records the result of wall_clock.resolution.
type ClockResolution struct {
	Seconds     uint64
	Nanoseconds uint32
}

func (ClockResolution) Kind() Call { return CallClockResolution }

// MonotonicClockNow records the result of monotonic_clock.now.
type MonotonicClockNow struct {
	Nanoseconds uint64
}

func (MonotonicClockNow) Kind() Call { return CallMonotonicClockNow }

// MonotonicClockResolution records the result of monotonic_clock.resolution.
type MonotonicClockResolution struct {
	Nanoseconds uint64
}

func (MonotonicClockResolution) Kind() Call { return CallMonotonicClockResolution }

// EnvVar is one (name, value) pair from environment.get_environment.
type EnvVar struct {
	Name  string
	Value string
}

// Environment records the result of environment.get_environment.
type Environment struct {
	Vars []EnvVar
}

func (Environment) Kind() Call { return CallEnvironment }

// Arguments records the result of environment.get_arguments.
type Arguments struct {
	Args []string
}

func (Arguments) Kind() Call { return CallArguments }

// InitialCwd records the result of environment.initial_cwd.
type InitialCwd struct {
	Cwd *string // nil means the backend reported no initial cwd
}

func (InitialCwd) Kind() Call { return CallInitialCwd }

// RandomBytes records the result of random.get_random_bytes.
type RandomBytes struct {
	Bytes []byte
}

func (RandomBytes) Kind() Call { return CallRandomBytes }

// InsecureRandomBytes records the result of random.insecure.get_insecure_random_bytes.
type InsecureRandomBytes struct {
	Bytes []byte
}

func (InsecureRandomBytes) Kind() Call { return CallInsecureRandomBytes }

// RandomU64 records the result of random.get_random_u64.
type RandomU64 struct {
	Value uint64
}

func (RandomU64) Kind() Call { return CallRandomU64 }

// InsecureRandomU64 records the result of random.insecure.get_insecure_random_u64.
type InsecureRandomU64 struct {
	Value uint64
}

func (InsecureRandomU64) Kind() Call { return CallInsecureRandomU64 }

// InsecureSeed records the result of random.insecure_seed.
type InsecureSeed struct {
	Lo uint64
	Hi uint64
}

func (InsecureSeed) Kind() Call { return CallInsecureSeed }

// Read is an advisory marker for a stream/file read call. It carries no
// payload: the actual bytes are not captured (see spec §9, "Stream-read
// markers vs. full capture").
type Read struct{}

func (Read) Kind() Call { return CallRead }

// Header is one (name, value) pair in an HttpResponse's request or response
// headers. Names are always lower-cased before storage (spec §4.5, "Header
// normalization").
type Header struct {
	Name  string
	Value string
}

// HttpResponse records the result of an outgoing http.send_request call,
// along with enough of the request to detect divergence on replay.
type HttpResponse struct {
	RequestMethod  string
	RequestURL     string
	RequestHeaders []Header // sorted by (name, value)
	Status         uint16
	Headers        []Header // sorted by (name, value)
	Body           []byte
}

func (HttpResponse) Kind() Call { return CallHttpResponse }

// Exit records a guest exit(code) call.
type Exit struct {
	Code int32
}

func (Exit) Kind() Call { return CallExit }

// SortHeaders returns a copy of hdrs sorted lexicographically by (name,
// value), satisfying invariant 3 in spec §3. Callers build HttpResponse
// values through this helper rather than sorting ad hoc at each call site.
func SortHeaders(hdrs []Header) []Header {
	out := make([]Header, len(hdrs))
	copy(out, hdrs)
	insertionSortHeaders(out)
	return out
}

// insertionSortHeaders sorts in place. Header lists are small (a handful of
// entries per request/response), so insertion sort avoids pulling in a
// generic sort.Slice closure per call for negligible benefit.
func insertionSortHeaders(hdrs []Header) {
	for i := 1; i < len(hdrs); i++ {
		for j := i; j > 0 && headerLess(hdrs[j], hdrs[j-1]); j-- {
			hdrs[j], hdrs[j-1] = hdrs[j-1], hdrs[j]
		}
	}
}

func headerLess(a, b Header) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Value < b.Value
}
