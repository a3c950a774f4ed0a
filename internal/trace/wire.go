package trace

import (
	"encoding/hex"
	"fmt"
)

// wireHeader is the JSON/CBOR-shared shape of one (name, value) header pair.
type wireHeader struct {
	Name  string `json:"name" cbor:"name"`
	Value string `json:"value" cbor:"value"`
}

func toWireHeaders(hdrs []Header) []wireHeader {
	out := make([]wireHeader, len(hdrs))
	for i, h := range hdrs {
		out[i] = wireHeader{Name: h.Name, Value: h.Value}
	}
	return out
}

func fromWireHeaders(hdrs []wireHeader) []Header {
	out := make([]Header, len(hdrs))
	for i, h := range hdrs {
		out[i] = Header{Name: h.Name, Value: h.Value}
	}
	return out
}

type wireEnvVar struct {
	Name  string `json:"name" cbor:"name"`
	Value string `json:"value" cbor:"value"`
}

// wireEvent is the single externally-tagged envelope shared by both the JSON
// and CBOR encodings: "call" is the discriminant, every other field is
// optional and only the ones relevant to Call are populated. This keeps the
// encode/decode path identical between the two formats (spec §4.1:
// "Serialization is by externally-tagged variant with a 'call'
// discriminant").
type wireEvent struct {
	Call Call `json:"call" cbor:"call"`

	Seconds     *uint64 `json:"seconds,omitempty" cbor:"seconds,omitempty"`
	Nanoseconds *uint64 `json:"nanoseconds,omitempty" cbor:"nanoseconds,omitempty"`

	Vars []wireEnvVar `json:"vars,omitempty" cbor:"vars,omitempty"`
	Args []string     `json:"args,omitempty" cbor:"args,omitempty"`
	Cwd  *string       `json:"cwd,omitempty" cbor:"cwd,omitempty"`

	BytesHex *string `json:"bytes,omitempty" cbor:"-"`
	Bytes    []byte  `json:"-" cbor:"bytes,omitempty"`
	Value    *uint64 `json:"value,omitempty" cbor:"value,omitempty"`
	Lo       *uint64 `json:"lo,omitempty" cbor:"lo,omitempty"`
	Hi       *uint64 `json:"hi,omitempty" cbor:"hi,omitempty"`

	RequestMethod  string       `json:"request_method,omitempty" cbor:"request_method,omitempty"`
	RequestURL     string       `json:"request_url,omitempty" cbor:"request_url,omitempty"`
	RequestHeaders []wireHeader `json:"request_headers,omitempty" cbor:"request_headers,omitempty"`
	Status         *uint16      `json:"status,omitempty" cbor:"status,omitempty"`
	Headers        []wireHeader `json:"headers,omitempty" cbor:"headers,omitempty"`
	BodyHex        *string      `json:"body,omitempty" cbor:"-"`
	Body           []byte       `json:"-" cbor:"body,omitempty"`

	Code *int32 `json:"code,omitempty" cbor:"code,omitempty"`
}

func u64p(v uint64) *uint64 { return &v }
func u16p(v uint16) *uint16 { return &v }
func i32p(v int32) *int32   { return &v }

// toWire converts a decoded Event into the shared envelope. The binary
// codec and text codec each finish the job differently (the text codec
// hex-encodes Bytes/Body into BytesHex/BodyHex before marshaling; the
// binary codec leaves Bytes/Body as-is).
func toWire(e Event) (*wireEvent, error) {
	w := &wireEvent{Call: e.Kind()}
	switch v := e.(type) {
	case ClockNow:
		w.Seconds, w.Nanoseconds = u64p(v.Seconds), u64p(uint64(v.Nanoseconds))
	case ClockResolution:
		w.Seconds, w.Nanoseconds = u64p(v.Seconds), u64p(uint64(v.Nanoseconds))
	case MonotonicClockNow:
		w.Nanoseconds = u64p(v.Nanoseconds)
	case MonotonicClockResolution:
		w.Nanoseconds = u64p(v.Nanoseconds)
	case Environment:
		w.Vars = make([]wireEnvVar, len(v.Vars))
		for i, ev := range v.Vars {
			w.Vars[i] = wireEnvVar{Name: ev.Name, Value: ev.Value}
		}
	case Arguments:
		w.Args = v.Args
	case InitialCwd:
		w.Cwd = v.Cwd
	case RandomBytes:
		w.Bytes = v.Bytes
	case InsecureRandomBytes:
		w.Bytes = v.Bytes
	case RandomU64:
		w.Value = u64p(v.Value)
	case InsecureRandomU64:
		w.Value = u64p(v.Value)
	case InsecureSeed:
		w.Lo, w.Hi = u64p(v.Lo), u64p(v.Hi)
	case Read:
		// no payload
	case HttpResponse:
		w.RequestMethod = v.RequestMethod
		w.RequestURL = v.RequestURL
		w.RequestHeaders = toWireHeaders(v.RequestHeaders)
		w.Status = u16p(v.Status)
		w.Headers = toWireHeaders(v.Headers)
		w.Body = v.Body
	case Exit:
		w.Code = i32p(v.Code)
	default:
		return nil, fmt.Errorf("trace: unknown event type %T", e)
	}
	return w, nil
}

// toEvent converts a decoded envelope back into the typed Event it
// represents, dispatching on Call the same way playback.Next dispatches on
// the caller's expected kind.
func (w *wireEvent) toEvent() (Event, error) {
	switch w.Call {
	case CallClockNow:
		return ClockNow{Seconds: derefU64(w.Seconds), Nanoseconds: uint32(derefU64(w.Nanoseconds))}, nil
	case CallClockResolution:
		return ClockResolution{Seconds: derefU64(w.Seconds), Nanoseconds: uint32(derefU64(w.Nanoseconds))}, nil
	case CallMonotonicClockNow:
		return MonotonicClockNow{Nanoseconds: derefU64(w.Nanoseconds)}, nil
	case CallMonotonicClockResolution:
		return MonotonicClockResolution{Nanoseconds: derefU64(w.Nanoseconds)}, nil
	case CallEnvironment:
		vars := make([]EnvVar, len(w.Vars))
		for i, v := range w.Vars {
			vars[i] = EnvVar{Name: v.Name, Value: v.Value}
		}
		return Environment{Vars: vars}, nil
	case CallArguments:
		return Arguments{Args: w.Args}, nil
	case CallInitialCwd:
		return InitialCwd{Cwd: w.Cwd}, nil
	case CallRandomBytes:
		return RandomBytes{Bytes: w.Bytes}, nil
	case CallInsecureRandomBytes:
		return InsecureRandomBytes{Bytes: w.Bytes}, nil
	case CallRandomU64:
		return RandomU64{Value: derefU64(w.Value)}, nil
	case CallInsecureRandomU64:
		return InsecureRandomU64{Value: derefU64(w.Value)}, nil
	case CallInsecureSeed:
		return InsecureSeed{Lo: derefU64(w.Lo), Hi: derefU64(w.Hi)}, nil
	case CallRead:
		return Read{}, nil
	case CallHttpResponse:
		return HttpResponse{
			RequestMethod:  w.RequestMethod,
			RequestURL:     w.RequestURL,
			RequestHeaders: fromWireHeaders(w.RequestHeaders),
			Status:         derefU16(w.Status),
			Headers:        fromWireHeaders(w.Headers),
			Body:           w.Body,
		}, nil
	case CallExit:
		return Exit{Code: derefI32(w.Code)}, nil
	default:
		return nil, fmt.Errorf("trace: unknown call discriminant %q", w.Call)
	}
}

func derefU64(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefU16(p *uint16) uint16 {
	if p == nil {
		return 0
	}
	return *p
}

func derefI32(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}

// hexEncodeBytePayloads fills BytesHex/BodyHex from Bytes/Body ahead of a
// JSON marshal, and clears the raw fields so they don't also attempt to
// marshal (they are tagged json:"-" but kept nil for clarity).
func (w *wireEvent) hexEncodeBytePayloads() {
	switch w.Call {
	case CallRandomBytes, CallInsecureRandomBytes:
		h := hex.EncodeToString(w.Bytes)
		w.BytesHex = &h
	case CallHttpResponse:
		h := hex.EncodeToString(w.Body)
		w.BodyHex = &h
	}
}

// hexDecodeBytePayloads is the inverse, run after a JSON unmarshal.
func (w *wireEvent) hexDecodeBytePayloads() error {
	if w.BytesHex != nil {
		b, err := hex.DecodeString(*w.BytesHex)
		if err != nil {
			return fmt.Errorf("trace: invalid hex bytes payload: %w", err)
		}
		w.Bytes = b
	}
	if w.BodyHex != nil {
		b, err := hex.DecodeString(*w.BodyHex)
		if err != nil {
			return fmt.Errorf("trace: invalid hex body payload: %w", err)
		}
		w.Body = b
	}
	return nil
}
