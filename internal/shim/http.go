package shim

import (
	"context"
	"fmt"

	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/playback"
	"github.com/rishav/wasm-rr/internal/recorder"
	"github.com/rishav/wasm-rr/internal/rrerr"
	"github.com/rishav/wasm-rr/internal/trace"
)

// RecordHTTP serializes (method, uri, sorted headers), performs the request
// on the real backend synchronously, reads the full response body into
// memory, and records an HttpResponse event (spec §4.5).
type RecordHTTP struct {
	Backend hostapi.HTTPClient
	Rec     *recorder.Recorder
}

func (s *RecordHTTP) SendRequest(ctx context.Context, req hostapi.HTTPRequest) (hostapi.HTTPResponsePayload, error) {
	req.Headers = normalizeHeaders(req.Headers)

	resp, err := s.Backend.SendRequest(ctx, req)
	if err != nil {
		return hostapi.HTTPResponsePayload{}, backendErr("http.send_request", err)
	}
	resp.Headers = normalizeHeaders(resp.Headers)

	s.Rec.RecordHttpResponse(trace.HttpResponse{
		RequestMethod:  req.Method,
		RequestURL:     req.URL,
		RequestHeaders: toTraceHeaders(req.Headers),
		Status:         resp.Status,
		Headers:        toTraceHeaders(resp.Headers),
		Body:           resp.Body,
	})
	return resp, nil
}

// ReplayHTTP reads the next HttpResponse event and validates the guest's
// outgoing request matches what was recorded before synthesizing a response
// from the recorded status/headers/body (spec §4.5).
type ReplayHTTP struct {
	PB *playback.Playback
}

func (s *ReplayHTTP) SendRequest(ctx context.Context, req hostapi.HTTPRequest) (hostapi.HTTPResponsePayload, error) {
	req.Headers = normalizeHeaders(req.Headers)

	e, err := s.PB.NextHttpResponse()
	if err != nil {
		return hostapi.HTTPResponsePayload{}, err
	}

	if err := matchRequest(e, req); err != nil {
		return hostapi.HTTPResponsePayload{}, err
	}

	return hostapi.HTTPResponsePayload{
		Status:  e.Status,
		Headers: fromTraceHeaders(e.Headers),
		Body:    e.Body,
	}, nil
}

// matchRequest is the HTTP shim's replay-mode divergence check: an ordered
// sequence of named comparisons, stopping at (and reporting) the first
// mismatch. This is adapted from the "ordered list of named checks, return
// on first failure" shape of the teacher's internal/risk.Checker.Check —
// there it validates order size/value/price-band/position/volume in
// sequence; here it validates method/URL/headers.
func matchRequest(recorded trace.HttpResponse, got hostapi.HTTPRequest) error {
	if recorded.RequestMethod != got.Method {
		return &rrerr.HTTPRequestMismatch{Field: "method", Expected: recorded.RequestMethod, Got: got.Method}
	}
	if recorded.RequestURL != got.URL {
		return &rrerr.HTTPRequestMismatch{Field: "url", Expected: recorded.RequestURL, Got: got.URL}
	}

	gotHeaders := toTraceHeaders(got.Headers)
	if len(recorded.RequestHeaders) != len(gotHeaders) {
		return &rrerr.HTTPRequestMismatch{
			Field:    "headers",
			Expected: fmt.Sprintf("%d header(s)", len(recorded.RequestHeaders)),
			Got:      fmt.Sprintf("%d header(s)", len(gotHeaders)),
		}
	}
	for i, h := range recorded.RequestHeaders {
		if h != gotHeaders[i] {
			return &rrerr.HTTPRequestMismatch{
				Field:    "headers",
				Expected: fmt.Sprintf("%s: %s", h.Name, h.Value),
				Got:      fmt.Sprintf("%s: %s", gotHeaders[i].Name, gotHeaders[i].Value),
			}
		}
	}
	return nil
}

// normalizeHeaders materializes headers as a sorted sequence of
// (lowercase-name, value) pairs (spec §4.5, "Header normalization").
func normalizeHeaders(hdrs []hostapi.Header) []hostapi.Header {
	out := make([]trace.Header, len(hdrs))
	for i, h := range hdrs {
		out[i] = trace.Header{Name: lower(h.Name), Value: h.Value}
	}
	sorted := trace.SortHeaders(out)
	result := make([]hostapi.Header, len(sorted))
	for i, h := range sorted {
		result[i] = hostapi.Header{Name: h.Name, Value: h.Value}
	}
	return result
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func toTraceHeaders(hdrs []hostapi.Header) []trace.Header {
	out := make([]trace.Header, len(hdrs))
	for i, h := range hdrs {
		out[i] = trace.Header{Name: h.Name, Value: h.Value}
	}
	return out
}

func fromTraceHeaders(hdrs []trace.Header) []hostapi.Header {
	out := make([]hostapi.Header, len(hdrs))
	for i, h := range hdrs {
		out[i] = hostapi.Header{Name: h.Name, Value: h.Value}
	}
	return out
}
