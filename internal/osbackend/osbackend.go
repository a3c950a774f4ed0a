// Package osbackend supplies the real-world implementations of the
// internal/hostapi contracts: the actual wall clock, OS environment, a CSPRNG
// and a non-cryptographic RNG, a net/http client, stdin as the default
// stream, and the runtime's own exit trap. These are what the run harness
// wires in record mode (spec §4.5); replay mode never touches them except
// for Stream, whose bytes are not captured in the trace, and ProcessExiter,
// since exiting the guest is not itself something a trace can replay, only
// something it can confirm happened (spec §4.6).
package osbackend

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"
	mrand "math/rand"
	"net/http"
	"os"
	"time"

	"github.com/tetratelabs/wazero/sys"

	"github.com/rishav/wasm-rr/internal/hostapi"
)

// WallClock reads the real wall-clock time.
type WallClock struct{}

func (WallClock) Now() (uint64, uint32, error) {
	now := time.Now()
	return uint64(now.Unix()), uint32(now.Nanosecond()), nil
}

func (WallClock) Resolution() (uint64, uint32, error) {
	return 0, 1000, nil // most platforms report microsecond wall-clock resolution
}

// bootTime anchors MonotonicClock.Now so repeated calls within one process
// report never-decreasing nanosecond offsets, matching the
// monotonic_clock interface's "since an arbitrary, unspecified epoch"
// contract.
var bootTime = time.Now()

// MonotonicClock reads Go's monotonic clock reading via time.Since, which
// never observes NTP/wall-clock adjustments.
type MonotonicClock struct{}

func (MonotonicClock) Now() (uint64, error) {
	return uint64(time.Since(bootTime).Nanoseconds()), nil
}

func (MonotonicClock) Resolution() (uint64, error) {
	return 1, nil
}

// Environment exposes the host process's real environment and arguments.
type Environment struct {
	// Args overrides os.Args[1:] when non-nil, letting the CLI forward the
	// guest's own argv separately from wasm-rr's own flags.
	Args []string
}

func (e Environment) GetEnvironment() ([]hostapi.EnvVar, error) {
	raw := os.Environ()
	out := make([]hostapi.EnvVar, 0, len(raw))
	for _, kv := range raw {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out = append(out, hostapi.EnvVar{Name: kv[:i], Value: kv[i+1:]})
				break
			}
		}
	}
	return out, nil
}

func (e Environment) GetArguments() ([]string, error) {
	if e.Args != nil {
		return e.Args, nil
	}
	return os.Args[1:], nil
}

func (e Environment) InitialCwd() (*string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &cwd, nil
}

// Random is backed by crypto/rand, the CSPRNG the component-model
// random.get_random_bytes/get_random_u64 interface requires.
type Random struct{}

func (Random) GetRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (Random) GetRandomU64() (uint64, error) {
	max := new(big.Int).Lsh(big.NewInt(1), 64)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// InsecureRandom is backed by math/rand, matching the component-model
// contract that random.insecure.* need not be cryptographically strong.
type InsecureRandom struct {
	src *mrand.Rand
}

// NewInsecureRandom seeds a dedicated source so concurrent harness runs
// don't share math/rand's global lock.
func NewInsecureRandom(seed int64) *InsecureRandom {
	return &InsecureRandom{src: mrand.New(mrand.NewSource(seed))}
}

func (r *InsecureRandom) GetInsecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	r.src.Read(b) //nolint:errcheck // math/rand.Rand.Read never errors
	return b, nil
}

func (r *InsecureRandom) GetInsecureRandomU64() (uint64, error) {
	return r.src.Uint64(), nil
}

func (r *InsecureRandom) InsecureSeed() (uint64, uint64, error) {
	return r.src.Uint64(), r.src.Uint64(), nil
}

// HTTPClient sends requests with the standard library's default transport.
type HTTPClient struct {
	Client *http.Client
}

func (c HTTPClient) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c HTTPClient) SendRequest(ctx context.Context, req hostapi.HTTPRequest) (hostapi.HTTPResponsePayload, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return hostapi.HTTPResponsePayload{}, err
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}

	resp, err := c.client().Do(httpReq)
	if err != nil {
		return hostapi.HTTPResponsePayload{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return hostapi.HTTPResponsePayload{}, err
	}

	headers := make([]hostapi.Header, 0, len(resp.Header))
	for name, values := range resp.Header {
		for _, v := range values {
			headers = append(headers, hostapi.Header{Name: name, Value: v})
		}
	}

	return hostapi.HTTPResponsePayload{
		Status:  uint16(resp.StatusCode),
		Headers: headers,
		Body:    body,
	}, nil
}

// Stream wraps an io.Reader (typically os.Stdin or an opened file) as the
// backend for stream/file read.
type Stream struct {
	R io.Reader
}

func (s Stream) Read(n int) ([]byte, bool, error) {
	buf := make([]byte, n)
	read, err := s.R.Read(buf)
	if err == io.EOF {
		return buf[:read], true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return buf[:read], false, nil
}

// ProcessExiter raises wazero's own exit trap so the harness's exit
// classification (harness.classifyExit) sees the same *sys.ExitError shape
// whether the guest trapped on its own or was routed through this shim.
type ProcessExiter struct{}

func (ProcessExiter) Exit(code int32) error {
	panic(sys.NewExitError(uint32(code)))
}
