package harness

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/shim"
)

// hostModuleName is the import module name the guest resolves host calls
// against. Real component-model interfaces are namespaced per-WIT-package;
// this harness collapses all six intercepted interfaces into one module,
// dispatching by export name, the same way the shim layer collapses record
// and replay behind one Go interface per call site.
const hostModuleName = "wasm-rr:host"

// wallClockLike is satisfied by the wall-clock shim pair, and
// monotonicClockLike by the monotonic-clock shim pair.
type wallClockLike interface {
	Now() (uint64, uint32, error)
	Resolution() (uint64, uint32, error)
}

type monotonicClockLike interface {
	Now() (uint64, error)
	Resolution() (uint64, error)
}

// bindHostModule registers every intercepted host call as a Go-backed
// function on hostModuleName, then instantiates it. Byte payloads cross the
// guest/host boundary through guest linear memory, following the same
// read-then-validate shape as wazero's own WASI preview1 bindings (argument
// pointers in, result written back through mod.Memory()).
func bindHostModule(ctx context.Context, rt wazero.Runtime, wc wallClockLike, mc monotonicClockLike, env hostapi.Environment, rnd hostapi.Random, irnd hostapi.InsecureRandom, http hostapi.HTTPClient, stream hostapi.StreamBackend, exiter hostapi.ProcessExiter) (api.Closer, error) {
	b := rt.NewHostModuleBuilder(hostModuleName)

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, resultPtr uint32) uint32 {
			sec, ns, err := wc.Now()
			if err != nil {
				return 1
			}
			return writeClockResult(mod, resultPtr, sec, ns)
		}).
		Export("wall_clock_now")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, resultPtr uint32) uint32 {
			sec, ns, err := wc.Resolution()
			if err != nil {
				return 1
			}
			return writeClockResult(mod, resultPtr, sec, ns)
		}).
		Export("wall_clock_resolution")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, resultPtr uint32) uint32 {
			ns, err := mc.Now()
			if err != nil {
				return 1
			}
			return writeU64Result(mod, resultPtr, ns)
		}).
		Export("monotonic_clock_now")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, resultPtr uint32) uint32 {
			ns, err := mc.Resolution()
			if err != nil {
				return 1
			}
			return writeU64Result(mod, resultPtr, ns)
		}).
		Export("monotonic_clock_resolution")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, n uint32, dataPtr uint32) uint32 {
			data, err := rnd.GetRandomBytes(int(n))
			if err != nil {
				return 1
			}
			return writeBytesResult(mod, dataPtr, data)
		}).
		Export("random_get_random_bytes")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, resultPtr uint32) uint32 {
			v, err := rnd.GetRandomU64()
			if err != nil {
				return 1
			}
			return writeU64Result(mod, resultPtr, v)
		}).
		Export("random_get_random_u64")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, n uint32, dataPtr uint32) uint32 {
			data, err := irnd.GetInsecureRandomBytes(int(n))
			if err != nil {
				return 1
			}
			return writeBytesResult(mod, dataPtr, data)
		}).
		Export("random_insecure_get_insecure_random_bytes")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, resultPtr uint32) uint32 {
			v, err := irnd.GetInsecureRandomU64()
			if err != nil {
				return 1
			}
			return writeU64Result(mod, resultPtr, v)
		}).
		Export("random_insecure_get_insecure_random_u64")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, resultPtr uint32) uint32 {
			lo, hi, err := irnd.InsecureSeed()
			if err != nil {
				return 1
			}
			if !mod.Memory().WriteUint64Le(resultPtr, lo) || !mod.Memory().WriteUint64Le(resultPtr+8, hi) {
				return 1
			}
			return 0
		}).
		Export("random_insecure_seed")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, n uint32, dataPtr uint32, eofPtr uint32) uint32 {
			data, eof, err := stream.Read(int(n))
			if err != nil {
				return 1
			}
			if !writeBytesOK(mod, dataPtr, data) {
				return 1
			}
			eofByte := byte(0)
			if eof {
				eofByte = 1
			}
			if !mod.Memory().WriteByte(eofPtr, eofByte) {
				return 1
			}
			return 0
		}).
		Export("stream_read")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, code uint32) {
			_ = exiter.Exit(int32(code))
		}).
		Export("proc_exit")

	// Structured payloads (string lists, header lists, HTTP requests) cross
	// the boundary JSON-encoded rather than via a hand-rolled record layout;
	// WIT's own ABI for these shapes is out of scope for a harness that
	// never actually lowers/lifts canonical ABI values (spec §1 "host-side
	// canonical ABI lifting/lowering... out of scope").
	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, capacity, bufPtr, resultLenPtr uint32) uint32 {
			vars, err := env.GetEnvironment()
			if err != nil {
				return 1
			}
			payload, err := json.Marshal(vars)
			if err != nil {
				return 1
			}
			return writeSizedResult(mod, capacity, bufPtr, resultLenPtr, payload)
		}).
		Export("environment_get_environment")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, capacity, bufPtr, resultLenPtr uint32) uint32 {
			args, err := env.GetArguments()
			if err != nil {
				return 1
			}
			payload, err := json.Marshal(args)
			if err != nil {
				return 1
			}
			return writeSizedResult(mod, capacity, bufPtr, resultLenPtr, payload)
		}).
		Export("environment_get_arguments")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, capacity, bufPtr, resultLenPtr, presentPtr uint32) uint32 {
			cwd, err := env.InitialCwd()
			if err != nil {
				return 1
			}
			if cwd == nil {
				if !mod.Memory().WriteByte(presentPtr, 0) {
					return 1
				}
				return 0
			}
			if !mod.Memory().WriteByte(presentPtr, 1) {
				return 1
			}
			return writeSizedResult(mod, capacity, bufPtr, resultLenPtr, []byte(*cwd))
		}).
		Export("environment_initial_cwd")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, methodPtr, methodLen, urlPtr, urlLen, headersPtr, headersLen, capacity, bufPtr, resultLenPtr uint32) uint32 {
			method, ok := mod.Memory().Read(methodPtr, methodLen)
			if !ok {
				return 1
			}
			url, ok := mod.Memory().Read(urlPtr, urlLen)
			if !ok {
				return 1
			}
			headersJSON, ok := mod.Memory().Read(headersPtr, headersLen)
			if !ok {
				return 1
			}
			var headers []hostapi.Header
			if err := json.Unmarshal(headersJSON, &headers); err != nil {
				return 1
			}

			resp, err := http.SendRequest(ctx, hostapi.HTTPRequest{
				Method:  string(method),
				URL:     string(url),
				Headers: headers,
			})
			if err != nil {
				return 1
			}
			payload, err := json.Marshal(resp)
			if err != nil {
				return 1
			}
			return writeSizedResult(mod, capacity, bufPtr, resultLenPtr, payload)
		}).
		Export("http_send_request")

	inst, err := b.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func writeClockResult(mod api.Module, ptr uint32, sec uint64, ns uint32) uint32 {
	if !mod.Memory().WriteUint64Le(ptr, sec) || !mod.Memory().WriteUint32Le(ptr+8, ns) {
		return 1
	}
	return 0
}

func writeU64Result(mod api.Module, ptr uint32, v uint64) uint32 {
	if !mod.Memory().WriteUint64Le(ptr, v) {
		return 1
	}
	return 0
}

func writeBytesResult(mod api.Module, ptr uint32, data []byte) uint32 {
	if !writeBytesOK(mod, ptr, data) {
		return 1
	}
	return 0
}

func writeBytesOK(mod api.Module, ptr uint32, data []byte) bool {
	return mod.Memory().Write(ptr, data)
}

// writeSizedResult always writes the full payload length to resultLenPtr,
// then writes the payload to bufPtr only if it fits in capacity. If it does
// not fit, nothing is written to bufPtr and errCode 2 is returned, so a guest
// whose buffer was too small can reallocate and retry instead of faulting.
func writeSizedResult(mod api.Module, capacity, bufPtr, resultLenPtr uint32, payload []byte) uint32 {
	if !mod.Memory().WriteUint32Le(resultLenPtr, uint32(len(payload))) {
		return 1
	}
	if uint32(len(payload)) > capacity {
		return 2
	}
	if len(payload) > 0 && !mod.Memory().Write(bufPtr, payload) {
		return 1
	}
	return 0
}

// shimInterceptors builds the shim-backed implementations for the active
// session, selecting record- or replay-mode per call site (spec §4.5,
// §9 "Dual-mode interface implementation").
type shimInterceptors struct {
	wallClock      wallClockLike
	monotonicClock monotonicClockLike
	environment    hostapi.Environment
	random         hostapi.Random
	insecureRandom hostapi.InsecureRandom
	httpClient     hostapi.HTTPClient
	stream         hostapi.StreamBackend
	exiter         hostapi.ProcessExiter
}

func buildInterceptors(cfg Config, s *session) shimInterceptors {
	if s.rec != nil {
		return shimInterceptors{
			wallClock:      &shim.RecordWallClock{Backend: cfg.Backends.WallClock, Rec: s.rec},
			monotonicClock: &shim.RecordMonotonicClock{Backend: cfg.Backends.MonotonicClock, Rec: s.rec},
			environment:    &shim.RecordEnvironment{Backend: cfg.Backends.Environment, Rec: s.rec},
			random:         &shim.RecordRandom{Backend: cfg.Backends.Random, Rec: s.rec},
			insecureRandom: &shim.RecordInsecureRandom{Backend: cfg.Backends.InsecureRandom, Rec: s.rec},
			httpClient:     &shim.RecordHTTP{Backend: cfg.Backends.HTTPClient, Rec: s.rec},
			stream:         &shim.RecordStream{Backend: cfg.Backends.Stream, Rec: s.rec},
			exiter:         &shim.RecordExit{Backend: cfg.Backends.ProcessExiter, Rec: s.rec},
		}
	}
	return shimInterceptors{
		wallClock:      &shim.ReplayWallClock{PB: s.pb},
		monotonicClock: &shim.ReplayMonotonicClock{PB: s.pb},
		environment:    &shim.ReplayEnvironment{PB: s.pb},
		random:         &shim.ReplayRandom{PB: s.pb},
		insecureRandom: &shim.ReplayInsecureRandom{PB: s.pb},
		httpClient:     &shim.ReplayHTTP{PB: s.pb},
		stream:         &shim.ReplayStream{Backend: cfg.Backends.Stream, PB: s.pb},
		exiter:         &shim.ReplayExit{Backend: cfg.Backends.ProcessExiter, PB: s.pb},
	}
}
