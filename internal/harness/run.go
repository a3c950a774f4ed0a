package harness

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/rishav/wasm-rr/internal/rrerr"
)

// entrypoint is the export the harness invokes after instantiation, the
// component-model equivalent of a WASI command's `_start` (spec §4.6).
const entrypoint = "run"

// Run drives one full record-or-replay lifecycle: instantiate the runtime,
// bind the shim layer, run the guest to completion, flush the trace (record)
// or check for unused events (replay), and classify the guest's exit.
//
// Two kinds of non-nil return are worth telling apart on the caller side: a
// setup or replay-divergence problem (*rrerr.Setup, *rrerr.Divergence, or a
// subtype), versus an explicit guest exit (*rrerr.ProcessExit) the guest
// raised via exit(code) — including exit(0), which is not itself a failure.
// A guest that returns from run without calling exit produces a nil error.
func Run(ctx context.Context, cfg Config) error {
	runID := uuid.New().String()
	logger := cfg.logger()
	logger.Printf("wasm-rr run %s: mode=%s wasm=%s", runID, cfg.Mode, cfg.WasmPath)

	sess, err := newSession(cfg)
	if err != nil {
		return &rrerr.Setup{Op: "open trace", Err: err}
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return &rrerr.Setup{Op: "instantiate WASI preview1", Err: err}
	}

	ic := buildInterceptors(cfg, sess)
	if _, err := bindHostModule(ctx, rt, ic.wallClock, ic.monotonicClock, ic.environment, ic.random, ic.insecureRandom, ic.httpClient, ic.stream, ic.exiter); err != nil {
		return &rrerr.Setup{Op: "bind host module", Err: err}
	}

	wasmBytes, err := os.ReadFile(cfg.WasmPath)
	if err != nil {
		return &rrerr.Setup{Op: "read wasm binary", Err: err}
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return &rrerr.Setup{Op: "compile wasm module", Err: err}
	}

	modCfg := wazero.NewModuleConfig().
		WithArgs(append([]string{cfg.WasmPath}, cfg.Args...)...).
		WithStdout(os.Stdout).
		WithStderr(os.Stderr).
		WithStartFunctions() // no implicit _start; the harness calls run explicitly below

	mod, instErr := rt.InstantiateModule(ctx, compiled, modCfg)

	var callErr error
	if instErr == nil {
		fn := mod.ExportedFunction(entrypoint)
		if fn == nil {
			callErr = &rrerr.Setup{Op: "look up guest entrypoint", Err: errMissingEntrypoint}
		} else {
			_, callErr = fn.Call(ctx)
		}
	}

	exitErr := classifyExit(instErr)
	if exitErr == nil {
		exitErr = classifyExit(callErr)
	}

	var finishErr error
	if sess.rec != nil {
		finishErr = sess.rec.Save()
	} else {
		finishErr = sess.pb.Finish()
	}

	if mod != nil {
		_ = mod.Close(ctx)
	}

	if exitErr == nil {
		if instErr != nil {
			return &rrerr.Setup{Op: "instantiate guest module", Err: instErr}
		}
		if callErr != nil {
			return &rrerr.Setup{Op: "run guest entrypoint", Err: callErr}
		}
	}
	if finishErr != nil {
		logger.Printf("wasm-rr run %s: finish error: %v", runID, finishErr)
		return finishErr
	}
	logger.Printf("wasm-rr run %s: done, exit=%v", runID, exitErr)
	return exitErr
}

// classifyExit maps wazero's sys.ExitError to rrerr.ProcessExit (spec §4.6
// step 6, §7 taxonomy item 6). For any other error, from instantiation or
// from the entrypoint call, it returns nil and leaves the error for the
// caller to wrap as a setup failure.
func classifyExit(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		return &rrerr.ProcessExit{Code: int32(exitErr.ExitCode())}
	}
	return nil
}
