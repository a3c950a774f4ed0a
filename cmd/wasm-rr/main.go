// Package main is the wasm-rr command-line entrypoint: record, replay, and
// convert subcommands dispatched the same way cmd/client/main.go dispatches
// submit/cancel/book/account/stats — one flag.NewFlagSet per subcommand,
// switched on os.Args[1].
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rishav/wasm-rr/internal/harness"
	"github.com/rishav/wasm-rr/internal/osbackend"
	"github.com/rishav/wasm-rr/internal/rrerr"
	"github.com/rishav/wasm-rr/internal/trace"
)

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}

const defaultTracePath = "wasm-rr-trace.json"

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "record":
		err = runRecord(logger, os.Args[2:])
	case "replay":
		err = runReplay(logger, os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}

	if err == nil {
		return
	}

	var exit *rrerr.ProcessExit
	if errors.As(err, &exit) {
		logger.Printf("guest exited with code %d", exit.Code)
		os.Exit(int(exit.Code))
	}

	logger.Printf("error: %v", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`wasm-rr - deterministic record/replay for WebAssembly components

Usage:
  wasm-rr <command> [options]

Commands:
  record   Run a guest against live backends and capture a trace
  replay   Re-run a guest against a previously captured trace
  convert  Convert a trace between the json and cbor encodings

Examples:
  wasm-rr record -trace out.json guest.wasm -- alpha beta
  wasm-rr replay guest.wasm out.json
  wasm-rr convert in.json out.cbor`)
}

func runRecord(logger *log.Logger, argv []string) error {
	fs := newFlagSet("record")
	tracePath := fs.String("trace", defaultTracePath, "trace output path")
	tracePathShort := fs.String("t", "", "trace output path (shorthand)")
	format := fs.String("format", "", "trace format: json or cbor")
	formatShort := fs.String("f", "", "trace format (shorthand)")

	wasmPath, guestArgs, err := parseCommandLine(fs, argv)
	if err != nil {
		return err
	}

	path := firstNonEmpty(*tracePathShort, *tracePath, defaultTracePath)
	fmtStr := firstNonEmpty(*formatShort, *format)
	fo, err := trace.InferFormat(path, fmtStr)
	if err != nil {
		return &rrerr.Setup{Op: "infer trace format", Err: err}
	}

	cfg := harness.Config{
		WasmPath:    wasmPath,
		Args:        guestArgs,
		Mode:        harness.ModeRecord,
		TracePath:   path,
		TraceFormat: fo,
		Logger:      logger,
		Backends:    liveBackends(wasmPath, guestArgs),
	}
	return harness.Run(context.Background(), cfg)
}

func runReplay(logger *log.Logger, argv []string) error {
	fs := newFlagSet("replay")
	format := fs.String("format", "", "trace format: json or cbor")
	formatShort := fs.String("f", "", "trace format (shorthand)")

	if err := fs.Parse(argv); err != nil {
		return &rrerr.Setup{Op: "parse replay flags", Err: err}
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return &rrerr.Setup{Op: "parse replay flags", Err: errors.New("usage: wasm-rr replay <wasm> [<trace>]")}
	}

	wasmPath := rest[0]
	path := defaultTracePath
	if len(rest) >= 2 {
		path = rest[1]
	}

	fmtStr := firstNonEmpty(*formatShort, *format)
	fo, err := trace.InferFormat(path, fmtStr)
	if err != nil {
		return &rrerr.Setup{Op: "infer trace format", Err: err}
	}

	cfg := harness.Config{
		WasmPath:    wasmPath,
		Mode:        harness.ModeReplay,
		TracePath:   path,
		TraceFormat: fo,
		Logger:      logger,
		Backends:    replayBackends(),
	}
	return harness.Run(context.Background(), cfg)
}

func runConvert(argv []string) error {
	fs := newFlagSet("convert")
	inputFormat := fs.String("input-format", "", "source format: json or cbor")
	outputFormat := fs.String("output-format", "", "destination format: json or cbor")

	if err := fs.Parse(argv); err != nil {
		return &rrerr.Setup{Op: "parse convert flags", Err: err}
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return &rrerr.Setup{Op: "parse convert flags", Err: errors.New("usage: wasm-rr convert <input> <output>")}
	}

	srcFmt, err := trace.InferFormat(rest[0], *inputFormat)
	if err != nil {
		return &rrerr.Setup{Op: "infer source format", Err: err}
	}
	dstFmt, err := trace.InferFormat(rest[1], *outputFormat)
	if err != nil {
		return &rrerr.Setup{Op: "infer destination format", Err: err}
	}
	return trace.Convert(rest[0], srcFmt, rest[1], dstFmt)
}

// liveBackends wires osbackend's real implementations for record mode. The
// guest's argv[0] is the wasm file's basename (spec §6.1), followed by
// whatever args came after "--".
func liveBackends(wasmPath string, guestArgs []string) harness.Backends {
	argv := append([]string{filepath.Base(wasmPath)}, guestArgs...)
	return harness.Backends{
		WallClock:      osbackend.WallClock{},
		MonotonicClock: osbackend.MonotonicClock{},
		Environment:    osbackend.Environment{Args: argv},
		Random:         osbackend.Random{},
		InsecureRandom: osbackend.NewInsecureRandom(1),
		HTTPClient:     osbackend.HTTPClient{},
		Stream:         osbackend.Stream{R: os.Stdin},
		ProcessExiter:  osbackend.ProcessExiter{},
	}
}

// replayBackends supplies only what replay mode actually calls through to: a
// stream backend (Read's bytes are not captured, spec §9) and the
// process-exit trap. Everything else is read from the trace and never
// touches these fields.
func replayBackends() harness.Backends {
	return harness.Backends{
		Stream:        osbackend.Stream{R: os.Stdin},
		ProcessExiter: osbackend.ProcessExiter{},
	}
}

// parseCommandLine splits argv into wasm-rr's own flags, the wasm path, and
// guest arguments after a literal "--" (spec §6.1). Flags must precede the
// wasm path: the standard flag package stops parsing at the first
// non-flag token, so `-trace out.json guest.wasm` parses but
// `guest.wasm -trace out.json` would not.
func parseCommandLine(fs *flag.FlagSet, argv []string) (wasmPath string, guestArgs []string, err error) {
	ownArgs := argv
	var tail []string
	for i, a := range argv {
		if a == "--" {
			ownArgs = argv[:i]
			tail = argv[i+1:]
			break
		}
	}

	if parseErr := fs.Parse(ownArgs); parseErr != nil {
		return "", nil, &rrerr.Setup{Op: "parse record flags", Err: parseErr}
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return "", nil, &rrerr.Setup{Op: "parse record flags", Err: errors.New("usage: wasm-rr record [flags] <wasm> [-- <args>...]")}
	}
	return rest[0], tail, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
