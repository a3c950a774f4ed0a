package shim

import "github.com/rishav/wasm-rr/internal/rrerr"

// backendErr wraps a real-backend failure during recording. Per spec §4.5,
// "Failure semantics of shims": a backend error is returned to the guest
// unchanged and is never recorded — only successful calls are captured.
func backendErr(iface string, err error) error {
	return &rrerr.Backend{Interface: iface, Err: err}
}
