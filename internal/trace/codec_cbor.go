package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/xxh3"
)

// cborFrame wraps one encoded event with an xxh3 checksum over its payload
// bytes, the same "checksum each record to detect corruption" role
// internal/events/log.go gives crc32.ChecksumIEEE, swapped for the pack's
// faster non-cryptographic hash. Encoding the frame itself as one CBOR value
// keeps the format self-delimiting — decoding a frame still consumes exactly
// one value off the stream, so streaming/on-demand reads are unaffected.
type cborFrame struct {
	Sum     uint64 `cbor:"1,keyasint"`
	Payload []byte `cbor:"2,keyasint"`
}

// cborWriter implements the binary half of WriteBegin/WriteEvent/End (spec
// §4.2). Binary format concatenates self-delimiting binary-encoded values
// with no container framing, so unlike jsonWriter there is no opening or
// closing punctuation to write: WriteBegin just opens the file, End just
// flushes and closes.
type cborWriter struct {
	f     *os.File
	w     *bufio.Writer
	ended bool
}

func newCBORWriter(path string) (*cborWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &cborWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (w *cborWriter) writeEvent(e Event) error {
	wire, err := toWire(e)
	if err != nil {
		return err
	}
	payload, err := cbor.Marshal(wire)
	if err != nil {
		return fmt.Errorf("trace: cbor marshal event: %w", err)
	}
	frame := cborFrame{Sum: xxh3.Hash(payload), Payload: payload}
	buf, err := cbor.Marshal(frame)
	if err != nil {
		return fmt.Errorf("trace: cbor marshal frame: %w", err)
	}
	if _, err := w.w.Write(buf); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *cborWriter) end() error {
	if w.ended {
		return nil
	}
	w.ended = true
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// cborReader wraps a buffered file reader and deserializes on demand,
// keeping memory bounded on long traces (spec §4.2, §9 "Streaming vs.
// eager decoding"). cbor.Decoder tracks exactly where one encoded value
// ends and the next begins, which is what makes the format self-delimiting
// without an explicit length prefix or container.
type cborReader struct {
	f   *os.File
	dec *cbor.Decoder
}

func openCBORReader(path string) (*cborReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &cborReader{f: f, dec: cbor.NewDecoder(bufio.NewReader(f))}, nil
}

// readNext returns io.EOF for a clean end-of-stream and any other error for
// corrupt input, the distinction spec §4.2 requires of the binary reader.
func (r *cborReader) readNext() (Event, error) {
	var frame cborFrame
	if err := r.dec.Decode(&frame); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("trace: corrupt cbor trace: %w", err)
	}
	if xxh3.Hash(frame.Payload) != frame.Sum {
		return nil, fmt.Errorf("trace: corrupt cbor trace: checksum mismatch")
	}
	var wire wireEvent
	if err := cbor.Unmarshal(frame.Payload, &wire); err != nil {
		return nil, fmt.Errorf("trace: corrupt cbor trace: %w", err)
	}
	return wire.toEvent()
}

func (r *cborReader) close() error {
	return r.f.Close()
}
