package trace

import "fmt"

// Writer is the handle returned by WriteBegin and consumed by WriteEvent/End
// (spec §4.2). It hides which of the two encodings is in play behind one
// shared type, the way the teacher's events.EventLog hides its gob encoder
// behind a single Append method regardless of payload type.
type Writer struct {
	format Format
	json   *jsonWriter
	cbor   *cborWriter
}

// WriteBegin creates the trace file at path in the given format. For text
// format this emits the container prefix `{"events":[`.
func WriteBegin(path string, format Format) (*Writer, error) {
	switch format {
	case FormatJSON:
		jw, err := newJSONWriter(path)
		if err != nil {
			return nil, err
		}
		return &Writer{format: format, json: jw}, nil
	case FormatCBOR:
		cw, err := newCBORWriter(path)
		if err != nil {
			return nil, err
		}
		return &Writer{format: format, cbor: cw}, nil
	default:
		return nil, fmt.Errorf("trace: unsupported format %q", format)
	}
}

// WriteEvent appends one event. Each call is flushed before returning (spec
// §4.2).
func (w *Writer) WriteEvent(e Event) error {
	if w.json != nil {
		return w.json.writeEvent(e)
	}
	return w.cbor.writeEvent(e)
}

// End finalizes the trace file: text format emits the closing `]}`, binary
// format just flushes. Both close the underlying file.
func (w *Writer) End() error {
	if w.json != nil {
		return w.json.end()
	}
	return w.cbor.end()
}

// Reader yields events one at a time from an open trace file, in either
// encoding.
type Reader interface {
	// ReadNext returns the next event, or io.EOF when the stream is
	// exhausted. Any non-EOF error means the input is corrupt.
	ReadNext() (Event, error)
	Close() error
}

type jsonReaderHandle struct{ r *jsonReader }

func (h *jsonReaderHandle) ReadNext() (Event, error) { return h.r.readNext() }
func (h *jsonReaderHandle) Close() error              { return nil }

type cborReaderHandle struct{ r *cborReader }

func (h *cborReaderHandle) ReadNext() (Event, error) { return h.r.readNext() }
func (h *cborReaderHandle) Close() error              { return h.r.close() }

// OpenReader opens path for reading in the given format. For text, the
// entire container is parsed eagerly; for binary, a buffered streaming
// reader is returned (spec §4.2).
func OpenReader(path string, format Format) (Reader, error) {
	switch format {
	case FormatJSON:
		r, err := openJSONReader(path)
		if err != nil {
			return nil, err
		}
		return &jsonReaderHandle{r: r}, nil
	case FormatCBOR:
		r, err := openCBORReader(path)
		if err != nil {
			return nil, err
		}
		return &cborReaderHandle{r: r}, nil
	default:
		return nil, fmt.Errorf("trace: unsupported format %q", format)
	}
}
