package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// jsonContainer is the on-disk shape of the text encoding: a single object
// {"events":[...]} (spec §6.3).
type jsonContainer struct {
	Events []json.RawMessage `json:"events"`
}

// jsonWriter implements the text half of WriteBegin/WriteEvent/End (spec
// §4.2). It does not buffer whole events in memory across calls — each
// WriteEvent call appends directly and flushes — but, unlike the CBOR
// writer, the *reader* side must load the whole container eagerly because
// JSON's closing "]}" makes the file a single value.
type jsonWriter struct {
	f       *os.File
	w       *bufio.Writer
	wrote   bool // true once at least one event has been written
	ended   bool
}

func newJSONWriter(path string) (*jsonWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &jsonWriter{f: f, w: bufio.NewWriter(f)}
	if _, err := w.w.WriteString(`{"events":[` + "\n"); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.w.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *jsonWriter) writeEvent(e Event) error {
	wire, err := toWire(e)
	if err != nil {
		return err
	}
	wire.hexEncodeBytePayloads()

	buf, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("trace: marshal event: %w", err)
	}

	if w.wrote {
		if _, err := w.w.WriteString(",\n"); err != nil {
			return err
		}
	}
	w.wrote = true

	if _, err := w.w.Write(buf); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *jsonWriter) end() error {
	if w.ended {
		return nil
	}
	w.ended = true
	if _, err := w.w.WriteString("\n]}"); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// jsonReader loads the entire container eagerly, tolerating a trace file
// whose trailing "\n]}" is missing because the recorder never called Save
// before the process died (spec §4.3: "the text encoding requires
// close-bracket repair on load").
type jsonReader struct {
	events []Event
	pos    int
}

func openJSONReader(path string) (*jsonReader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw = repairJSONContainer(raw)

	var container jsonContainer
	if err := json.Unmarshal(raw, &container); err != nil {
		return nil, fmt.Errorf("trace: corrupt json trace: %w", err)
	}

	events := make([]Event, 0, len(container.Events))
	for _, rawEvt := range container.Events {
		var wire wireEvent
		if err := json.Unmarshal(rawEvt, &wire); err != nil {
			return nil, fmt.Errorf("trace: corrupt json event: %w", err)
		}
		if err := wire.hexDecodeBytePayloads(); err != nil {
			return nil, err
		}
		evt, err := wire.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return &jsonReader{events: events}, nil
}

// repairJSONContainer appends the closing "\n]}" if it's missing, after
// trimming trailing whitespace and any trailing commas. The writer flushes
// after every event, so a crash between events leaves a complete prefix of
// events that this repair makes loadable. A final event that was only
// partly written is not repaired; the load then fails as corrupt input.
func repairJSONContainer(raw []byte) []byte {
	trimmed := bytes.TrimRight(raw, " \t\r\n")
	if bytes.HasSuffix(trimmed, []byte("]}")) {
		return trimmed
	}
	trimmed = bytes.TrimRight(trimmed, ",")
	return append(trimmed, []byte("\n]}")...)
}

func (r *jsonReader) readNext() (Event, error) {
	if r.pos >= len(r.events) {
		return nil, io.EOF
	}
	e := r.events[r.pos]
	r.pos++
	return e, nil
}

