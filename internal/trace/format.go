package trace

import (
	"fmt"
	"strings"
)

// Format identifies one of the two on-disk trace encodings (spec §4.2).
type Format string

const (
	// FormatJSON is the pretty-text encoding: a single JSON object
	// {"events":[...]}, human-diffable, loaded eagerly.
	FormatJSON Format = "json"

	// FormatCBOR is the streaming-binary encoding: a bare concatenation of
	// self-delimiting CBOR values, no container framing, read/written
	// incrementally.
	FormatCBOR Format = "cbor"
)

func (f Format) String() string { return string(f) }

// ParseFormat validates an explicit --format/-f flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCBOR:
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("unknown trace format %q (want %q or %q)", s, FormatJSON, FormatCBOR)
	}
}

// InferFormat resolves the format to use for path. If explicit is non-empty
// it wins (after validation). Otherwise the format is inferred from path's
// extension. If neither yields a usable format, InferFormat fails — spec
// §4.2, "Format inference."
func InferFormat(path string, explicit string) (Format, error) {
	if explicit != "" {
		return ParseFormat(explicit)
	}

	switch {
	case strings.HasSuffix(path, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(path, ".cbor"):
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("cannot infer trace format from path %q: pass --format json|cbor", path)
	}
}
