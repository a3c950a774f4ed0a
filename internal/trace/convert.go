package trace

import (
	"errors"
	"fmt"
	"io"
)

// Convert reads every event from srcPath (in srcFmt) and writes them, in the
// same order, to dstPath (in dstFmt). It is the operation behind the
// `convert` subcommand and the round-trip-purity property in spec §8:
// decode(e2)(convert(encode(e1)(T), e1->e2)) == T.
func Convert(srcPath string, srcFmt Format, dstPath string, dstFmt Format) error {
	r, err := OpenReader(srcPath, srcFmt)
	if err != nil {
		return fmt.Errorf("trace: open %q for conversion: %w", srcPath, err)
	}
	defer r.Close()

	w, err := WriteBegin(dstPath, dstFmt)
	if err != nil {
		return fmt.Errorf("trace: create %q for conversion: %w", dstPath, err)
	}

	for {
		evt, err := r.ReadNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("trace: read %q: %w", srcPath, err)
		}
		if err := w.WriteEvent(evt); err != nil {
			return fmt.Errorf("trace: write %q: %w", dstPath, err)
		}
	}

	if err := w.End(); err != nil {
		return fmt.Errorf("trace: finalize %q: %w", dstPath, err)
	}
	return nil
}
