package harness

import (
	"errors"
	"fmt"
)

var errMissingEntrypoint = errors.New("guest module has no \"run\" export")

func errInvalidMode(m Mode) error {
	return fmt.Errorf("harness: invalid mode %d", int(m))
}
