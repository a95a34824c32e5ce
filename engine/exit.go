package engine

import (
	"errors"

	"github.com/tetratelabs/wazero/sys"
)

// exitStatus extracts the exit code when err came from the guest closing
// itself through the WASI exit syscall. wazero reports that as an
// ExitError even for code zero, since execution did not return normally.
func exitStatus(err error) (uint32, bool) {
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
