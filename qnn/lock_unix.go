//go:build !windows

package qnn

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// tryLockOutput takes a non-blocking exclusive flock on the output lock file.
// Contention with another session is reported as errOutputDirBusy.
func tryLockOutput(file *os.File) error {
	err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
		return errOutputDirBusy
	}
	if err != nil {
		return fmt.Errorf("flock %s: %w", file.Name(), err)
	}
	return nil
}

func unlockOutput(file *os.File) error {
	if err := unix.Flock(int(file.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("unlock %s: %w", file.Name(), err)
	}
	return nil
}
