//go:build windows

package qnn

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// tryLockOutput locks the first byte of the output lock file without waiting.
// Contention with another session is reported as errOutputDirBusy.
func tryLockOutput(file *os.File) error {
	var overlapped windows.Overlapped
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
	err := windows.LockFileEx(windows.Handle(file.Fd()), flags, 0, 1, 0, &overlapped)
	if errors.Is(err, windows.ERROR_LOCK_VIOLATION) || errors.Is(err, windows.ERROR_SHARING_VIOLATION) {
		return errOutputDirBusy
	}
	if err != nil {
		return fmt.Errorf("LockFileEx %s: %w", file.Name(), err)
	}
	return nil
}

func unlockOutput(file *os.File) error {
	var overlapped windows.Overlapped
	if err := windows.UnlockFileEx(windows.Handle(file.Fd()), 0, 1, 0, &overlapped); err != nil {
		return fmt.Errorf("UnlockFileEx %s: %w", file.Name(), err)
	}
	return nil
}
