package qnn

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// outputLockName is created in the output directory while a session owns it,
// so two processes never write the same Result_* artifacts.
const outputLockName = ".qnn-session.lock"

var errOutputDirBusy = errors.New("output directory is in use by another session")

type outputLock struct {
	path string
	file *os.File
}

func acquireOutputLock(dir string) (*outputLock, error) {
	path := filepath.Join(dir, outputLockName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %q: %w", path, err)
	}
	if err := tryLockOutput(file); err != nil {
		_ = file.Close()
		if errors.Is(err, errOutputDirBusy) {
			return nil, fmt.Errorf("%w: %s", errOutputDirBusy, dir)
		}
		return nil, fmt.Errorf("failed to acquire lock %q: %w", path, err)
	}
	return &outputLock{path: path, file: file}, nil
}

func (l *outputLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockOutput(l.file)
	closeErr := l.file.Close()
	l.file = nil
	return errors.Join(unlockErr, closeErr)
}
