package qnn

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// Dynamic linker primitives; replaced in tests.
var (
	openLibraryFunc  = loadLibrary
	lookupSymbolFunc = getSymbol
	closeLibraryFunc = closeLibrary
)

// Backend and model libraries are process-global, so at most one set is
// loaded at a time.
var (
	registryMu    sync.Mutex
	backendLoaded bool
)

// Library owns the process-wide handles of a loaded backend and, when the
// model is not embedded in the backend, its model library.
type Library struct {
	mu          sync.Mutex
	backendPath string
	modelPath   string
	backend     uintptr
	model       uintptr
}

// BackendPath returns the path the backend was loaded from.
func (l *Library) BackendPath() string { return l.backendPath }

// ModelPath returns the model library path, or "" when the model is embedded.
func (l *Library) ModelPath() string { return l.modelPath }

// Embedded reports whether the model entry points came from the backend.
func (l *Library) Embedded() bool { return l.modelPath == "" }

// IsLoaded reports whether a backend library is currently loaded in this process.
func IsLoaded() bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	return backendLoaded
}

// Load opens the backend library and, when modelPath is not empty, the model
// library, then resolves every required entry point. On failure every handle
// opened so far is closed before the error is returned.
func Load(backendPath, modelPath string) (*FunctionTable, *Library, error) {
	backendPath = strings.TrimSpace(backendPath)
	modelPath = strings.TrimSpace(modelPath)

	registryMu.Lock()
	defer registryMu.Unlock()
	if backendLoaded {
		return nil, nil, NewError(KindLoad, TargetBackend, backendPath, ErrBackendLoaded)
	}

	absBackend, err := validateLibraryFile(backendPath)
	if err != nil {
		return nil, nil, NewError(KindLoad, TargetBackend, backendPath, err)
	}
	backendHandle, err := openLibraryFunc(absBackend)
	if err != nil {
		return nil, nil, NewError(KindLoad, TargetBackend, absBackend, err)
	}
	logLibrary("backend", absBackend)

	lib := &Library{backendPath: absBackend, backend: backendHandle}
	modelHandle := backendHandle
	if modelPath != "" {
		absModel, err := validateLibraryFile(modelPath)
		if err != nil {
			return nil, nil, lib.fail(NewError(KindLoad, TargetModel, modelPath, err))
		}
		modelHandle, err = openLibraryFunc(absModel)
		if err != nil {
			return nil, nil, lib.fail(NewError(KindLoad, TargetModel, absModel, err))
		}
		lib.modelPath = absModel
		lib.model = modelHandle
		logLibrary("model", absModel)
	}

	table := &FunctionTable{}
	if err := resolveSymbols(table, backendHandle, backendSymbols); err != nil {
		return nil, nil, lib.fail(err)
	}
	if err := resolveSymbols(table, modelHandle, modelSymbols); err != nil {
		return nil, nil, lib.fail(err)
	}
	resolveOptionalSymbols(table, backendHandle, optionalBackendSymbols)

	backendLoaded = true
	return table, lib, nil
}

func resolveSymbols(table *FunctionTable, handle uintptr, bindings []symbolBinding) error {
	for _, b := range bindings {
		addr, err := lookupSymbolFunc(handle, b.name)
		if err != nil {
			return NewError(KindLoad, TargetSymbol, b.name, err)
		}
		*b.slot(table) = addr
	}
	return nil
}

// resolveOptionalSymbols fills the slots the backend exports and leaves the
// rest zero.
func resolveOptionalSymbols(table *FunctionTable, handle uintptr, bindings []symbolBinding) {
	for _, b := range bindings {
		addr, err := lookupSymbolFunc(handle, b.name)
		if err != nil {
			l := currentLogger()
			l.Debug().Str("symbol", b.name).Msg("optional backend symbol not exported")
			continue
		}
		*b.slot(table) = addr
	}
}

// fail closes handles opened by a Load that is about to fail. Close errors
// are reported alongside the load error but never mask it.
func (l *Library) fail(loadErr error) error {
	if closeErr := l.abandon(); closeErr != nil {
		return errors.Join(loadErr, closeErr)
	}
	return loadErr
}

func (l *Library) abandon() error {
	var err error
	if l.model != 0 {
		if closeErr := closeLibraryFunc(l.model); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close model library %q: %w", l.modelPath, closeErr))
		}
		l.model = 0
	}
	if l.backend != 0 {
		if closeErr := closeLibraryFunc(l.backend); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close backend library %q: %w", l.backendPath, closeErr))
		}
		l.backend = 0
	}
	return err
}

// closeModel releases the model library handle. It reports whether a release
// was attempted; an embedded model has nothing to release.
func (l *Library) closeModel() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model == 0 {
		return false, nil
	}
	handle := l.model
	l.model = 0
	return true, closeLibraryFunc(handle)
}

// closeBackend releases the backend library handle and frees the process
// registry slot even when the platform close call fails.
func (l *Library) closeBackend() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.backend == 0 {
		return false, nil
	}
	handle := l.backend
	l.backend = 0

	err := closeLibraryFunc(handle)

	registryMu.Lock()
	backendLoaded = false
	registryMu.Unlock()
	return true, err
}

// Close releases the model library and then the backend library. Sessions
// call the two steps themselves as part of teardown; Close is for callers
// that used Load directly.
func (l *Library) Close() error {
	if l == nil {
		return nil
	}
	var err error
	if _, closeErr := l.closeModel(); closeErr != nil {
		err = errors.Join(err, NewError(KindTeardown, TargetModelLibrary, l.modelPath, closeErr))
	}
	if _, closeErr := l.closeBackend(); closeErr != nil {
		err = errors.Join(err, NewError(KindTeardown, TargetBackendLibrary, l.backendPath, closeErr))
	}
	return err
}

func (l *Library) hasModel() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.model != 0
}

func (l *Library) hasBackend() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backend != 0
}

func validateLibraryFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("library path is empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat library file %q: %w", absPath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("library path points to a directory: %q", absPath)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("library file is empty: %q", absPath)
	}

	return absPath, nil
}

func logLibrary(role, path string) {
	l := currentLogger()
	ev := l.Debug().Str("library", role).Str("path", path)
	if info, err := os.Stat(path); err == nil {
		ev = ev.Str("size", humanize.Bytes(uint64(info.Size())))
	}
	ev.Msg("library loaded")
}
