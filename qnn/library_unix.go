//go:build !windows

package qnn

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// Backend and model symbols must be visible to each other (the model library
// calls back into the backend), so both are opened RTLD_GLOBAL.
func loadLibrary(path string) (uintptr, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	if handle == 0 {
		return 0, fmt.Errorf("dlopen returned a null handle for %q", path)
	}
	return handle, nil
}

func getSymbol(handle uintptr, symbol string) (uintptr, error) {
	addr, err := purego.Dlsym(handle, symbol)
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, fmt.Errorf("symbol %s resolved to a null address", symbol)
	}
	return addr, nil
}

func closeLibrary(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return purego.Dlclose(handle)
}
