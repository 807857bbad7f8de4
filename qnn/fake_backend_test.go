package qnn

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const (
	fakeBackendHandle Handle = 0x10
	fakeDeviceHandle  Handle = 0x20
	fakeProfileHandle Handle = 0x30
	fakeContextHandle Handle = 0x40
	fakeGraphsInfo           = uintptr(0x50)
)

// fakeBackend records every call in order and fails the calls named in fail.
type fakeBackend struct {
	calls       []string
	fail        map[string]error
	unsupported bool
	graphCount  uint32

	contextDevice Handle
	freedProfile  Handle
	requests      []ExecuteRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{fail: map[string]error{}, graphCount: 1}
}

func (f *fakeBackend) call(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeBackend) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeBackend) Initialize(LogLevel) (Handle, error) {
	if err := f.call("initialize"); err != nil {
		return 0, err
	}
	return fakeBackendHandle, nil
}

func (f *fakeBackend) DeviceSupported(Handle) (bool, error) {
	if err := f.call("device_supported"); err != nil {
		return false, err
	}
	return !f.unsupported, nil
}

func (f *fakeBackend) CreateDevice(Handle) (Handle, error) {
	if err := f.call("create_device"); err != nil {
		return 0, err
	}
	return fakeDeviceHandle, nil
}

func (f *fakeBackend) CreateProfile(Handle, ProfilingLevel) (Handle, error) {
	if err := f.call("create_profile"); err != nil {
		return 0, err
	}
	return fakeProfileHandle, nil
}

func (f *fakeBackend) CreateContext(_ Handle, device Handle) (Handle, error) {
	f.contextDevice = device
	if err := f.call("create_context"); err != nil {
		return 0, err
	}
	return fakeContextHandle, nil
}

func (f *fakeBackend) ComposeGraphs(Handle, Handle, bool) (GraphSet, error) {
	if err := f.call("compose_graphs"); err != nil {
		return GraphSet{}, err
	}
	return GraphSet{Info: fakeGraphsInfo, Count: f.graphCount}, nil
}

func (f *fakeBackend) FinalizeGraphs(GraphSet, Handle) error {
	return f.call("finalize_graphs")
}

func (f *fakeBackend) ExecuteGraphs(_ GraphSet, req ExecuteRequest, _ Handle) error {
	f.requests = append(f.requests, req)
	return f.call("execute_graphs")
}

func (f *fakeBackend) FreeGraphs(GraphSet) error {
	return f.call("free_graphs")
}

func (f *fakeBackend) FreeContext(_ Handle, profile Handle) error {
	f.freedProfile = profile
	return f.call("free_context")
}

func (f *fakeBackend) FreeDevice(Handle) error {
	return f.call("free_device")
}

func (f *fakeBackend) FreeProfile(Handle) error {
	return f.call("free_profile")
}

func (f *fakeBackend) Deinitialize(Handle) error {
	return f.call("deinitialize")
}

// newSessionFixture lays out a working directory with one raw input and an
// input list that references it, and returns a config pointing at them.
func newSessionFixture(t *testing.T) SessionConfig {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "input.raw"), make([]byte, 16), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "input_list.txt"), []byte("#class_logits\ninput:=input.raw\n"), 0o644); err != nil {
		t.Fatalf("failed to write input list: %v", err)
	}
	return SessionConfig{
		WorkingDir:      dir,
		InputManifest:   "input_list.txt",
		InputPrecision:  InputFloat,
		OutputPrecision: OutputFloatOnly,
	}
}

// fakeLibraryCloser swaps closeLibraryFunc for the duration of a test and
// records the handles it is asked to close.
func fakeLibraryCloser(t *testing.T, fail map[uintptr]error) *[]uintptr {
	t.Helper()
	var closed []uintptr
	prev := closeLibraryFunc
	closeLibraryFunc = func(h uintptr) error {
		closed = append(closed, h)
		if err, ok := fail[h]; ok {
			return err
		}
		return nil
	}
	t.Cleanup(func() {
		closeLibraryFunc = prev
		registryMu.Lock()
		backendLoaded = false
		registryMu.Unlock()
	})
	return &closed
}

var errInjected = errors.New("injected failure")
