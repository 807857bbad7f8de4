package qnn

// Handle is an opaque pointer owned by the backend.
type Handle uintptr

// GraphSet is the graph-info array a model composes inside a context.
// Only its presence and the compose/finalize ordering matter to the session.
type GraphSet struct {
	Info  uintptr
	Count uint32
}

// ExecuteRequest carries what a single execution needs besides the graphs.
type ExecuteRequest struct {
	InputManifest string
	OutputDir     string
	Input         InputPrecision
	Output        OutputPrecision
}

// Backend is the capability contract the session drives. The native
// implementation is bound from a FunctionTable; tests substitute fakes.
//
// Implementations report plain errors; the session maps them to the error
// taxonomy of the phase that called them.
type Backend interface {
	Initialize(level LogLevel) (Handle, error)
	// DeviceSupported reports false with a nil error when the backend has no
	// device-selection capability.
	DeviceSupported(backend Handle) (bool, error)
	CreateDevice(backend Handle) (Handle, error)
	CreateProfile(backend Handle, level ProfilingLevel) (Handle, error)
	// CreateContext receives a zero device handle when no device was created.
	CreateContext(backend, device Handle) (Handle, error)
	ComposeGraphs(backend, context Handle, debug bool) (GraphSet, error)
	FinalizeGraphs(graphs GraphSet, profile Handle) error
	ExecuteGraphs(graphs GraphSet, req ExecuteRequest, profile Handle) error

	FreeGraphs(graphs GraphSet) error
	FreeContext(context, profile Handle) error
	FreeDevice(device Handle) error
	FreeProfile(profile Handle) error
	Deinitialize(backend Handle) error
}
