package qnn

import (
	"fmt"
	"strings"
)

// Status codes shared by every backend and model entry point.
const (
	// StatusSuccess is returned by an entry point that completed normally.
	StatusSuccess int32 = 0
	// StatusFailure is the generic failure code.
	StatusFailure int32 = 1
	// StatusNotSupported is returned by QnnBackend_isDeviceSupported when the
	// backend has no device-selection capability.
	StatusNotSupported int32 = 2
)

// Phase is a position in the session lifecycle.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseBackendInitialized
	PhaseDeviceResolved
	PhaseProfilingReady
	PhaseContextCreated
	PhaseGraphsComposed
	PhaseGraphsFinalized
	PhaseExecutable
	PhaseClosed
)

var phaseNames = [...]string{
	PhaseCreated:            "created",
	PhaseBackendInitialized: "backend_initialized",
	PhaseDeviceResolved:     "device_resolved",
	PhaseProfilingReady:     "profiling_ready",
	PhaseContextCreated:     "context_created",
	PhaseGraphsComposed:     "graphs_composed",
	PhaseGraphsFinalized:    "graphs_finalized",
	PhaseExecutable:         "executable",
	PhaseClosed:             "closed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ProfilingLevel selects how much profiling data the backend collects.
type ProfilingLevel uint32

const (
	ProfilingOff ProfilingLevel = iota
	ProfilingBasic
	ProfilingDetailed
)

func (l ProfilingLevel) String() string {
	switch l {
	case ProfilingOff:
		return "off"
	case ProfilingBasic:
		return "basic"
	case ProfilingDetailed:
		return "detailed"
	default:
		return fmt.Sprintf("profiling(%d)", uint32(l))
	}
}

// ParseProfilingLevel parses off, basic or detailed. An empty string is off.
func ParseProfilingLevel(raw string) (ProfilingLevel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "off":
		return ProfilingOff, nil
	case "basic":
		return ProfilingBasic, nil
	case "detailed":
		return ProfilingDetailed, nil
	default:
		return ProfilingOff, fmt.Errorf("invalid profiling level %q (expected off, basic or detailed)", raw)
	}
}

// LogLevel is the verbosity requested from the backend's own logger.
// Values follow the backend C contract.
type LogLevel uint32

const (
	LogLevelError LogLevel = iota + 1
	LogLevelWarn
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelVerbose:
		return "verbose"
	case LogLevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("loglevel(%d)", uint32(l))
	}
}

// ParseLogLevel parses a backend log level name. An empty string is warn.
func ParseLogLevel(raw string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error":
		return LogLevelError, nil
	case "", "warn", "warning":
		return LogLevelWarn, nil
	case "info":
		return LogLevelInfo, nil
	case "verbose":
		return LogLevelVerbose, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelWarn, fmt.Errorf("invalid backend log level %q", raw)
	}
}

// InputPrecision selects how raw input files are interpreted by the backend.
type InputPrecision uint32

// The zero value is unset; a session refuses to start without an explicit choice.
const (
	InputFloat InputPrecision = iota + 1
	InputNative
)

func (p InputPrecision) String() string {
	switch p {
	case InputFloat:
		return "float"
	case InputNative:
		return "native"
	default:
		return "unset"
	}
}

// ParseInputPrecision parses float or native.
func ParseInputPrecision(raw string) (InputPrecision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "float":
		return InputFloat, nil
	case "native":
		return InputNative, nil
	default:
		return 0, fmt.Errorf("invalid input precision %q (expected float or native)", raw)
	}
}

// OutputPrecision selects which output files the backend writes.
type OutputPrecision uint32

// The zero value is unset, as for InputPrecision.
const (
	OutputFloatOnly OutputPrecision = iota + 1
	OutputNativeOnly
	OutputFloatAndNative
)

func (p OutputPrecision) String() string {
	switch p {
	case OutputFloatOnly:
		return "float_only"
	case OutputNativeOnly:
		return "native_only"
	case OutputFloatAndNative:
		return "float_and_native"
	default:
		return "unset"
	}
}

// ParseOutputPrecision parses float_only, native_only or float_and_native.
func ParseOutputPrecision(raw string) (OutputPrecision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "float_only":
		return OutputFloatOnly, nil
	case "native_only":
		return OutputNativeOnly, nil
	case "float_and_native":
		return OutputFloatAndNative, nil
	default:
		return 0, fmt.Errorf("invalid output precision %q (expected float_only, native_only or float_and_native)", raw)
	}
}
