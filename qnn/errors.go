package qnn

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the lifecycle area that produced it.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindLoad
	KindInitialization
	KindGraph
	KindExecution
	KindOutput
	KindTeardown
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindLoad:
		return "load"
	case KindInitialization:
		return "initialization"
	case KindGraph:
		return "graph"
	case KindExecution:
		return "execution"
	case KindOutput:
		return "output"
	case KindTeardown:
		return "teardown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target narrows a Kind to the phase step or resource that failed.
type Target string

const (
	TargetBackend        Target = "backend"
	TargetModel          Target = "model"
	TargetSymbol         Target = "symbol"
	TargetDevice         Target = "device"
	TargetProfiling      Target = "profiling"
	TargetContext        Target = "context"
	TargetCompose        Target = "compose"
	TargetFinalize       Target = "finalize"
	TargetNotFound       Target = "not_found"
	TargetNotRegular     Target = "not_regular"
	TargetSizeMismatch   Target = "size_mismatch"
	TargetInvalidIndex   Target = "invalid_index"
	TargetGraphs         Target = "graphs"
	TargetOutputLock     Target = "output_lock"
	TargetModelLibrary   Target = "model_library"
	TargetBackendLibrary Target = "backend_library"
)

// Error is the single error type surfaced by this package. Kind and Target
// say which phase or resource failed; Path carries the file, symbol or
// resource name involved when there is one.
type Error struct {
	Kind   Kind
	Target Target
	Path   string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Target != "" {
		msg += " (" + string(e.Target) + ")"
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind. An empty Target on the
// comparison value matches any target, so ErrGraph matches both compose and
// finalize failures while ErrFinalize matches only the latter.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Target == "" || t.Target == e.Target
}

// Comparison values for errors.Is.
var (
	ErrConfiguration  = &Error{Kind: KindConfiguration}
	ErrLoad           = &Error{Kind: KindLoad}
	ErrLoadBackend    = &Error{Kind: KindLoad, Target: TargetBackend}
	ErrLoadModel      = &Error{Kind: KindLoad, Target: TargetModel}
	ErrLoadSymbol     = &Error{Kind: KindLoad, Target: TargetSymbol}
	ErrInitialization = &Error{Kind: KindInitialization}
	ErrInitBackend    = &Error{Kind: KindInitialization, Target: TargetBackend}
	ErrInitDevice     = &Error{Kind: KindInitialization, Target: TargetDevice}
	ErrInitProfiling  = &Error{Kind: KindInitialization, Target: TargetProfiling}
	ErrInitContext    = &Error{Kind: KindInitialization, Target: TargetContext}
	ErrGraph          = &Error{Kind: KindGraph}
	ErrCompose        = &Error{Kind: KindGraph, Target: TargetCompose}
	ErrFinalize       = &Error{Kind: KindGraph, Target: TargetFinalize}
	ErrExecution      = &Error{Kind: KindExecution}
	ErrOutput         = &Error{Kind: KindOutput}
	ErrOutputNotFound = &Error{Kind: KindOutput, Target: TargetNotFound}
	ErrNotRegular     = &Error{Kind: KindOutput, Target: TargetNotRegular}
	ErrSizeMismatch   = &Error{Kind: KindOutput, Target: TargetSizeMismatch}
	ErrInvalidIndex   = &Error{Kind: KindOutput, Target: TargetInvalidIndex}
	ErrTeardown       = &Error{Kind: KindTeardown}
)

var (
	// ErrPhaseOrder is wrapped when a phase is invoked before its predecessor succeeded.
	ErrPhaseOrder = errors.New("phase called out of order")
	// ErrSessionClosed is wrapped when any phase is invoked after Close.
	ErrSessionClosed = errors.New("session is closed")
	// ErrBackendLoaded is wrapped when a backend is loaded while another is still open.
	ErrBackendLoaded = errors.New("another backend library is already loaded in this process")
)

// NewError builds an *Error. It is exported for collaborators such as the
// output interpreter that report failures in the same taxonomy.
func NewError(kind Kind, target Target, path string, err error) *Error {
	return &Error{Kind: kind, Target: target, Path: path, Err: err}
}

// KindOf returns the kind and target of the first *Error in err's chain.
func KindOf(err error) (Kind, Target, bool) {
	var qerr *Error
	if !errors.As(err, &qerr) {
		return 0, "", false
	}
	return qerr.Kind, qerr.Target, true
}

// statusError describes a non-zero status returned by a native entry point.
type statusError struct {
	entry   string
	status  int32
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.entry, e.status, e.message)
	}
	return fmt.Sprintf("%s returned status %d", e.entry, e.status)
}
