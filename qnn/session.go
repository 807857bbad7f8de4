package qnn

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type deviceSupport uint8

const (
	deviceUnknown deviceSupport = iota
	deviceSupported
	deviceUnsupported
)

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithLogger overrides the logger installed with SetLogger for one session.
func WithLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.log = l.With().Str("session", s.id).Logger()
	}
}

// Session drives one backend through its lifecycle:
//
//	created -> backend_initialized -> device_resolved -> profiling_ready ->
//	context_created -> graphs_composed -> graphs_finalized -> executable
//
// with closed reachable from every phase. A failed phase leaves every
// resource acquired so far in place; only Close releases them.
//
// A Session is not meant for concurrent use. Its methods serialize on an
// internal mutex, but callers must still drive phases from one goroutine.
type Session struct {
	mu      sync.Mutex
	id      string
	cfg     SessionConfig
	backend Backend
	lib     *Library
	log     zerolog.Logger

	phase      Phase
	configured bool
	manifest   *InputManifest
	executions int
	support    deviceSupport

	lock       slot[*outputLock]
	backendH   slot[Handle]
	device     slot[Handle]
	profile    slot[Handle]
	context    slot[Handle]
	graphs     slot[GraphSet]
	modelLib   slot[struct{}]
	backendLib slot[struct{}]

	failures     []error
	teardownErrs []error
}

// Open validates cfg, loads the backend (and model) libraries it names and
// returns a session in the created phase that owns them.
func Open(cfg SessionConfig, opts ...SessionOption) (*Session, error) {
	cfg = cfg.Resolved()
	if err := cfg.validate(); err != nil {
		return nil, NewError(KindConfiguration, "", "", err)
	}
	if cfg.ExportSearchPath {
		if err := exportSearchPath(cfg.WorkingDir); err != nil {
			return nil, NewError(KindConfiguration, "", cfg.WorkingDir, err)
		}
	}

	table, lib, err := Load(cfg.BackendPath, cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	backend, err := NewNativeBackend(table)
	if err != nil {
		return nil, errors.Join(NewError(KindLoad, TargetSymbol, "", err), lib.Close())
	}
	return NewSession(cfg, backend, lib, opts...)
}

// NewSession wraps an already-loaded backend. lib may be nil when the
// backend does not come from dynamically loaded libraries.
func NewSession(cfg SessionConfig, backend Backend, lib *Library, opts ...SessionOption) (*Session, error) {
	if backend == nil {
		return nil, NewError(KindConfiguration, "", "", fmt.Errorf("backend cannot be nil"))
	}

	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg.Resolved(),
		backend: backend,
		lib:     lib,
		phase:   PhaseCreated,
	}
	s.log = currentLogger().With().Str("session", s.id).Logger()
	if lib != nil {
		if lib.hasModel() {
			s.modelLib.set(struct{}{})
		}
		if lib.hasBackend() {
			s.backendLib.set(struct{}{})
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

type phaseStep struct {
	name   string
	kind   Kind
	target Target
	from   []Phase
	to     Phase
}

var (
	stepInitialize     = phaseStep{"initialize", KindConfiguration, "", []Phase{PhaseCreated}, PhaseCreated}
	stepInitBackend    = phaseStep{"initialize_backend", KindInitialization, TargetBackend, []Phase{PhaseCreated}, PhaseBackendInitialized}
	stepResolveDevice  = phaseStep{"resolve_device", KindInitialization, TargetDevice, []Phase{PhaseBackendInitialized}, PhaseDeviceResolved}
	stepInitProfiling  = phaseStep{"initialize_profiling", KindInitialization, TargetProfiling, []Phase{PhaseDeviceResolved}, PhaseProfilingReady}
	stepCreateContext  = phaseStep{"create_context", KindInitialization, TargetContext, []Phase{PhaseProfilingReady}, PhaseContextCreated}
	stepComposeGraphs  = phaseStep{"compose_graphs", KindGraph, TargetCompose, []Phase{PhaseContextCreated}, PhaseGraphsComposed}
	stepFinalizeGraphs = phaseStep{"finalize_graphs", KindGraph, TargetFinalize, []Phase{PhaseGraphsComposed}, PhaseGraphsFinalized}
	stepExecuteGraphs  = phaseStep{"execute_graphs", KindExecution, "", []Phase{PhaseGraphsFinalized, PhaseExecutable}, PhaseExecutable}
)

func (s *Session) checkPhase(step phaseStep) error {
	if s.phase == PhaseClosed {
		return NewError(step.kind, step.target, "", ErrSessionClosed)
	}
	switch step.name {
	case stepInitialize.name:
		if s.configured {
			return NewError(step.kind, step.target, "", fmt.Errorf("%w: session is already initialized", ErrPhaseOrder))
		}
	case stepInitBackend.name:
		if !s.configured {
			return NewError(step.kind, step.target, "", fmt.Errorf("%w: %s requires initialize to succeed first", ErrPhaseOrder, step.name))
		}
	}
	for _, p := range step.from {
		if s.phase == p {
			return nil
		}
	}
	return NewError(step.kind, step.target, "", fmt.Errorf("%w: %s requires phase %s, session is %s", ErrPhaseOrder, step.name, step.from[0], s.phase))
}

// run executes one phase: it checks ordering, times the call, advances the
// phase on success and records the failure otherwise.
func (s *Session) run(step phaseStep, fn func() error) error {
	if err := s.checkPhase(step); err != nil {
		s.record(err)
		s.log.Warn().Err(err).Str("phase", step.name).Msg("phase rejected")
		return err
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	observePhase(step.name, err, elapsed)
	if err != nil {
		var qerr *Error
		if !errors.As(err, &qerr) {
			err = NewError(step.kind, step.target, "", err)
		}
		s.record(err)
		s.log.Error().Err(err).Str("phase", step.name).Dur("duration", elapsed).Msg("phase failed")
		return err
	}

	s.phase = step.to
	s.log.Info().Str("phase", step.name).Stringer("state", s.phase).Dur("duration", elapsed).Msg("phase completed")
	return nil
}

func (s *Session) record(err error) {
	s.failures = append(s.failures, err)
	countFailure(err)
}

// Initialize validates the configuration, parses the input manifest and
// prepares the output directory. It fails with a configuration error.
func (s *Session) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialize()
}

func (s *Session) initialize() error {
	return s.run(stepInitialize, func() error {
		if err := s.cfg.validate(); err != nil {
			return err
		}
		manifest, err := loadManifest(s.cfg.InputManifest, s.cfg.WorkingDir)
		if err != nil {
			return err
		}
		lock, err := acquireOutputLock(s.cfg.OutputDir())
		if err != nil {
			return err
		}
		s.lock.set(lock)
		s.manifest = manifest
		s.configured = true
		return nil
	})
}

func loadManifest(path, baseDir string) (*InputManifest, error) {
	manifest, err := ParseInputManifest(path, baseDir)
	if err != nil {
		return nil, NewError(KindConfiguration, "", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, NewError(KindConfiguration, "", path, err)
	}
	return manifest, nil
}

// InitializeBackend brings the backend library to a ready state.
func (s *Session) InitializeBackend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeBackend()
}

func (s *Session) initializeBackend() error {
	return s.run(stepInitBackend, func() error {
		h, err := s.backend.Initialize(s.cfg.BackendLogLevel)
		if err != nil {
			return err
		}
		s.backendH.set(h)
		return nil
	})
}

// ResolveDevice creates a device when the backend supports device
// selection. An unsupported capability, or a capability query that fails, is
// not a failure: the session continues without a device. Only a device
// creation failure after the backend reported support is fatal.
func (s *Session) ResolveDevice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveDevice()
}

func (s *Session) resolveDevice() error {
	return s.run(stepResolveDevice, func() error {
		supported, err := s.backend.DeviceSupported(s.backendH.value)
		if err != nil {
			s.support = deviceUnsupported
			s.log.Warn().Err(err).Msg("device capability query failed, continuing without a device")
			return nil
		}
		if !supported {
			s.support = deviceUnsupported
			s.log.Info().Msg("backend does not support device selection, continuing without a device")
			return nil
		}
		s.support = deviceSupported
		h, err := s.backend.CreateDevice(s.backendH.value)
		if err != nil {
			return err
		}
		s.device.set(h)
		return nil
	})
}

// InitializeProfiling sets up the profiling level chosen in the config.
// With profiling off no backend call is made.
func (s *Session) InitializeProfiling() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeProfiling()
}

func (s *Session) initializeProfiling() error {
	return s.run(stepInitProfiling, func() error {
		if s.cfg.Profiling == ProfilingOff {
			return nil
		}
		h, err := s.backend.CreateProfile(s.backendH.value, s.cfg.Profiling)
		if err != nil {
			return err
		}
		s.profile.set(h)
		return nil
	})
}

// CreateContext allocates a compute context bound to the device, if any.
func (s *Session) CreateContext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createContext()
}

func (s *Session) createContext() error {
	return s.run(stepCreateContext, func() error {
		h, err := s.backend.CreateContext(s.backendH.value, s.device.value)
		if err != nil {
			return err
		}
		s.context.set(h)
		return nil
	})
}

// ComposeGraphs asks the model to populate its graphs inside the context.
func (s *Session) ComposeGraphs() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composeGraphs()
}

func (s *Session) composeGraphs() error {
	return s.run(stepComposeGraphs, func() error {
		graphs, err := s.backend.ComposeGraphs(s.backendH.value, s.context.value, s.cfg.Debug)
		if err != nil {
			return err
		}
		if graphs.Count == 0 {
			if graphs.Info != 0 {
				if freeErr := s.backend.FreeGraphs(graphs); freeErr != nil {
					return errors.Join(fmt.Errorf("model composed no graphs"), freeErr)
				}
			}
			return fmt.Errorf("model composed no graphs")
		}
		s.graphs.set(graphs)
		s.log.Debug().Uint32("graphs", graphs.Count).Msg("graphs composed")
		return nil
	})
}

// FinalizeGraphs prepares the composed graphs for execution.
func (s *Session) FinalizeGraphs() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizeGraphs()
}

func (s *Session) finalizeGraphs() error {
	return s.run(stepFinalizeGraphs, func() error {
		return s.backend.FinalizeGraphs(s.graphs.value, s.profile.value)
	})
}

// ExecuteGraphs runs inference over the current input manifest. It may be
// called any number of times once graphs are finalized; a failure leaves the
// session executable so the call can be retried.
func (s *Session) ExecuteGraphs() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.run(stepExecuteGraphs, func() error {
		req := ExecuteRequest{
			InputManifest: s.manifest.Path,
			OutputDir:     s.cfg.OutputDir(),
			Input:         s.cfg.InputPrecision,
			Output:        s.cfg.OutputPrecision,
		}
		return s.backend.ExecuteGraphs(s.graphs.value, req, s.profile.value)
	})
	if err != nil {
		if !errors.Is(err, ErrPhaseOrder) && !errors.Is(err, ErrSessionClosed) {
			executionsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}
	s.executions++
	executionsTotal.WithLabelValues("success").Inc()
	return nil
}

// Prepare runs initialize (unless it already succeeded) and every phase up
// to finalize_graphs, stopping at the first failure.
func (s *Session) Prepare() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.configured {
		if err := s.initialize(); err != nil {
			return err
		}
	}
	steps := []func() error{
		s.initializeBackend,
		s.resolveDevice,
		s.initializeProfiling,
		s.createContext,
		s.composeGraphs,
		s.finalizeGraphs,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// SetInputManifest replaces the inputs used by subsequent executions.
func (s *Session) SetInputManifest(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed {
		err := NewError(KindConfiguration, "", path, ErrSessionClosed)
		s.record(err)
		return err
	}
	if !s.configured {
		err := NewError(KindConfiguration, "", path, fmt.Errorf("%w: initialize must succeed before replacing inputs", ErrPhaseOrder))
		s.record(err)
		return err
	}
	manifest, err := loadManifest(resolveAgainst(s.cfg.WorkingDir, path), s.cfg.WorkingDir)
	if err != nil {
		s.record(err)
		return err
	}
	s.manifest = manifest
	s.cfg.InputManifest = manifest.Path
	s.log.Info().Str("manifest", manifest.Path).Int("batches", len(manifest.Batches)).Msg("input manifest replaced")
	return nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Config returns the resolved configuration.
func (s *Session) Config() SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Manifest returns the input manifest parsed by Initialize, or nil.
func (s *Session) Manifest() *InputManifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// DeviceSupported reports whether the backend supports device selection.
// resolved is false until ResolveDevice has queried the backend.
func (s *Session) DeviceSupported() (supported, resolved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.support == deviceSupported, s.support != deviceUnknown
}

// Executions returns the number of successful ExecuteGraphs calls.
func (s *Session) Executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions
}

// Failures returns every phase failure recorded so far, oldest first.
func (s *Session) Failures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.failures...)
}

// ResultPath returns the artifact path for tensor in the given batch.
func (s *Session) ResultPath(batch int, tensor string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ResultPath(s.cfg.OutputDir(), batch, tensor)
}
