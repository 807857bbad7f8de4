package qnn

import (
	"errors"
	"time"
)

type slotState uint8

const (
	slotAbsent slotState = iota
	slotPresent
	slotReleased
)

// slot tracks one session-owned resource so teardown releases exactly what
// was acquired, and releases it once.
type slot[T any] struct {
	value T
	state slotState
}

func (s *slot[T]) set(v T) {
	s.value = v
	s.state = slotPresent
}

// take returns the value and marks the slot released when it is present.
func (s *slot[T]) take() (T, bool) {
	if s.state != slotPresent {
		var zero T
		return zero, false
	}
	s.state = slotReleased
	return s.value, true
}

func (s *slot[T]) markReleased() {
	var zero T
	s.value = zero
	s.state = slotReleased
}

// Close releases every resource the session acquired, in reverse order of
// acquisition: graphs, context, device, profiling, backend, model library,
// backend library and finally the output directory lock. A failing step is
// recorded as a teardown error and the remaining steps still run. Close
// leaves the session closed and is a no-op when called again.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed {
		return nil
	}

	start := time.Now()
	from := s.phase
	var errs []error
	fail := func(target Target, path string, err error) {
		if err == nil {
			return
		}
		terr := NewError(KindTeardown, target, path, err)
		errs = append(errs, terr)
		countFailure(terr)
		s.log.Error().Err(terr).Str("target", string(target)).Msg("teardown step failed")
	}

	if graphs, ok := s.graphs.take(); ok {
		fail(TargetGraphs, "", s.backend.FreeGraphs(graphs))
	}
	if ctx, ok := s.context.take(); ok {
		fail(TargetContext, "", s.backend.FreeContext(ctx, s.profile.value))
	}
	if device, ok := s.device.take(); ok && s.support == deviceSupported {
		fail(TargetDevice, "", s.backend.FreeDevice(device))
	}
	if profile, ok := s.profile.take(); ok {
		fail(TargetProfiling, "", s.backend.FreeProfile(profile))
	}
	if h, ok := s.backendH.take(); ok {
		fail(TargetBackend, "", s.backend.Deinitialize(h))
	}
	if _, ok := s.modelLib.take(); ok && s.lib != nil {
		if _, err := s.lib.closeModel(); err != nil {
			fail(TargetModelLibrary, s.lib.ModelPath(), err)
		}
	}
	if _, ok := s.backendLib.take(); ok && s.lib != nil {
		if _, err := s.lib.closeBackend(); err != nil {
			fail(TargetBackendLibrary, s.lib.BackendPath(), err)
		}
	}
	if lock, ok := s.lock.take(); ok {
		fail(TargetOutputLock, lock.path, lock.release())
	}

	s.graphs.markReleased()
	s.context.markReleased()
	s.device.markReleased()
	s.profile.markReleased()
	s.backendH.markReleased()
	s.modelLib.markReleased()
	s.backendLib.markReleased()
	s.lock.markReleased()

	s.teardownErrs = errs
	s.phase = PhaseClosed

	err := errors.Join(errs...)
	observePhase("teardown", err, time.Since(start))
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Warn().Int("errors", len(errs))
	}
	ev.Stringer("from", from).Int("executions", s.executions).Dur("duration", time.Since(start)).Msg("session closed")
	return err
}

// TeardownErrors returns the errors recorded by Close, one per failed step.
func (s *Session) TeardownErrors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.teardownErrs...)
}
