package qnn

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SessionConfig is everything a session needs from its controller. Relative
// paths are resolved against WorkingDir. Only Profiling (off) and
// BackendLogLevel (warn) have defaults; precisions must be chosen explicitly.
type SessionConfig struct {
	WorkingDir    string
	BackendPath   string
	ModelPath     string // empty when the model is embedded in the backend
	InputManifest string

	Profiling       ProfilingLevel
	InputPrecision  InputPrecision
	OutputPrecision OutputPrecision
	BackendLogLevel LogLevel

	// Debug asks the model to keep intermediate tensors when composing graphs.
	Debug bool
	// ExportSearchPath exports WorkingDir as ADSP_LIBRARY_PATH and
	// LD_LIBRARY_PATH before loading, for backends that load skeleton
	// libraries from there.
	ExportSearchPath bool
}

// Resolved returns a copy with relative paths joined onto WorkingDir.
func (c SessionConfig) Resolved() SessionConfig {
	c.WorkingDir = strings.TrimSpace(c.WorkingDir)
	c.BackendPath = resolveAgainst(c.WorkingDir, c.BackendPath)
	c.ModelPath = resolveAgainst(c.WorkingDir, c.ModelPath)
	c.InputManifest = resolveAgainst(c.WorkingDir, c.InputManifest)
	if c.BackendLogLevel == 0 {
		c.BackendLogLevel = LogLevelWarn
	}
	return c
}

// OutputDir is the directory the backend writes Result_* folders into.
func (c SessionConfig) OutputDir() string {
	return c.WorkingDir
}

func resolveAgainst(dir, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// validate checks the settings the initialize phase depends on.
func (c SessionConfig) validate() error {
	if c.WorkingDir == "" {
		return fmt.Errorf("working directory is not set")
	}
	info, err := os.Stat(c.WorkingDir)
	if err != nil {
		return fmt.Errorf("working directory %q is not usable: %w", c.WorkingDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory %q is not a directory", c.WorkingDir)
	}
	if c.InputManifest == "" {
		return fmt.Errorf("input manifest path is not set")
	}
	switch c.InputPrecision {
	case InputFloat, InputNative:
	default:
		return fmt.Errorf("input precision is not set")
	}
	switch c.OutputPrecision {
	case OutputFloatOnly, OutputNativeOnly, OutputFloatAndNative:
	default:
		return fmt.Errorf("output precision is not set")
	}
	if c.Profiling > ProfilingDetailed {
		return fmt.Errorf("invalid profiling level %d", c.Profiling)
	}
	return nil
}

// exportSearchPath mirrors how DSP backends discover their skeleton
// libraries: ADSP_LIBRARY_PATH is only set when absent, LD_LIBRARY_PATH is
// always overwritten.
func exportSearchPath(dir string) error {
	if _, ok := os.LookupEnv("ADSP_LIBRARY_PATH"); !ok {
		if err := os.Setenv("ADSP_LIBRARY_PATH", dir); err != nil {
			return fmt.Errorf("failed to set ADSP_LIBRARY_PATH: %w", err)
		}
	}
	if err := os.Setenv("LD_LIBRARY_PATH", dir); err != nil {
		return fmt.Errorf("failed to set LD_LIBRARY_PATH: %w", err)
	}
	return nil
}
