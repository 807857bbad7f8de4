package qnn

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionConfigResolved(t *testing.T) {
	cfg := SessionConfig{
		WorkingDir:    " /work ",
		BackendPath:   "libQnnHtp.so",
		ModelPath:     "/models/libmodel.so",
		InputManifest: "input_list.txt",
	}.Resolved()

	if cfg.WorkingDir != "/work" {
		t.Errorf("unexpected working dir %q", cfg.WorkingDir)
	}
	if cfg.BackendPath != filepath.Join("/work", "libQnnHtp.so") {
		t.Errorf("unexpected backend path %q", cfg.BackendPath)
	}
	if cfg.ModelPath != "/models/libmodel.so" {
		t.Errorf("absolute model path changed to %q", cfg.ModelPath)
	}
	if cfg.InputManifest != filepath.Join("/work", "input_list.txt") {
		t.Errorf("unexpected manifest path %q", cfg.InputManifest)
	}
	if cfg.BackendLogLevel != LogLevelWarn || cfg.Profiling != ProfilingOff {
		t.Errorf("unexpected defaults %v/%v", cfg.BackendLogLevel, cfg.Profiling)
	}
	if cfg.OutputDir() != "/work" {
		t.Errorf("unexpected output dir %q", cfg.OutputDir())
	}

	embedded := SessionConfig{WorkingDir: "/work", BackendPath: "libQnnCpu.so"}.Resolved()
	if embedded.ModelPath != "" {
		t.Errorf("empty model path must stay empty, got %q", embedded.ModelPath)
	}
}

func TestSessionConfigValidateProfiling(t *testing.T) {
	cfg := newSessionFixture(t).Resolved()
	cfg.Profiling = ProfilingLevel(7)
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid profiling level to be rejected")
	}
}

func TestExportSearchPath(t *testing.T) {
	t.Setenv("ADSP_LIBRARY_PATH", "/vendor/dsp")
	t.Setenv("LD_LIBRARY_PATH", "/usr/lib")

	if err := exportSearchPath("/work"); err != nil {
		t.Fatalf("exportSearchPath failed: %v", err)
	}
	if got := os.Getenv("ADSP_LIBRARY_PATH"); got != "/vendor/dsp" {
		t.Errorf("existing ADSP_LIBRARY_PATH overwritten: %q", got)
	}
	if got := os.Getenv("LD_LIBRARY_PATH"); got != "/work" {
		t.Errorf("expected LD_LIBRARY_PATH=/work, got %q", got)
	}

	if err := os.Unsetenv("ADSP_LIBRARY_PATH"); err != nil {
		t.Fatal(err)
	}
	if err := exportSearchPath("/work"); err != nil {
		t.Fatalf("exportSearchPath failed: %v", err)
	}
	if got := os.Getenv("ADSP_LIBRARY_PATH"); got != "/work" {
		t.Errorf("expected ADSP_LIBRARY_PATH=/work, got %q", got)
	}
}
