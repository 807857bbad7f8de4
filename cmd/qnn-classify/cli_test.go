package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amikos-tech/pure-qnn/classify"
	"github.com/amikos-tech/pure-qnn/qnn"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"plain error", errors.New("unknown flag"), exitUsage},
		{"configuration", qnn.NewError(qnn.KindConfiguration, "", "", nil), exitConfiguration},
		{"load symbol", qnn.NewError(qnn.KindLoad, qnn.TargetSymbol, "QnnModel_composeGraphs", nil), exitLoad},
		{"device", qnn.NewError(qnn.KindInitialization, qnn.TargetDevice, "", nil), exitInitialization},
		{"finalize", fmt.Errorf("prepare: %w", qnn.NewError(qnn.KindGraph, qnn.TargetFinalize, "", nil)), exitGraph},
		{"execution", qnn.NewError(qnn.KindExecution, "", "", nil), exitExecution},
		{"size mismatch", qnn.NewError(qnn.KindOutput, qnn.TargetSizeMismatch, "", nil), exitOutput},
		{"teardown", qnn.NewError(qnn.KindTeardown, qnn.TargetContext, "", nil), exitTeardown},
	}
	seen := map[int]string{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, exitCode(tt.err))
		})
		if prev, ok := seen[tt.want]; ok && tt.want > exitUsage && prev != tt.name {
			t.Errorf("exit code %d shared by %s and %s", tt.want, prev, tt.name)
		}
		seen[tt.want] = tt.name
	}
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	renderResults(&buf, []classify.Result{
		{Index: 42, Label: "goldfish", Score: 0.9},
		{Index: 7, Label: "cock", Score: 0.05},
	})
	out := buf.String()
	require.Contains(t, out, "LABEL")
	require.Contains(t, out, "goldfish")
	require.Contains(t, out, "0.9000")
	require.Less(t, strings.Index(out, "goldfish"), strings.Index(out, "cock"))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLabelsCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "labels.txt", "tench, Tinca tinca\ngoldfish\nshark\n")

	out, err := execute(t, "labels", "--workdir", dir, "--labels", "labels.txt", "--num-classes", "3", "--list")
	require.NoError(t, err)
	require.Contains(t, out, "3 labels loaded")
	require.Contains(t, out, "tench")
	require.NotContains(t, out, "Tinca")

	_, err = execute(t, "labels", "--workdir", dir, "--labels", "labels.txt", "--num-classes", "4")
	require.Equal(t, exitConfiguration, exitCode(err))
}

func TestRunRejectsBadLabelsBeforeLoading(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "labels.txt", "a\nb\n")
	writeFile(t, dir, "input.raw", "\x00\x00\x00\x00")
	writeFile(t, dir, "input_list.txt", "input.raw\n")

	_, err := execute(t, "run", "--workdir", dir, "--labels", "labels.txt", "--num-classes", "3", "--backend", "libQnnHtp.so")
	require.ErrorIs(t, err, qnn.ErrConfiguration)
	require.False(t, qnn.IsLoaded())
}

func TestRunValidatesFlags(t *testing.T) {
	_, err := execute(t, "run", "--repeat", "0")
	require.Equal(t, exitConfiguration, exitCode(err))

	_, err = execute(t, "run", "--top", "0")
	require.Equal(t, exitConfiguration, exitCode(err))

	_, err = execute(t, "--log-level", "loud", "labels")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestCheckReportsMissingBackend(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "labels.txt", "a\nb\n")
	writeFile(t, dir, "input.raw", "\x00\x00\x00\x00")
	writeFile(t, dir, "input_list.txt", "input.raw\n")

	_, err := execute(t, "check", "--workdir", dir, "--labels", "labels.txt", "--num-classes", "2", "--backend", "libQnnHtp.so")
	require.ErrorIs(t, err, qnn.ErrLoadBackend)
	require.Equal(t, exitLoad, exitCode(err))
}

func TestResolveConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "qnn.yaml", "working_dir: "+dir+"\nbackend: from-file.so\nmodel: model-from-file.so\nprofiling: basic\n")
	t.Setenv("QNN_BACKEND_PATH", "from-env.so")
	t.Setenv("QNN_PROFILING", "detailed")

	root := newRootCmd()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, run.ParseFlags([]string{"--config", cfgPath, "--profiling", "off"}))

	opts := &rootOptions{}
	opts.configPath = cfgPath
	opts.profiling = "off"
	cfg, err := opts.resolveConfig(run)
	require.NoError(t, err)
	require.Equal(t, "from-env.so", cfg.BackendPath, "environment overrides file")
	require.Equal(t, "model-from-file.so", cfg.ModelPath)
	require.Equal(t, "off", cfg.Profiling, "flag overrides environment")
	require.Equal(t, dir, cfg.WorkingDir)
}
