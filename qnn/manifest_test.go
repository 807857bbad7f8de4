package qnn

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseInputManifest(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		baseDir     string
		wantOutputs []string
		wantBatches [][]InputEntry
		wantErr     string
	}{
		{
			name:        "bare paths",
			input:       "a.raw\nb.raw\n",
			baseDir:     "/work",
			wantBatches: [][]InputEntry{{{Path: "/work/a.raw"}}, {{Path: "/work/b.raw"}}},
		},
		{
			name:        "named entries and output names",
			input:       "#class_logits prob\nimage:=img.raw mask:=/abs/mask.raw\n",
			baseDir:     "/work",
			wantOutputs: []string{"class_logits", "prob"},
			wantBatches: [][]InputEntry{{{Name: "image", Path: "/work/img.raw"}, {Name: "mask", Path: "/abs/mask.raw"}}},
		},
		{
			name:        "blank lines skipped",
			input:       "\n  \nimg.raw\n\n",
			wantBatches: [][]InputEntry{{{Path: "img.raw"}}},
		},
		{
			name:    "malformed named entry",
			input:   "image:=\n",
			wantErr: "line 1: malformed entry",
		},
		{
			name:    "only comments",
			input:   "#class_logits\n",
			wantErr: "no input batches",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: "no input batches",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInputManifest(strings.NewReader(tt.input), tt.baseDir)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got.OutputNames, tt.wantOutputs) {
				t.Errorf("output names: got %v, want %v", got.OutputNames, tt.wantOutputs)
			}
			if !reflect.DeepEqual(got.Batches, tt.wantBatches) {
				t.Errorf("batches: got %v, want %v", got.Batches, tt.wantBatches)
			}
		})
	}
}

func TestInputManifestValidate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.raw")
	if err := os.WriteFile(input, []byte{0, 0, 0, 0}, 0o644); err != nil {
		t.Fatal(err)
	}

	ok := &InputManifest{Batches: [][]InputEntry{{{Path: input}}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dirEntry := &InputManifest{Batches: [][]InputEntry{{{Path: input}}, {{Path: dir}}}}
	if err := dirEntry.Validate(); err == nil || !strings.Contains(err.Error(), "batch 1") {
		t.Fatalf("expected batch 1 to be rejected, got %v", err)
	}

	missing := &InputManifest{Batches: [][]InputEntry{{{Path: filepath.Join(dir, "gone.raw")}}}}
	if err := missing.Validate(); err == nil {
		t.Fatal("expected missing input to be rejected")
	}
}

func TestParseInputManifestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input_list.txt")
	if err := os.WriteFile(path, []byte("input.raw\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseInputManifest(path, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Path != path {
		t.Errorf("expected path %q, got %q", path, m.Path)
	}
	if _, err := ParseInputManifest(filepath.Join(dir, "absent.txt"), dir); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestResultPath(t *testing.T) {
	got := ResultPath("/work", 3, "class_logits")
	want := filepath.Join("/work", "Result_3", "class_logits.raw")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
