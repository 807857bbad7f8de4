package qnn

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// InputEntry is one raw input file of a batch. Name is empty when the
// manifest line lists bare paths.
type InputEntry struct {
	Name string
	Path string
}

// InputManifest is a parsed input list: one batch per non-comment line,
// entries separated by whitespace, each either "name:=path" or "path". A
// line starting with '#' names the output tensors to keep.
type InputManifest struct {
	Path        string
	OutputNames []string
	Batches     [][]InputEntry
}

// ParseInputManifest reads the manifest at path. Relative input paths are
// resolved against baseDir.
func ParseInputManifest(path, baseDir string) (*InputManifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input manifest %q: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	manifest, err := parseInputManifest(file, baseDir)
	if err != nil {
		return nil, fmt.Errorf("input manifest %q: %w", path, err)
	}
	manifest.Path = path
	return manifest, nil
}

func parseInputManifest(r io.Reader, baseDir string) (*InputManifest, error) {
	manifest := &InputManifest{}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			for _, name := range strings.Fields(strings.TrimPrefix(line, "#")) {
				manifest.OutputNames = append(manifest.OutputNames, name)
			}
			continue
		}

		var batch []InputEntry
		for _, field := range strings.Fields(line) {
			entry := InputEntry{Path: field}
			if name, p, ok := strings.Cut(field, ":="); ok {
				if name == "" || p == "" {
					return nil, fmt.Errorf("line %d: malformed entry %q", lineNum, field)
				}
				entry = InputEntry{Name: name, Path: p}
			}
			if !filepath.IsAbs(entry.Path) && baseDir != "" {
				entry.Path = filepath.Join(baseDir, entry.Path)
			}
			batch = append(batch, entry)
		}
		manifest.Batches = append(manifest.Batches, batch)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(manifest.Batches) == 0 {
		return nil, fmt.Errorf("no input batches")
	}
	return manifest, nil
}

// Validate checks that every referenced input is a readable regular file.
func (m *InputManifest) Validate() error {
	for i, batch := range m.Batches {
		for _, entry := range batch {
			info, err := os.Stat(entry.Path)
			if err != nil {
				return fmt.Errorf("batch %d: input %q: %w", i, entry.Path, err)
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("batch %d: input %q is not a regular file", i, entry.Path)
			}
		}
	}
	return nil
}

// ResultPath is where the backend writes output tensor for the given batch:
// <outputDir>/Result_<batch>/<tensor>.raw.
func ResultPath(outputDir string, batch int, tensor string) string {
	return filepath.Join(outputDir, "Result_"+strconv.Itoa(batch), tensor+".raw")
}
