// Package classify turns the score artifact written by a classification
// graph into labels.
package classify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amikos-tech/pure-qnn/qnn"
)

// Labels is a label table index-aligned with a model's class scores.
type Labels []string

// LoadLabels reads a label file with exactly numClasses lines. Each line
// contributes its first comma-separated token, so "tench, Tinca tinca"
// becomes "tench". Any other line count is a configuration error.
func LoadLabels(path string, numClasses int) (Labels, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, qnn.NewError(qnn.KindConfiguration, "", path, fmt.Errorf("failed to open label file: %w", err))
	}
	defer func() {
		_ = file.Close()
	}()

	labels, err := ParseLabels(file, numClasses)
	if err != nil {
		return nil, qnn.NewError(qnn.KindConfiguration, "", path, err)
	}
	return labels, nil
}

// ParseLabels is LoadLabels over an already open reader.
func ParseLabels(r io.Reader, numClasses int) (Labels, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("number of classes must be positive, got %d", numClasses)
	}

	labels := make(Labels, 0, numClasses)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if len(labels) == numClasses {
			return nil, fmt.Errorf("label file has more than %d lines", numClasses)
		}
		label, _, _ := strings.Cut(scanner.Text(), ",")
		labels = append(labels, strings.TrimSpace(label))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(labels) != numClasses {
		return nil, fmt.Errorf("label file has %d lines, expected %d", len(labels), numClasses)
	}
	return labels, nil
}
