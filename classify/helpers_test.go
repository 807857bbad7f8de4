package classify

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func writeScores(t *testing.T, scores []float32) string {
	t.Helper()
	buf := make([]byte, len(scores)*4)
	for i, s := range scores {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return writeArtifact(t, buf)
}

func writeScores16(t *testing.T, scores []float32) string {
	t.Helper()
	buf := make([]byte, len(scores)*2)
	for i, s := range scores {
		binary.LittleEndian.PutUint16(buf[i*2:], float16.Fromfloat32(s).Bits())
	}
	return writeArtifact(t, buf)
}

func writeArtifact(t *testing.T, buf []byte) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Result_0")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, ClassLogitsTensor+".raw")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func syntheticLabels(n int) Labels {
	labels := make(Labels, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("class_%d", i)
	}
	return labels
}

func writeLabelFile(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imagenet-classes.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}
