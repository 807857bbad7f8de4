package classify

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amikos-tech/pure-qnn/qnn"
)

func TestReadClassificationImagenetScenario(t *testing.T) {
	const numClasses = 1000
	scores := make([]float32, numClasses)
	for i := range scores {
		scores[i] = 0.0001 * float32(i%7)
	}
	scores[42] = 0.9
	labels := syntheticLabels(numClasses)

	res, err := ReadClassification(writeScores(t, scores), labels)
	require.NoError(t, err)
	require.Equal(t, 42, res.Index)
	require.Equal(t, labels[42], res.Label)
	require.InDelta(t, 0.9, res.Score, 1e-6)
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   int
	}{
		{"single", []float32{-3}, 0},
		{"max last", []float32{0.1, 0.2, 0.7}, 2},
		{"tie keeps lower index", []float32{0.1, 0.5, 0.2, 0.5}, 1},
		{"all equal", []float32{1, 1, 1}, 0},
		{"negative scores", []float32{-5, -1, -3}, 1},
		{"empty", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Argmax(tt.scores))
		})
	}
}

func TestReadClassificationTieResolvesToLowerIndex(t *testing.T) {
	labels := Labels{"cat", "dog", "fox", "owl"}
	res, err := ReadClassification(writeScores(t, []float32{0.1, 0.4, 0.05, 0.4}), labels)
	require.NoError(t, err)
	require.Equal(t, "dog", res.Label)
}

func TestReadClassificationValidation(t *testing.T) {
	labels := syntheticLabels(8)

	t.Run("missing artifact", func(t *testing.T) {
		_, err := ReadClassification(filepath.Join(t.TempDir(), "absent.raw"), labels)
		require.ErrorIs(t, err, qnn.ErrOutputNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := ReadClassification(t.TempDir(), labels)
		require.ErrorIs(t, err, qnn.ErrNotRegular)
	})

	t.Run("one byte short", func(t *testing.T) {
		path := writeArtifact(t, make([]byte, len(labels)*4-1))
		_, err := ReadClassification(path, labels)
		require.ErrorIs(t, err, qnn.ErrSizeMismatch)
		require.ErrorIs(t, err, qnn.ErrOutput)
	})

	t.Run("one byte long", func(t *testing.T) {
		path := writeArtifact(t, make([]byte, len(labels)*4+1))
		_, err := ReadClassification(path, labels)
		require.ErrorIs(t, err, qnn.ErrSizeMismatch)
	})

	t.Run("no classes", func(t *testing.T) {
		path := writeArtifact(t, nil)
		_, err := ReadClassification(path, Labels{})
		require.ErrorIs(t, err, qnn.ErrInvalidIndex)
	})
}

func TestReadClassificationFloat16(t *testing.T) {
	labels := Labels{"a", "b", "c"}
	path := writeScores16(t, []float32{0.25, 0.5, 0.125})

	res, err := ReadClassification(path, labels, WithFormat(Float16))
	require.NoError(t, err)
	require.Equal(t, "b", res.Label)
	require.Equal(t, float32(0.5), res.Score)

	_, err = ReadClassification(path, labels)
	require.ErrorIs(t, err, qnn.ErrSizeMismatch)
}
