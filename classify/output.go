package classify

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/x448/float16"

	"github.com/amikos-tech/pure-qnn/qnn"
)

// ClassLogitsTensor is the output tensor a classification graph writes its
// scores to.
const ClassLogitsTensor = "class_logits"

// Format is the element encoding of a score artifact.
type Format int

const (
	// Float32 is the float output the backend writes by default.
	Float32 Format = iota
	// Float16 is the native output of half-precision accelerators.
	Float16
)

// Size returns the encoded size of one score.
func (f Format) Size() int {
	if f == Float16 {
		return 2
	}
	return 4
}

func (f Format) String() string {
	if f == Float16 {
		return "float16"
	}
	return "float32"
}

type options struct {
	format Format
}

// Option configures how an artifact is read.
type Option func(*options)

// WithFormat selects the score encoding. The default is Float32.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// Result is the outcome of classifying one artifact.
type Result struct {
	Index int
	Label string
	Score float32
}

// ReadScores validates the artifact at path and decodes numClasses
// little-endian scores from it. The file must be a regular file of exactly
// numClasses scores; nothing is read otherwise.
func ReadScores(path string, numClasses int, opts ...Option) ([]float32, error) {
	o := options{format: Float32}
	for _, opt := range opts {
		opt(&o)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, qnn.NewError(qnn.KindOutput, qnn.TargetNotFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, qnn.NewError(qnn.KindOutput, qnn.TargetNotRegular, path, fmt.Errorf("artifact is not a regular file"))
	}
	want := int64(numClasses) * int64(o.format.Size())
	if info.Size() != want {
		return nil, qnn.NewError(qnn.KindOutput, qnn.TargetSizeMismatch, path,
			fmt.Errorf("artifact is %d bytes, expected %d (%d %s scores)", info.Size(), want, numClasses, o.format))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, qnn.NewError(qnn.KindOutput, qnn.TargetNotFound, path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	buf := make([]byte, want)
	if _, err := io.ReadFull(file, buf); err != nil {
		return nil, qnn.NewError(qnn.KindOutput, qnn.TargetSizeMismatch, path, fmt.Errorf("short read: %w", err))
	}
	return decodeScores(buf, o.format), nil
}

func decodeScores(buf []byte, format Format) []float32 {
	n := len(buf) / format.Size()
	scores := make([]float32, n)
	for i := range scores {
		switch format {
		case Float16:
			scores[i] = float16.Frombits(binary.LittleEndian.Uint16(buf[i*2:])).Float32()
		default:
			scores[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
	}
	return scores
}

// Argmax returns the index of the largest score. Ties resolve to the lowest
// index. It returns -1 for an empty slice.
func Argmax(scores []float32) int {
	if len(scores) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// ReadClassification reads the artifact at path and returns the label of its
// highest score. labels must hold exactly one entry per class; LoadLabels
// guarantees that.
func ReadClassification(path string, labels Labels, opts ...Option) (Result, error) {
	scores, err := ReadScores(path, len(labels), opts...)
	if err != nil {
		return Result{}, err
	}
	idx := Argmax(scores)
	if idx < 0 || idx >= len(labels) {
		return Result{}, qnn.NewError(qnn.KindOutput, qnn.TargetInvalidIndex, path,
			fmt.Errorf("argmax %d is outside [0, %d)", idx, len(labels)))
	}
	return Result{Index: idx, Label: labels[idx], Score: scores[idx]}, nil
}
