package classify

import (
	"fmt"
	"sort"

	"github.com/amikos-tech/pure-qnn/qnn"
)

// TopK returns the k highest-scoring classes of the artifact at path, best
// first. Equal scores keep their class order. k is clamped to the number of
// labels. An empty label table has no class to report and fails like
// ReadClassification does.
func TopK(path string, labels Labels, k int, opts ...Option) ([]Result, error) {
	if k <= 0 {
		return nil, qnn.NewError(qnn.KindConfiguration, "", "", fmt.Errorf("top-k must be positive, got %d", k))
	}
	scores, err := ReadScores(path, len(labels), opts...)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, qnn.NewError(qnn.KindOutput, qnn.TargetInvalidIndex, path, fmt.Errorf("no classes to rank"))
	}
	return rank(scores, labels, k), nil
}

func rank(scores []float32, labels Labels, k int) []Result {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if k > len(order) {
		k = len(order)
	}

	results := make([]Result, k)
	for i, idx := range order[:k] {
		results[i] = Result{Index: idx, Label: labels[idx], Score: scores[idx]}
	}
	return results
}
