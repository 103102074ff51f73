package split

import (
	"fmt"
	"math/rand"

	"crf-trainer/internal/core/types"
)

// KFold partitions a collection into folds contiguous chunks of a seeded permutation.
// The same (collection, folds, seed) always yields the same partitions.
type KFold struct{}

func (KFold) Split(sentences []types.Sentence, folds int, seed int64, fold int) ([]types.Sentence, []types.Sentence, error) {
	return Partition(sentences, folds, seed, fold)
}

func Partition[T any](data []T, folds int, seed int64, fold int) ([]T, []T, error) {
	if folds < 2 {
		return nil, nil, fmt.Errorf("fold count must be at least 2, got %d", folds)
	}
	if fold < 0 || fold >= folds {
		return nil, nil, fmt.Errorf("fold index %d out of range [0, %d)", fold, folds)
	}
	if len(data) < folds {
		return nil, nil, fmt.Errorf("cannot split %d items into %d folds", len(data), folds)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(len(data))
	start, end := foldBounds(len(data), folds, fold)

	train := make([]T, 0, len(data)-(end-start))
	test := make([]T, 0, end-start)

	for pos, i := range perm {
		if pos >= start && pos < end {
			test = append(test, data[i])
		} else {
			train = append(train, data[i])
		}
	}

	return train, test, nil
}

// foldBounds spreads the remainder over the first n%folds folds so fold sizes differ
// by at most one.
func foldBounds(n, folds, fold int) (int, int) {
	base, extra := n/folds, n%folds
	start := fold*base + min(fold, extra)
	size := base
	if fold < extra {
		size++
	}
	return start, start + size
}
