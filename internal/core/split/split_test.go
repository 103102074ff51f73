package split_test

import (
	"crf-trainer/internal/core/split"
	"crf-trainer/internal/core/types"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentences(n int) []types.Sentence {
	out := make([]types.Sentence, n)
	for i := range out {
		out[i] = types.Sentence{Id: fmt.Sprintf("s%d", i)}
	}
	return out
}

func ids(sents []types.Sentence) []string {
	out := make([]string, len(sents))
	for i, s := range sents {
		out[i] = s.Id
	}
	return out
}

func TestKFoldDeterministic(t *testing.T) {
	data := sentences(23)

	train1, test1, err := split.KFold{}.Split(data, 5, 10, 2)
	require.NoError(t, err)
	train2, test2, err := split.KFold{}.Split(data, 5, 10, 2)
	require.NoError(t, err)

	assert.Equal(t, ids(train1), ids(train2))
	assert.Equal(t, ids(test1), ids(test2))

	_, test3, err := split.KFold{}.Split(data, 5, 11, 2)
	require.NoError(t, err)
	assert.NotEqual(t, ids(test1), ids(test3))
}

func TestKFoldCoversEveryItemOnce(t *testing.T) {
	data := sentences(23)
	const folds = 5

	seen := make(map[string]int)
	for fold := 0; fold < folds; fold++ {
		train, test, err := split.KFold{}.Split(data, folds, 42, fold)
		require.NoError(t, err)
		assert.Len(t, train, len(data)-len(test))
		assert.Contains(t, []int{4, 5}, len(test))

		inTest := make(map[string]bool)
		for _, s := range test {
			seen[s.Id]++
			inTest[s.Id] = true
		}
		for _, s := range train {
			assert.False(t, inTest[s.Id], "sentence %s in both train and test", s.Id)
		}
	}

	assert.Len(t, seen, len(data))
	for id, count := range seen {
		assert.Equal(t, 1, count, id)
	}
}

func TestKFoldInvalidArguments(t *testing.T) {
	data := sentences(3)

	_, _, err := split.KFold{}.Split(data, 1, 0, 0)
	assert.Error(t, err)

	_, _, err = split.KFold{}.Split(data, 3, 0, 3)
	assert.Error(t, err)

	_, _, err = split.KFold{}.Split(data, 4, 0, 0)
	assert.Error(t, err)
}
