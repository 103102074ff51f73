package types_test

import (
	"crf-trainer/internal/core/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func keys(entities []types.Entity) []types.Key {
	out := make([]types.Key, len(entities))
	for i, e := range entities {
		out[i] = e.Key()
	}
	return out
}

func TestDecodeEntities(t *testing.T) {
	tokens := []string{"John", "Smith", "lives", "in", "New", "York", "City", "."}

	tests := []struct {
		name   string
		labels []string
		want   []types.Key
	}{
		{
			name:   "bio",
			labels: []string{"B-PER", "I-PER", "O", "O", "B-LOC", "I-LOC", "I-LOC", "O"},
			want:   []types.Key{{"PER", 0, 2}, {"LOC", 4, 7}},
		},
		{
			name:   "bioes",
			labels: []string{"B-PER", "E-PER", "O", "O", "B-LOC", "I-LOC", "E-LOC", "S-MISC"},
			want:   []types.Key{{"PER", 0, 2}, {"LOC", 4, 7}, {"MISC", 7, 8}},
		},
		{
			name:   "no prefix",
			labels: []string{"PER", "PER", "O", "O", "LOC", "LOC", "LOC", "O"},
			want:   []types.Key{{"PER", 0, 2}, {"LOC", 4, 7}},
		},
		{
			name:   "dangling inside starts entity",
			labels: []string{"I-PER", "O", "O", "O", "I-LOC", "B-LOC", "O", "O"},
			want:   []types.Key{{"PER", 0, 1}, {"LOC", 4, 5}, {"LOC", 5, 6}},
		},
		{
			name:   "type change splits entity",
			labels: []string{"B-PER", "I-LOC", "O", "O", "O", "O", "O", "O"},
			want:   []types.Key{{"PER", 0, 1}, {"LOC", 1, 2}},
		},
		{
			name:   "all outside",
			labels: []string{"O", "O", "O", "O", "O", "O", "O", "O"},
			want:   []types.Key{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keys(types.DecodeEntities(tokens, tt.labels))
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestCreateEntityContext(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	e := types.CreateEntity("X", tokens, 4, 5)

	assert.Equal(t, "e", e.Text)
	assert.Equal(t, "b c d", e.LContext)
	assert.Equal(t, "f g h", e.RContext)
}

func TestCreateEntityOutOfRange(t *testing.T) {
	tokens := []string{"a", "b"}

	e := types.CreateEntity("X", tokens, 3, 4)
	assert.Equal(t, 2, e.Start)
	assert.Equal(t, 2, e.End)
	assert.Empty(t, e.Text)
	assert.Equal(t, "a b", e.LContext)

	e = types.CreateEntity("X", tokens, -1, 1)
	assert.Equal(t, 0, e.Start)
	assert.Equal(t, "a", e.Text)
}

func TestEntityTypes(t *testing.T) {
	got := types.EntityTypes(
		[]string{"B-PER", "I-PER", "O", "B-LOC"},
		[]string{"S-MISC", "O", "PER"},
	)
	assert.Equal(t, []string{"PER", "LOC", "MISC"}, got)
}
