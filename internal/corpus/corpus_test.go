package corpus_test

import (
	"crf-trainer/internal/corpus"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONL(t *testing.T) {
	data := `{"id": "a", "tokens": ["John", "lives", "here"], "labels": ["B-PER", "O", "O"], "attrs": {"pos": ["NNP", "VBZ", "RB"]}, "vecs": {"emb": [[0.1], [0.2], [0.3]]}}

{"tokens": ["Paris"], "labels": ["S-LOC"]}
`
	sentences, err := corpus.ReadJSONL(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	assert.Equal(t, "a", sentences[0].Id)
	assert.Equal(t, "VBZ", sentences[0].Tokens[1].Attrs["pos"])
	assert.Equal(t, []float64{0.3}, sentences[0].Tokens[2].Vecs["emb"])
	assert.Equal(t, "line-3", sentences[1].Id)
	assert.Nil(t, sentences[1].Tokens[0].Attrs)

	assert.Equal(t, []string{"PER", "LOC"}, corpus.Labels(sentences))
}

func TestReadJSONLErrors(t *testing.T) {
	_, err := corpus.ReadJSONL(strings.NewReader(`{"tokens": ["a", "b"], "labels": ["O"]}`))
	assert.ErrorContains(t, err, "1 labels for 2 tokens")

	_, err = corpus.ReadJSONL(strings.NewReader(`{"tokens": [], "labels": []}`))
	assert.Error(t, err)

	_, err = corpus.ReadJSONL(strings.NewReader(`{"tokens": ["a"], "labels": ["O"], "attrs": {"pos": []}}`))
	assert.ErrorContains(t, err, `attr "pos"`)

	_, err = corpus.ReadJSONL(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestReadCoNLL(t *testing.T) {
	data := "-DOCSTART- -X- O\n\nEU NNP B-ORG\nrejects VBZ O\n\n\nPeter NNP B-PER\nBlackburn NNP I-PER\n"
	sentences, err := corpus.ReadCoNLL(strings.NewReader(data), []string{"pos"})
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	assert.Equal(t, "s0", sentences[0].Id)
	assert.Equal(t, []string{"EU", "rejects"}, sentences[0].Texts())
	assert.Equal(t, "NNP", sentences[0].Tokens[0].Attrs["pos"])
	assert.Equal(t, []string{"B-PER", "I-PER"}, sentences[1].Labels())
	assert.Equal(t, []string{"ORG", "PER"}, corpus.Labels(sentences))
}

func TestReadCoNLLColumnNames(t *testing.T) {
	sentences, err := corpus.ReadCoNLL(strings.NewReader("a x y O\n"), []string{"pos"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"pos": "x", "col2": "y"}, sentences[0].Tokens[0].Attrs)

	_, err = corpus.ReadCoNLL(strings.NewReader("a x O\nb O\n"), nil)
	assert.ErrorContains(t, err, "line 2")

	_, err = corpus.ReadCoNLL(strings.NewReader("lonely\n"), nil)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.conll")
	require.NoError(t, os.WriteFile(path, []byte("Go B-LANG\nrocks O\n"), 0o644))

	sentences, err := corpus.Load(path, corpus.CoNLL, nil)
	require.NoError(t, err)
	assert.Len(t, sentences, 1)

	_, err = corpus.Load(filepath.Join(t.TempDir(), "missing.jsonl"), corpus.JSONL, nil)
	assert.Error(t, err)

	_, err = corpus.ParseFormat("parquet")
	assert.ErrorIs(t, err, corpus.ErrUnknownFormat)

	format, err := corpus.ParseFormat("CoNLL")
	require.NoError(t, err)
	assert.Equal(t, corpus.CoNLL, format)
}
