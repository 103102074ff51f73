package crfpp

import (
	"bytes"
	"context"
	"crf-trainer/internal/core/features"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	stdout func(args []string) []byte
	err    error
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.err != nil {
		return nil, []byte("boom on stderr"), f.err
	}
	if strings.HasSuffix(name, "learn") {
		modelPath := args[len(args)-1]
		if err := os.WriteFile(modelPath, []byte("model"), 0o644); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	return f.stdout(args), nil, nil
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, 4, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var unigrams []string
	for _, l := range lines {
		if strings.HasPrefix(l, "U") {
			unigrams = append(unigrams, l)
		}
	}
	assert.Equal(t, []string{"U000:%x[0,0]", "U001:%x[0,1]", "U002:%x[0,2]", "U003:%x[0,3]"}, unigrams)
	assert.Equal(t, "B", lines[len(lines)-1])
	assert.NotContains(t, buf.String(), "%x[0,4]")

	buf.Reset()
	require.NoError(t, WriteTemplate(&buf, 2, []int{-1, 0, 1}))
	assert.Contains(t, buf.String(), "U005:%x[1,1]\n")

	assert.Error(t, WriteTemplate(&buf, 0, nil))
}

func TestGenerateTemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model", "template")
	require.NoError(t, GenerateTemplate(path, 3, []int{0}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\nU"))
}

func TestFitArgs(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	engine, err := NewCRFPP(Options{LearnPath: "/opt/crf_learn", Cost: 1.5, Freq: 2, Threads: 4, Algorithm: AlgorithmMIRA, MaxIter: 100}, runner.run)
	require.NoError(t, err)

	modelPath := filepath.Join(dir, "model")
	require.NoError(t, engine.Fit(context.Background(), "feats.txt", modelPath, "template"))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/opt/crf_learn", runner.calls[0].name)
	assert.Equal(t, []string{"-c", "1.5", "-f", "2", "-p", "4", "-a", "MIRA", "-m", "100", "template", "feats.txt", modelPath}, runner.calls[0].args)
}

func TestFitFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	engine, err := NewCRFPP(Options{}, runner.run)
	require.NoError(t, err)

	err = engine.Fit(context.Background(), "feats.txt", filepath.Join(t.TempDir(), "model"), "template")
	var engineErr *EngineError
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, "fit", engineErr.Op)
	assert.Contains(t, err.Error(), "boom on stderr")
}

func TestTag(t *testing.T) {
	var seenInput string
	runner := &fakeRunner{
		stdout: func(args []string) []byte {
			data, err := os.ReadFile(args[len(args)-1])
			if err != nil {
				return nil
			}
			seenInput = string(data)
			var out strings.Builder
			for i, line := range strings.Split(strings.TrimRight(seenInput, "\n"), "\n") {
				if line == "" {
					out.WriteString("\n")
					continue
				}
				fmt.Fprintf(&out, "%s\t%s\n", line, []string{"B-PER", "I-PER", "O"}[i%3])
			}
			return []byte(out.String())
		},
	}
	engine, err := NewCRFPP(Options{WorkDir: t.TempDir()}, runner.run)
	require.NoError(t, err)

	rows := []features.Row{
		{Values: []string{"John", "Xx"}, Label: "B-PER"},
		{Values: []string{"Smith", "Xx"}, Label: "I-PER"},
		{Values: []string{"runs", "x"}, Label: "O"},
		features.SentenceBoundary,
	}

	labels, err := engine.Tag(context.Background(), "model", rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"B-PER", "I-PER", "O"}, labels)

	assert.Equal(t, "John\tXx\nSmith\tXx\nruns\tx\n\n", seenInput)
	assert.Equal(t, []string{"-m", "model"}, runner.calls[0].args[:2])
}

func TestTagLabelCountMismatch(t *testing.T) {
	runner := &fakeRunner{stdout: func([]string) []byte { return []byte("a\tO\n\n") }}
	engine, err := NewCRFPP(Options{WorkDir: t.TempDir()}, runner.run)
	require.NoError(t, err)

	rows := []features.Row{{Values: []string{"a"}}, {Values: []string{"b"}}, features.SentenceBoundary}
	_, err = engine.Tag(context.Background(), "model", rows)
	assert.Error(t, err)
}

func TestParseTaggerOutput(t *testing.T) {
	out := "# 0.912\nJohn\tXx\tB-PER/0.95\nruns\tx\tO/0.99\n\n"
	labels, err := parseTaggerOutput([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"B-PER", "O"}, labels)
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := NewCRFPP(Options{Algorithm: "SGD"}, nil)
	assert.Error(t, err)
}
