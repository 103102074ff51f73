package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogProgressInterval(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := NewLogProgress(logger, 2, 0)

	p.Start(StageFit, 5)
	for i := 0; i < 5; i++ {
		p.Step(StageFit, i)
	}
	p.Finish(StageFit)

	p.Start(StageEvaluate, 3)
	for i := 0; i < 3; i++ {
		p.Step(StageEvaluate, i)
	}

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "msg=progress stage=fit"))
	assert.Equal(t, 0, strings.Count(out, "msg=progress stage=evaluate"))
	assert.Contains(t, out, "msg=\"stage finished\" stage=fit sentences=5")
}

func TestNewProgress(t *testing.T) {
	p, err := NewProgress("none", nil)
	require.NoError(t, err)
	assert.Equal(t, NoProgress{}, p)

	p, err = NewProgress("", nil)
	require.NoError(t, err)
	assert.IsType(t, &LogProgress{}, p)

	var buf bytes.Buffer
	p, err = NewProgress("bar", &buf)
	require.NoError(t, err)
	p.Start(StageFit, 3)
	for i := 0; i < 3; i++ {
		p.Step(StageFit, i)
	}
	p.Finish(StageFit)
	assert.NotEmpty(t, buf.String())

	_, err = NewProgress("spinner", nil)
	assert.Error(t, err)
}
