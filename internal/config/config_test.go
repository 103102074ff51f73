package config

import (
	"os"
	"path/filepath"
	"testing"

	"crf-trainer/internal/core/crfpp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "sqlite://crf_runs.db", cfg.DatabaseURL)
	assert.Equal(t, "crf-models", cfg.ModelBucketName)
	assert.Equal(t, "crf_learn", cfg.CRF.LearnPath)
	assert.Equal(t, "crf_test", cfg.CRF.TestPath)
	assert.Zero(t, cfg.CRF.Cost)
}

func TestParseConfigCRFOptions(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"CRF_LEARN_PATH": "/opt/crf/bin/crf_learn",
		"CRF_COST":       "4.5",
		"CRF_FREQ":       "2",
		"CRF_THREADS":    "8",
		"CRF_ALGORITHM":  crfpp.AlgorithmMIRA,
		"CRF_MAX_ITER":   "100",
		"DATABASE_URL":   "postgres://user:pw@localhost:5432/crf",
	})
	require.NoError(t, err)

	assert.Equal(t, "/opt/crf/bin/crf_learn", cfg.CRF.LearnPath)
	assert.Equal(t, 4.5, cfg.CRF.Cost)
	assert.Equal(t, 2, cfg.CRF.Freq)
	assert.Equal(t, 8, cfg.CRF.Threads)
	assert.Equal(t, crfpp.AlgorithmMIRA, cfg.CRF.Algorithm)
	assert.Equal(t, 100, cfg.CRF.MaxIter)
	assert.Equal(t, "postgres://user:pw@localhost:5432/crf", cfg.DatabaseURL)
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig(map[string]string{"CRF_ALGORITHM": "SGD"})
	assert.Error(t, err)

	_, err = ParseConfig(map[string]string{"CRF_COST": "-1"})
	assert.Error(t, err)

	_, err = ParseConfig(map[string]string{"CRF_FREQ": "many"})
	assert.Error(t, err)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.env")
	require.NoError(t, os.WriteFile(path, []byte("CRF_THREADS=3\nMODEL_BUCKET_NAME=ner-crf\n"), 0o644))
	t.Setenv("CRF_THREADS", "")
	require.NoError(t, os.Unsetenv("CRF_THREADS"))
	t.Setenv("MODEL_BUCKET_NAME", "")
	require.NoError(t, os.Unsetenv("MODEL_BUCKET_NAME"))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.CRF.Threads)
	assert.Equal(t, "ner-crf", cfg.ModelBucketName)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
