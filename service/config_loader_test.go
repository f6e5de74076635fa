package service

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/config"
)

func TestSimilarityConfigurationLoader_Defaults(t *testing.T) {
	loader := NewSimilarityConfigurationLoader()

	req := loader.DefaultSimilarityConfig()
	require.NotNil(t, req)

	assert.Equal(t, domain.DefaultNumHashes, req.NumHashes)
	assert.Equal(t, domain.DefaultSimilarityThreshold, req.Threshold)
	assert.Equal(t, domain.DefaultBucketBits, req.BucketBits)
	assert.Equal(t, domain.DefaultSeed, req.Seed)
	assert.Equal(t, domain.OutputFormatText, req.OutputFormat)
	assert.True(t, req.Verify)
	assert.True(t, req.Recursive)
}

func TestSimilarityConfigurationLoader_DiscoversTomlFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "docs", "guides")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	content := `
[minhash]
num_hashes = 64
seed = 42

[lsh]
threshold = 0.7
`
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ConfigFileName), []byte(content), 0o644))

	req, err := NewSimilarityConfigurationLoader().LoadSimilarityConfig("", nested)
	require.NoError(t, err)

	assert.Equal(t, 64, req.NumHashes)
	assert.Equal(t, uint64(42), req.Seed)
	assert.Equal(t, 0.7, req.Threshold)
	assert.Equal(t, domain.DefaultShingleSize, req.ShingleSize)
	assert.Equal(t, filepath.Join(root, config.ConfigFileName), req.ConfigPath)
}

func TestSimilarityConfigurationLoader_NoFileFound(t *testing.T) {
	req, err := NewSimilarityConfigurationLoader().LoadSimilarityConfig("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultNumHashes, req.NumHashes)
}

func TestSimilarityConfigurationLoader_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shingle:\n  size: 9\noutput:\n  format: json\n"), 0o644))

	req, err := NewSimilarityConfigurationLoader().LoadSimilarityConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, 9, req.ShingleSize)
	assert.Equal(t, domain.OutputFormatJSON, req.OutputFormat)
	assert.Equal(t, path, req.ConfigPath)

	_, err = NewSimilarityConfigurationLoader().LoadSimilarityConfig(filepath.Join(t.TempDir(), "missing.toml"), "")
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeConfigError))
}

func TestMergeConfig(t *testing.T) {
	base := domain.DefaultSimilarityRequest()
	base.NumHashes = 64
	base.Threshold = 0.7

	var buf bytes.Buffer
	override := &domain.SimilarityRequest{
		Paths:        []string{"corpus"},
		NumHashes:    256,
		Threshold:    0.3,
		Seed:         0,
		Verify:       false,
		OutputFormat: domain.OutputFormatCSV,
		OutputWriter: &buf,
		MetricsFile:  "metrics.prom",
	}
	tracker := config.NewFlagTrackerWithFlags(map[string]bool{
		"threshold": true,
		"verify":    true,
		"format":    true,
	})

	merged := MergeConfig(base, override, tracker)

	assert.Equal(t, []string{"corpus"}, merged.Paths)
	assert.Equal(t, 0.3, merged.Threshold)
	assert.False(t, merged.Verify)
	assert.Equal(t, domain.OutputFormatCSV, merged.OutputFormat)
	assert.Same(t, &buf, merged.OutputWriter)
	assert.Equal(t, "metrics.prom", merged.MetricsFile)

	// Unset flags keep the configured values, even zero-valued overrides.
	assert.Equal(t, 64, merged.NumHashes)
	assert.Equal(t, domain.DefaultSeed, merged.Seed)
	assert.Equal(t, base.IncludePatterns, merged.IncludePatterns)

	// base is not modified
	assert.Equal(t, 0.7, base.Threshold)
}

func TestMergeConfig_NilInputs(t *testing.T) {
	req := domain.DefaultSimilarityRequest()

	assert.Same(t, req, MergeConfig(nil, req, nil))
	assert.Same(t, req, MergeConfig(req, nil, nil))

	merged := MergeConfig(req, &domain.SimilarityRequest{NumHashes: 1}, nil)
	assert.Equal(t, req.NumHashes, merged.NumHashes)
}
