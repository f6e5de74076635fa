package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/dupscan/domain"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MinHash.NumHashes != domain.DefaultNumHashes {
		t.Errorf("Expected num_hashes %d, got %d", domain.DefaultNumHashes, config.MinHash.NumHashes)
	}
	if config.MinHash.Seed != domain.DefaultSeed {
		t.Errorf("Expected seed %d, got %d", domain.DefaultSeed, config.MinHash.Seed)
	}
	if config.LSH.Threshold != domain.DefaultSimilarityThreshold {
		t.Errorf("Expected threshold %g, got %g", domain.DefaultSimilarityThreshold, config.LSH.Threshold)
	}
	if config.LSH.RowsPerBand != 0 {
		t.Errorf("Expected rows_per_band 0 (derived), got %d", config.LSH.RowsPerBand)
	}
	if config.LSH.BucketBits != domain.DefaultBucketBits {
		t.Errorf("Expected bucket_bits %d, got %d", domain.DefaultBucketBits, config.LSH.BucketBits)
	}
	if !config.Verify.Enabled {
		t.Error("Expected verification to be enabled by default")
	}
	if !config.Shingle.Normalize {
		t.Error("Expected normalization to be enabled by default")
	}
	if config.Output.Format != "text" {
		t.Errorf("Expected format 'text', got %s", config.Output.Format)
	}
	if !config.Input.Recursive {
		t.Error("Expected recursive to be true by default")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestDefaultConfigDoesNotShareSlices(t *testing.T) {
	a := DefaultConfig()
	a.Input.IncludePatterns[0] = "changed"

	b := DefaultConfig()
	if b.Input.IncludePatterns[0] == "changed" {
		t.Error("DefaultConfig must return fresh pattern slices")
	}
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{name: "defaults", modify: func(c *Config) {}, valid: true},
		{name: "threshold zero", modify: func(c *Config) { c.LSH.Threshold = 0 }},
		{name: "threshold one", modify: func(c *Config) { c.LSH.Threshold = 1 }},
		{name: "threshold NaN", modify: func(c *Config) { c.LSH.Threshold = math.NaN() }},
		{name: "threshold infinite", modify: func(c *Config) { c.LSH.Threshold = math.Inf(1) }},
		{name: "threshold inside", modify: func(c *Config) { c.LSH.Threshold = 0.85 }, valid: true},
		{name: "no hashes", modify: func(c *Config) { c.MinHash.NumHashes = 0 }},
		{name: "rows exceed hashes", modify: func(c *Config) { c.LSH.RowsPerBand = 200 }},
		{name: "rows forced", modify: func(c *Config) { c.LSH.RowsPerBand = 8 }, valid: true},
		{name: "bucket bits too small", modify: func(c *Config) { c.LSH.BucketBits = 4 }},
		{name: "bucket bits too large", modify: func(c *Config) { c.LSH.BucketBits = 33 }},
		{name: "negative workers", modify: func(c *Config) { c.MinHash.Workers = -1 }},
		{name: "shingle size zero", modify: func(c *Config) { c.Shingle.Size = 0 }},
		{name: "no include patterns", modify: func(c *Config) { c.Input.IncludePatterns = nil }},
		{name: "bad format", modify: func(c *Config) { c.Output.Format = "html" }},
		{name: "bad sort", modify: func(c *Config) { c.Output.SortBy = "size" }},
		{name: "negative max results", modify: func(c *Config) { c.Output.MaxResults = -1 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.modify(config)
			err := config.Validate()

			if tc.valid && err != nil {
				t.Errorf("Expected valid config, got error: %v", err)
			}
			if !tc.valid {
				if err == nil {
					t.Fatal("Expected validation error, got nil")
				}
				if !domain.IsErrorCode(err, domain.ErrCodeConfigError) {
					t.Errorf("Expected CONFIG_ERROR, got %v", err)
				}
			}
		})
	}
}

func TestLoadConfigYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dupscan.yaml")
	content := `lsh:
  threshold: 0.8
  bucket_bits: 16
minhash:
  num_hashes: 64
output:
  format: json
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.LSH.Threshold != 0.8 {
		t.Errorf("Expected threshold 0.8, got %g", config.LSH.Threshold)
	}
	if config.LSH.BucketBits != 16 {
		t.Errorf("Expected bucket_bits 16, got %d", config.LSH.BucketBits)
	}
	if config.MinHash.NumHashes != 64 {
		t.Errorf("Expected num_hashes 64, got %d", config.MinHash.NumHashes)
	}
	if config.Output.Format != "json" {
		t.Errorf("Expected format json, got %s", config.Output.Format)
	}
	// untouched keys keep defaults
	if config.Shingle.Size != domain.DefaultShingleSize {
		t.Errorf("Expected default shingle size, got %d", config.Shingle.Size)
	}
	if config.MinHash.Seed != domain.DefaultSeed {
		t.Errorf("Expected default seed, got %d", config.MinHash.Seed)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DUPSCAN_LSH_THRESHOLD", "0.65")
	t.Setenv("DUPSCAN_MINHASH_SEED", "42")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.LSH.Threshold != 0.65 {
		t.Errorf("Expected threshold 0.65 from environment, got %g", config.LSH.Threshold)
	}
	if config.MinHash.Seed != 42 {
		t.Errorf("Expected seed 42 from environment, got %d", config.MinHash.Seed)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !domain.IsErrorCode(err, domain.ErrCodeConfigError) {
		t.Errorf("Expected CONFIG_ERROR, got %v", err)
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(configPath, []byte("[lsh]\nthreshold = 1.5\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("Expected validation error for threshold 1.5")
	}
}
