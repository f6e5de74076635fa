package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/dupscan/domain"
)

// EnvPrefix is the prefix of environment variables that override configuration,
// e.g. DUPSCAN_LSH_THRESHOLD=0.7
const EnvPrefix = "DUPSCAN"

// Config represents the main configuration structure
type Config struct {
	// Input holds file collection settings
	Input InputConfig `mapstructure:"input" toml:"input" yaml:"input"`

	// Shingle holds tokenizer settings
	Shingle ShingleConfig `mapstructure:"shingle" toml:"shingle" yaml:"shingle"`

	// MinHash holds signature generation settings
	MinHash MinHashConfig `mapstructure:"minhash" toml:"minhash" yaml:"minhash"`

	// LSH holds banding settings
	LSH LSHConfig `mapstructure:"lsh" toml:"lsh" yaml:"lsh"`

	// Verify holds candidate verification settings
	Verify VerifyConfig `mapstructure:"verify" toml:"verify" yaml:"verify"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" toml:"output" yaml:"output"`
}

// InputConfig holds file collection settings
type InputConfig struct {
	IncludePatterns  []string `mapstructure:"include_patterns" toml:"include_patterns" yaml:"include_patterns"`
	ExcludePatterns  []string `mapstructure:"exclude_patterns" toml:"exclude_patterns" yaml:"exclude_patterns"`
	Recursive        bool     `mapstructure:"recursive" toml:"recursive" yaml:"recursive"`
	MaxFileSizeBytes int64    `mapstructure:"max_file_size_bytes" toml:"max_file_size_bytes" yaml:"max_file_size_bytes"`
}

// ShingleConfig holds tokenizer settings
type ShingleConfig struct {
	// Size is the k-gram width in characters
	Size int `mapstructure:"size" toml:"size" yaml:"size"`

	// Normalize lower-cases text and collapses whitespace before shingling
	Normalize bool `mapstructure:"normalize" toml:"normalize" yaml:"normalize"`
}

// MinHashConfig holds signature generation settings
type MinHashConfig struct {
	NumHashes      int    `mapstructure:"num_hashes" toml:"num_hashes" yaml:"num_hashes"`
	Seed           uint64 `mapstructure:"seed" toml:"seed" yaml:"seed"`
	Workers        int    `mapstructure:"workers" toml:"workers" yaml:"workers"` // 0 = GOMAXPROCS
	MaxMatrixCells int64  `mapstructure:"max_matrix_cells" toml:"max_matrix_cells" yaml:"max_matrix_cells"`
}

// LSHConfig holds banding settings
type LSHConfig struct {
	// Threshold is the similarity the banding S-curve is tuned to
	Threshold float64 `mapstructure:"threshold" toml:"threshold" yaml:"threshold"`

	// RowsPerBand forces r; 0 derives it from Threshold
	RowsPerBand int `mapstructure:"rows_per_band" toml:"rows_per_band" yaml:"rows_per_band"`

	// BucketBits sets 2^BucketBits bucket slots per band
	BucketBits     int   `mapstructure:"bucket_bits" toml:"bucket_bits" yaml:"bucket_bits"`
	MaxBucketSlots int64 `mapstructure:"max_bucket_slots" toml:"max_bucket_slots" yaml:"max_bucket_slots"`
}

// VerifyConfig holds candidate verification settings
type VerifyConfig struct {
	// Enabled computes exact Jaccard similarity for every candidate pair
	Enabled bool `mapstructure:"enabled" toml:"enabled" yaml:"enabled"`

	// KeepUnverified reports candidates that fall below the threshold
	KeepUnverified bool `mapstructure:"keep_unverified" toml:"keep_unverified" yaml:"keep_unverified"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `mapstructure:"format" toml:"format" yaml:"format"`

	// SortBy specifies how to sort pairs: similarity, location
	SortBy string `mapstructure:"sort_by" toml:"sort_by" yaml:"sort_by"`

	// MaxResults limits reported pairs; 0 means unlimited
	MaxResults int `mapstructure:"max_results" toml:"max_results" yaml:"max_results"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			IncludePatterns:  append([]string(nil), domain.DefaultIncludePatterns...),
			ExcludePatterns:  append([]string(nil), domain.DefaultExcludePatterns...),
			Recursive:        true,
			MaxFileSizeBytes: domain.DefaultMaxFileSizeBytes,
		},
		Shingle: ShingleConfig{
			Size:      domain.DefaultShingleSize,
			Normalize: true,
		},
		MinHash: MinHashConfig{
			NumHashes:      domain.DefaultNumHashes,
			Seed:           domain.DefaultSeed,
			MaxMatrixCells: domain.DefaultMaxMatrixCells,
		},
		LSH: LSHConfig{
			Threshold:      domain.DefaultSimilarityThreshold,
			BucketBits:     domain.DefaultBucketBits,
			MaxBucketSlots: domain.DefaultMaxBucketSlots,
		},
		Verify: VerifyConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Format: string(domain.OutputFormatText),
			SortBy: string(domain.SortBySimilarity),
		},
	}
}

// LoadConfig reads configPath (any format viper understands) on top of the
// defaults and applies DUPSCAN_* environment overrides. An empty path
// yields the defaults plus environment.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, domain.NewConfigError(fmt.Sprintf("failed to read config file %s", configPath), err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, domain.NewConfigError("failed to unmarshal config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// newViper returns an isolated viper instance with every key registered, so
// AutomaticEnv can resolve keys that the file does not mention.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("input.include_patterns", d.Input.IncludePatterns)
	v.SetDefault("input.exclude_patterns", d.Input.ExcludePatterns)
	v.SetDefault("input.recursive", d.Input.Recursive)
	v.SetDefault("input.max_file_size_bytes", d.Input.MaxFileSizeBytes)
	v.SetDefault("shingle.size", d.Shingle.Size)
	v.SetDefault("shingle.normalize", d.Shingle.Normalize)
	v.SetDefault("minhash.num_hashes", d.MinHash.NumHashes)
	v.SetDefault("minhash.seed", d.MinHash.Seed)
	v.SetDefault("minhash.workers", d.MinHash.Workers)
	v.SetDefault("minhash.max_matrix_cells", d.MinHash.MaxMatrixCells)
	v.SetDefault("lsh.threshold", d.LSH.Threshold)
	v.SetDefault("lsh.rows_per_band", d.LSH.RowsPerBand)
	v.SetDefault("lsh.bucket_bits", d.LSH.BucketBits)
	v.SetDefault("lsh.max_bucket_slots", d.LSH.MaxBucketSlots)
	v.SetDefault("verify.enabled", d.Verify.Enabled)
	v.SetDefault("verify.keep_unverified", d.Verify.KeepUnverified)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.sort_by", d.Output.SortBy)
	v.SetDefault("output.max_results", d.Output.MaxResults)
	return v
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if len(c.Input.IncludePatterns) == 0 {
		return domain.NewConfigError("input.include_patterns cannot be empty", nil)
	}
	if c.Input.MaxFileSizeBytes < 0 {
		return domain.NewConfigError(fmt.Sprintf("input.max_file_size_bytes must be >= 0, got %d", c.Input.MaxFileSizeBytes), nil)
	}

	if c.Shingle.Size < 1 {
		return domain.NewConfigError(fmt.Sprintf("shingle.size must be >= 1, got %d", c.Shingle.Size), nil)
	}

	if c.MinHash.NumHashes < 1 {
		return domain.NewConfigError(fmt.Sprintf("minhash.num_hashes must be >= 1, got %d", c.MinHash.NumHashes), nil)
	}
	if c.MinHash.Workers < 0 {
		return domain.NewConfigError(fmt.Sprintf("minhash.workers must be >= 0, got %d", c.MinHash.Workers), nil)
	}
	if c.MinHash.MaxMatrixCells < 0 {
		return domain.NewConfigError(fmt.Sprintf("minhash.max_matrix_cells must be >= 0, got %d", c.MinHash.MaxMatrixCells), nil)
	}

	if !(c.LSH.Threshold > 0 && c.LSH.Threshold < 1) {
		return domain.NewConfigError(fmt.Sprintf("lsh.threshold must be in (0, 1), got %g", c.LSH.Threshold), nil)
	}
	if c.LSH.RowsPerBand < 0 || c.LSH.RowsPerBand > c.MinHash.NumHashes {
		return domain.NewConfigError(fmt.Sprintf("lsh.rows_per_band (%d) must be between 0 and minhash.num_hashes (%d)",
			c.LSH.RowsPerBand, c.MinHash.NumHashes), nil)
	}
	if c.LSH.BucketBits < domain.MinBucketBits || c.LSH.BucketBits > domain.MaxBucketBits {
		return domain.NewConfigError(fmt.Sprintf("lsh.bucket_bits must be between %d and %d, got %d",
			domain.MinBucketBits, domain.MaxBucketBits, c.LSH.BucketBits), nil)
	}
	if c.LSH.MaxBucketSlots < 0 {
		return domain.NewConfigError(fmt.Sprintf("lsh.max_bucket_slots must be >= 0, got %d", c.LSH.MaxBucketSlots), nil)
	}

	if _, err := domain.ParseOutputFormat(c.Output.Format); err != nil {
		return domain.NewConfigError(fmt.Sprintf("invalid output.format '%s', must be one of: text, json, yaml, csv", c.Output.Format), err)
	}
	switch domain.SortCriteria(c.Output.SortBy) {
	case domain.SortBySimilarity, domain.SortByLocation:
	default:
		return domain.NewConfigError(fmt.Sprintf("invalid output.sort_by '%s', must be one of: similarity, location", c.Output.SortBy), nil)
	}
	if c.Output.MaxResults < 0 {
		return domain.NewConfigError(fmt.Sprintf("output.max_results must be >= 0, got %d", c.Output.MaxResults), nil)
	}

	return nil
}
