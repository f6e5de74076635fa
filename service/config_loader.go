package service

import (
	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/config"
)

// SimilarityConfigurationLoader implements domain.SimilarityConfigurationLoader
type SimilarityConfigurationLoader struct {
	tomlLoader *config.TomlConfigLoader
}

// NewSimilarityConfigurationLoader creates a new configuration loader service
func NewSimilarityConfigurationLoader() *SimilarityConfigurationLoader {
	return &SimilarityConfigurationLoader{
		tomlLoader: config.NewTomlConfigLoader(),
	}
}

// LoadSimilarityConfig loads configPath when given (any format, plus DUPSCAN_*
// environment overrides). Otherwise .dupscan.toml is discovered by walking up
// from targetPath, falling back to the defaults.
func (l *SimilarityConfigurationLoader) LoadSimilarityConfig(configPath, targetPath string) (*domain.SimilarityRequest, error) {
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		req := ConfigToRequest(cfg)
		req.ConfigPath = configPath
		return req, nil
	}

	startDir := targetPath
	if startDir == "" {
		startDir = "."
	}
	cfg, foundPath, err := l.tomlLoader.LoadConfig(startDir)
	if err != nil {
		return nil, err
	}
	req := ConfigToRequest(cfg)
	req.ConfigPath = foundPath
	return req, nil
}

// DefaultSimilarityConfig returns the request built from built-in defaults
func (l *SimilarityConfigurationLoader) DefaultSimilarityConfig() *domain.SimilarityRequest {
	return ConfigToRequest(config.DefaultConfig())
}

// ConfigToRequest converts a loaded configuration into a request
func ConfigToRequest(cfg *config.Config) *domain.SimilarityRequest {
	return &domain.SimilarityRequest{
		Recursive:        cfg.Input.Recursive,
		IncludePatterns:  append([]string(nil), cfg.Input.IncludePatterns...),
		ExcludePatterns:  append([]string(nil), cfg.Input.ExcludePatterns...),
		MaxFileSizeBytes: cfg.Input.MaxFileSizeBytes,

		ShingleSize: cfg.Shingle.Size,
		Normalize:   cfg.Shingle.Normalize,

		NumHashes:      cfg.MinHash.NumHashes,
		Seed:           cfg.MinHash.Seed,
		Workers:        cfg.MinHash.Workers,
		MaxMatrixCells: cfg.MinHash.MaxMatrixCells,

		Threshold:      cfg.LSH.Threshold,
		RowsPerBand:    cfg.LSH.RowsPerBand,
		BucketBits:     cfg.LSH.BucketBits,
		MaxBucketSlots: cfg.LSH.MaxBucketSlots,

		Verify:         cfg.Verify.Enabled,
		KeepUnverified: cfg.Verify.KeepUnverified,

		OutputFormat: domain.OutputFormat(cfg.Output.Format),
		SortBy:       domain.SortCriteria(cfg.Output.SortBy),
		MaxResults:   cfg.Output.MaxResults,
	}
}

// MergeConfig overlays command line values onto the loaded configuration.
// Only flags recorded in tracker win; paths, writer and metrics file always
// come from override.
func MergeConfig(base, override *domain.SimilarityRequest, tracker *config.FlagTracker) *domain.SimilarityRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}
	if tracker == nil {
		tracker = config.NewFlagTracker()
	}

	merged := *base

	// Always override paths as they come from command arguments
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	merged.Recursive = config.Merge(tracker, merged.Recursive, override.Recursive, "recursive")
	merged.IncludePatterns = tracker.MergeStringSlice(merged.IncludePatterns, override.IncludePatterns, "include")
	merged.ExcludePatterns = tracker.MergeStringSlice(merged.ExcludePatterns, override.ExcludePatterns, "exclude")
	merged.MaxFileSizeBytes = config.Merge(tracker, merged.MaxFileSizeBytes, override.MaxFileSizeBytes, "max-file-size")

	merged.ShingleSize = config.Merge(tracker, merged.ShingleSize, override.ShingleSize, "shingle-size")
	merged.Normalize = config.Merge(tracker, merged.Normalize, override.Normalize, "normalize")

	merged.Threshold = config.Merge(tracker, merged.Threshold, override.Threshold, "threshold")
	merged.NumHashes = config.Merge(tracker, merged.NumHashes, override.NumHashes, "num-hashes")
	merged.RowsPerBand = config.Merge(tracker, merged.RowsPerBand, override.RowsPerBand, "rows-per-band")
	merged.Seed = config.Merge(tracker, merged.Seed, override.Seed, "seed")
	merged.BucketBits = config.Merge(tracker, merged.BucketBits, override.BucketBits, "bucket-bits")
	merged.Workers = config.Merge(tracker, merged.Workers, override.Workers, "workers")
	merged.MaxMatrixCells = config.Merge(tracker, merged.MaxMatrixCells, override.MaxMatrixCells, "max-matrix-cells")
	merged.MaxBucketSlots = config.Merge(tracker, merged.MaxBucketSlots, override.MaxBucketSlots, "max-bucket-slots")

	merged.Verify = config.Merge(tracker, merged.Verify, override.Verify, "verify")
	merged.KeepUnverified = config.Merge(tracker, merged.KeepUnverified, override.KeepUnverified, "keep-unverified")

	merged.OutputFormat = config.Merge(tracker, merged.OutputFormat, override.OutputFormat, "format")
	merged.SortBy = config.Merge(tracker, merged.SortBy, override.SortBy, "sort")
	merged.MaxResults = config.Merge(tracker, merged.MaxResults, override.MaxResults, "max-results")

	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.MetricsFile != "" {
		merged.MetricsFile = override.MetricsFile
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

