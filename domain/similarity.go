package domain

import (
	"context"
	"fmt"
	"io"
	"time"
)

// SimilarityRequest describes one near-duplicate detection run
type SimilarityRequest struct {
	// Input
	Paths           []string `json:"paths" yaml:"paths"`
	Recursive       bool     `json:"recursive" yaml:"recursive"`
	IncludePatterns []string `json:"include_patterns" yaml:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns" yaml:"exclude_patterns"`
	ConfigPath      string   `json:"config_path,omitempty" yaml:"config_path,omitempty"`

	// Tokenizing
	ShingleSize int  `json:"shingle_size" yaml:"shingle_size"`
	Normalize   bool `json:"normalize" yaml:"normalize"`

	// MinHash / LSH
	Threshold   float64 `json:"threshold" yaml:"threshold"`
	NumHashes   int     `json:"num_hashes" yaml:"num_hashes"`
	RowsPerBand int     `json:"rows_per_band" yaml:"rows_per_band"` // 0 = derive from Threshold
	Seed        uint64  `json:"seed" yaml:"seed"`
	BucketBits  int     `json:"bucket_bits" yaml:"bucket_bits"`
	Workers     int     `json:"workers" yaml:"workers"` // 0 = GOMAXPROCS

	// Verification of candidates
	Verify         bool `json:"verify" yaml:"verify"`                   // compute exact Jaccard per candidate
	KeepUnverified bool `json:"keep_unverified" yaml:"keep_unverified"` // report candidates below threshold too

	// Resource limits
	MaxMatrixCells   int64 `json:"max_matrix_cells" yaml:"max_matrix_cells"`
	MaxBucketSlots   int64 `json:"max_bucket_slots" yaml:"max_bucket_slots"`
	MaxFileSizeBytes int64 `json:"max_file_size_bytes" yaml:"max_file_size_bytes"`

	// Output
	OutputFormat OutputFormat `json:"output_format" yaml:"output_format"`
	OutputWriter io.Writer    `json:"-" yaml:"-"`
	SortBy       SortCriteria `json:"sort_by" yaml:"sort_by"`
	MaxResults   int          `json:"max_results" yaml:"max_results"` // 0 = unlimited
	MetricsFile  string       `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// DefaultSimilarityRequest returns a request populated with defaults
func DefaultSimilarityRequest() *SimilarityRequest {
	return &SimilarityRequest{
		Recursive:        true,
		IncludePatterns:  append([]string(nil), DefaultIncludePatterns...),
		ExcludePatterns:  append([]string(nil), DefaultExcludePatterns...),
		ShingleSize:      DefaultShingleSize,
		Normalize:        true,
		Threshold:        DefaultSimilarityThreshold,
		NumHashes:        DefaultNumHashes,
		Seed:             DefaultSeed,
		BucketBits:       DefaultBucketBits,
		Verify:           true,
		MaxMatrixCells:   DefaultMaxMatrixCells,
		MaxBucketSlots:   DefaultMaxBucketSlots,
		MaxFileSizeBytes: DefaultMaxFileSizeBytes,
		OutputFormat:     OutputFormatText,
		SortBy:           SortBySimilarity,
	}
}

// Validate checks the request for obviously invalid values
func (r *SimilarityRequest) Validate() error {
	if len(r.Paths) == 0 {
		return NewValidationError("no input paths specified")
	}
	if !(r.Threshold > 0 && r.Threshold < 1) {
		return NewInvalidThresholdError(r.Threshold)
	}
	if r.NumHashes <= 0 {
		return NewValidationError(fmt.Sprintf("num_hashes must be > 0, got %d", r.NumHashes))
	}
	if r.RowsPerBand < 0 || r.RowsPerBand > r.NumHashes {
		return NewValidationError(fmt.Sprintf("rows_per_band must be between 0 and num_hashes (%d), got %d",
			r.NumHashes, r.RowsPerBand))
	}
	if r.ShingleSize < 1 {
		return NewValidationError(fmt.Sprintf("shingle_size must be >= 1, got %d", r.ShingleSize))
	}
	if r.BucketBits < MinBucketBits || r.BucketBits > MaxBucketBits {
		return NewValidationError(fmt.Sprintf("bucket_bits must be between %d and %d, got %d",
			MinBucketBits, MaxBucketBits, r.BucketBits))
	}
	if r.Workers < 0 {
		return NewValidationError(fmt.Sprintf("workers must be >= 0, got %d", r.Workers))
	}
	if r.MaxResults < 0 {
		return NewValidationError(fmt.Sprintf("max_results must be >= 0, got %d", r.MaxResults))
	}
	if _, err := ParseOutputFormat(string(r.OutputFormat)); err != nil {
		return err
	}
	return nil
}

// Document is one input document, indexed by its position in the corpus
type Document struct {
	Index  int    `json:"index" yaml:"index" csv:"index"`
	Path   string `json:"path" yaml:"path" csv:"path"`
	Tokens int    `json:"tokens" yaml:"tokens" csv:"tokens"`
}

// SimilarPair is a candidate pair surfaced by banding, with its similarity scores
type SimilarPair struct {
	DocA                int     `json:"doc_a" yaml:"doc_a" csv:"doc_a"`
	DocB                int     `json:"doc_b" yaml:"doc_b" csv:"doc_b"`
	PathA               string  `json:"path_a" yaml:"path_a" csv:"path_a"`
	PathB               string  `json:"path_b" yaml:"path_b" csv:"path_b"`
	EstimatedSimilarity float64 `json:"estimated_similarity" yaml:"estimated_similarity" csv:"estimated_similarity"`
	ExactSimilarity     float64 `json:"exact_similarity,omitempty" yaml:"exact_similarity,omitempty" csv:"exact_similarity"`
	Verified            bool    `json:"verified" yaml:"verified" csv:"verified"`
}

// Similarity returns the score used for filtering and sorting
func (p SimilarPair) Similarity() float64 {
	if p.Verified {
		return p.ExactSimilarity
	}
	return p.EstimatedSimilarity
}

// BandingSummary records the LSH parameters actually used
type BandingSummary struct {
	NumHashes          int     `json:"num_hashes" yaml:"num_hashes"`
	RowsPerBand        int     `json:"rows_per_band" yaml:"rows_per_band"`
	Bands              int     `json:"bands" yaml:"bands"`
	EffectiveThreshold float64 `json:"effective_threshold" yaml:"effective_threshold"`
	BucketBits         int     `json:"bucket_bits" yaml:"bucket_bits"`
	Buckets            int     `json:"buckets" yaml:"buckets"`
	MaxBucketSize      int     `json:"max_bucket_size" yaml:"max_bucket_size"`
	Collisions         int     `json:"collisions" yaml:"collisions"`
}

// SimilarityStatistics summarizes a run
type SimilarityStatistics struct {
	Documents      int `json:"documents" yaml:"documents"`
	EmptyDocuments int `json:"empty_documents" yaml:"empty_documents"`
	DistinctTokens int `json:"distinct_tokens" yaml:"distinct_tokens"`
	Candidates     int `json:"candidates" yaml:"candidates"`
	ReportedPairs  int `json:"reported_pairs" yaml:"reported_pairs"`
}

// SimilarityResponse is the result of a detection run
type SimilarityResponse struct {
	Documents   []Document           `json:"documents" yaml:"documents"`
	Pairs       []SimilarPair        `json:"pairs" yaml:"pairs"`
	Banding     BandingSummary       `json:"banding" yaml:"banding"`
	Statistics  SimilarityStatistics `json:"statistics" yaml:"statistics"`
	Threshold   float64              `json:"threshold" yaml:"threshold"`
	Seed        uint64               `json:"seed" yaml:"seed"`
	Duration    int64                `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt time.Time            `json:"generated_at" yaml:"generated_at"`
	Version     string               `json:"version" yaml:"version"`
}

// ComparisonResult compares two documents directly
type ComparisonResult struct {
	PathA               string  `json:"path_a" yaml:"path_a"`
	PathB               string  `json:"path_b" yaml:"path_b"`
	TokensA             int     `json:"tokens_a" yaml:"tokens_a"`
	TokensB             int     `json:"tokens_b" yaml:"tokens_b"`
	ExactSimilarity     float64 `json:"exact_similarity" yaml:"exact_similarity"`
	EstimatedSimilarity float64 `json:"estimated_similarity" yaml:"estimated_similarity"`
	NumHashes           int     `json:"num_hashes" yaml:"num_hashes"`
}

// SimilarityService finds near-duplicate documents
type SimilarityService interface {
	// FindSimilar collects files from req.Paths and runs the pipeline
	FindSimilar(ctx context.Context, req *SimilarityRequest) (*SimilarityResponse, error)

	// FindSimilarInFiles runs the pipeline over an explicit file list
	FindSimilarInFiles(ctx context.Context, files []string, req *SimilarityRequest) (*SimilarityResponse, error)

	// Compare computes exact and estimated similarity of two files
	Compare(ctx context.Context, pathA, pathB string, req *SimilarityRequest) (*ComparisonResult, error)
}

// FileReader collects and reads input documents
type FileReader interface {
	CollectFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	FileExists(path string) (bool, error)
}

// SimilarityOutputFormatter renders responses
type SimilarityOutputFormatter interface {
	FormatSimilarityResponse(response *SimilarityResponse, format OutputFormat, writer io.Writer) error
	FormatComparison(result *ComparisonResult, format OutputFormat, writer io.Writer) error
}

// SimilarityConfigurationLoader loads request defaults from configuration files
type SimilarityConfigurationLoader interface {
	// LoadSimilarityConfig loads configuration from configPath, or discovers it from targetPath when empty
	LoadSimilarityConfig(configPath, targetPath string) (*SimilarityRequest, error)
}

// ProgressManager reports long-running progress
type ProgressManager interface {
	Describe(description string)
	Initialize(maxValue int)
	Start()
	Update(processed, total int)
	Complete(success bool)
	SetWriter(writer io.Writer)
	IsInteractive() bool
	Close()
}

// ExecutableTask is a unit of work run by a ParallelExecutor
type ExecutableTask interface {
	Name() string
	Execute(ctx context.Context) (interface{}, error)
	IsEnabled() bool
}

// ParallelExecutor runs tasks concurrently
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
	SetMaxConcurrency(max int)
	SetTimeout(timeout time.Duration)
}
