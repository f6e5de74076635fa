package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ludo-technologies/dupscan/app"
	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/config"
	"github.com/ludo-technologies/dupscan/service"
)

// ScanCommand handles near-duplicate detection over a corpus
type ScanCommand struct {
	// Input parameters
	configFile      string
	recursive       bool
	includePatterns []string
	excludePatterns []string
	maxFileSize     int64

	// Shingling
	shingleSize int
	normalize   bool

	// MinHash / LSH
	threshold      float64
	numHashes      int
	rowsPerBand    int
	seed           uint64
	bucketBits     int
	workers        int
	maxMatrixCells int64
	maxBucketSlots int64

	// Verification
	verify         bool
	keepUnverified bool

	// Output
	format      string
	sortBy      string
	maxResults  int
	outputPath  string
	metricsFile string
	noProgress  bool
}

// NewScanCommand creates a new scan command with defaults
func NewScanCommand() *ScanCommand {
	return &ScanCommand{
		recursive:      true,
		maxFileSize:    domain.DefaultMaxFileSizeBytes,
		shingleSize:    domain.DefaultShingleSize,
		normalize:      true,
		threshold:      domain.DefaultSimilarityThreshold,
		numHashes:      domain.DefaultNumHashes,
		seed:           domain.DefaultSeed,
		bucketBits:     domain.DefaultBucketBits,
		maxMatrixCells: domain.DefaultMaxMatrixCells,
		maxBucketSlots: domain.DefaultMaxBucketSlots,
		verify:         true,
		format:         string(domain.OutputFormatText),
		sortBy:         string(domain.SortBySimilarity),
	}
}

// CreateCobraCommand creates the cobra command for scanning
func (c *ScanCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Find near-duplicate documents",
		Long: `Find pairs of near-duplicate documents under the given paths.

Settings are read from .dupscan.toml (searched upward from the first path),
or from --config. Command line flags override the file; DUPSCAN_* environment
variables override an explicit --config file.

Examples:
  # Scan the current directory with the default threshold
  dupscan scan .

  # Report pairs at or above 80% similarity as JSON
  dupscan scan --threshold 0.8 --format json docs/

  # Force 4 rows per band and keep unverified candidates
  dupscan scan --rows-per-band 4 --keep-unverified corpus/`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runScan,
	}

	f := cmd.Flags()
	f.StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	f.BoolVarP(&c.recursive, "recursive", "r", c.recursive, "Recurse into subdirectories")
	f.StringSliceVar(&c.includePatterns, "include", nil, "Glob patterns of files to include")
	f.StringSliceVar(&c.excludePatterns, "exclude", nil, "Glob patterns of files to exclude")
	f.Int64Var(&c.maxFileSize, "max-file-size", c.maxFileSize, "Skip documents larger than this many bytes (0 = no limit)")

	f.IntVarP(&c.shingleSize, "shingle-size", "k", c.shingleSize, "Shingle width in characters")
	f.BoolVar(&c.normalize, "normalize", c.normalize, "Lower-case text and collapse whitespace before shingling")

	f.Float64VarP(&c.threshold, "threshold", "t", c.threshold, "Target Jaccard similarity in (0, 1)")
	f.IntVarP(&c.numHashes, "num-hashes", "n", c.numHashes, "MinHash signature length")
	f.IntVar(&c.rowsPerBand, "rows-per-band", 0, "Rows per band (0 = derive from threshold)")
	f.Uint64Var(&c.seed, "seed", c.seed, "Seed for the hash family")
	f.IntVar(&c.bucketBits, "bucket-bits", c.bucketBits, fmt.Sprintf("Bucket index width in bits (%d-%d)", domain.MinBucketBits, domain.MaxBucketBits))
	f.IntVarP(&c.workers, "workers", "j", 0, "Worker goroutines (0 = GOMAXPROCS)")
	f.Int64Var(&c.maxMatrixCells, "max-matrix-cells", c.maxMatrixCells, "Limit on signature matrix cells")
	f.Int64Var(&c.maxBucketSlots, "max-bucket-slots", c.maxBucketSlots, "Limit on bucket slots per band")

	f.BoolVar(&c.verify, "verify", c.verify, "Compute exact Jaccard similarity for candidates")
	f.BoolVar(&c.keepUnverified, "keep-unverified", false, "Report candidates below the threshold")

	f.StringVarP(&c.format, "format", "f", c.format, "Output format: text, json, yaml, csv")
	f.StringVar(&c.sortBy, "sort", c.sortBy, "Sort pairs by: similarity, location")
	f.IntVar(&c.maxResults, "max-results", 0, "Maximum pairs to report (0 = unlimited)")
	f.StringVarP(&c.outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	f.StringVar(&c.metricsFile, "metrics-file", "", "Write pipeline metrics in Prometheus text format")
	f.BoolVar(&c.noProgress, "no-progress", false, "Disable progress bars")

	return cmd
}

// runScan executes the scan command
func (c *ScanCommand) runScan(cmd *cobra.Command, args []string) error {
	format, err := domain.ParseOutputFormat(c.format)
	if err != nil {
		return err
	}

	req := c.buildRequest(args, format)
	tracker := config.NewFlagTrackerFromFlagSet(cmd.Flags())

	var progress domain.ProgressManager
	if !c.noProgress {
		pm := service.NewProgressManager()
		defer pm.Close()
		progress = pm
	}

	logger := slog.Default()
	svc := service.NewSimilarityService(service.NewFileReader(), progress).WithLogger(logger)
	useCase := app.NewSimilarityUseCase(
		svc,
		service.NewFileReader(),
		service.NewSimilarityOutputFormatter(useColor(cmd.OutOrStdout(), c.outputPath)),
		service.NewSimilarityConfigurationLoader(),
		service.MergeConfig,
	).WithMetrics(svc.Metrics()).WithLogger(logger)

	writer := service.NewFileOutputWriter(cmd.ErrOrStderr())
	return writer.Write(cmd.OutOrStdout(), c.outputPath, format, func(w io.Writer) error {
		req.OutputWriter = w
		_, err := useCase.Execute(cmd.Context(), req, tracker)
		return err
	})
}

// buildRequest maps flag values onto a request; MergeConfig decides which win
func (c *ScanCommand) buildRequest(paths []string, format domain.OutputFormat) domain.SimilarityRequest {
	return domain.SimilarityRequest{
		Paths:            paths,
		ConfigPath:       c.configFile,
		Recursive:        c.recursive,
		IncludePatterns:  c.includePatterns,
		ExcludePatterns:  c.excludePatterns,
		MaxFileSizeBytes: c.maxFileSize,
		ShingleSize:      c.shingleSize,
		Normalize:        c.normalize,
		Threshold:        c.threshold,
		NumHashes:        c.numHashes,
		RowsPerBand:      c.rowsPerBand,
		Seed:             c.seed,
		BucketBits:       c.bucketBits,
		Workers:          c.workers,
		MaxMatrixCells:   c.maxMatrixCells,
		MaxBucketSlots:   c.maxBucketSlots,
		Verify:           c.verify,
		KeepUnverified:   c.keepUnverified,
		OutputFormat:     format,
		SortBy:           domain.SortCriteria(c.sortBy),
		MaxResults:       c.maxResults,
		MetricsFile:      c.metricsFile,
	}
}

// useColor enables ANSI colors only for text written straight to a terminal
func useColor(w io.Writer, outputPath string) bool {
	if outputPath != "" || os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// NewScanCmd creates and returns the scan cobra command
func NewScanCmd() *cobra.Command {
	return NewScanCommand().CreateCobraCommand()
}
