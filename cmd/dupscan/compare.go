package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/dupscan/app"
	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/config"
	"github.com/ludo-technologies/dupscan/service"
)

// CompareCommand compares two documents directly
type CompareCommand struct {
	configFile  string
	shingleSize int
	normalize   bool
	numHashes   int
	seed        uint64
	format      string
}

// NewCompareCommand creates a new compare command
func NewCompareCommand() *CompareCommand {
	return &CompareCommand{
		shingleSize: domain.DefaultShingleSize,
		normalize:   true,
		numHashes:   domain.DefaultNumHashes,
		seed:        domain.DefaultSeed,
		format:      string(domain.OutputFormatText),
	}
}

// CreateCobraCommand creates the cobra command for comparison
func (c *CompareCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <file-a> <file-b>",
		Short: "Compare two documents",
		Long: `Compute the exact Jaccard similarity of two documents and the MinHash
estimate of it, using the same shingling and hash family as scan.

Examples:
  dupscan compare draft.md final.md
  dupscan compare --num-hashes 512 --format json a.txt b.txt`,
		Args: cobra.ExactArgs(2),
		RunE: c.runCompare,
	}

	f := cmd.Flags()
	f.StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	f.IntVarP(&c.shingleSize, "shingle-size", "k", c.shingleSize, "Shingle width in characters")
	f.BoolVar(&c.normalize, "normalize", c.normalize, "Lower-case text and collapse whitespace before shingling")
	f.IntVarP(&c.numHashes, "num-hashes", "n", c.numHashes, "MinHash signature length")
	f.Uint64Var(&c.seed, "seed", c.seed, "Seed for the hash family")
	f.StringVarP(&c.format, "format", "f", c.format, "Output format: text, json, yaml, csv")

	return cmd
}

func (c *CompareCommand) runCompare(cmd *cobra.Command, args []string) error {
	format, err := domain.ParseOutputFormat(c.format)
	if err != nil {
		return err
	}

	req := domain.SimilarityRequest{
		ConfigPath:   c.configFile,
		ShingleSize:  c.shingleSize,
		Normalize:    c.normalize,
		NumHashes:    c.numHashes,
		Seed:         c.seed,
		OutputFormat: format,
		OutputWriter: cmd.OutOrStdout(),
	}

	reader := service.NewFileReader()
	useCase := app.NewSimilarityUseCase(
		service.NewSimilarityService(reader, nil).WithLogger(slog.Default()),
		reader,
		service.NewSimilarityOutputFormatter(useColor(cmd.OutOrStdout(), "")),
		service.NewSimilarityConfigurationLoader(),
		service.MergeConfig,
	)

	_, err = useCase.Compare(cmd.Context(), args[0], args[1], req, config.NewFlagTrackerFromFlagSet(cmd.Flags()))
	return err
}

// NewCompareCmd creates and returns the compare cobra command
func NewCompareCmd() *cobra.Command {
	return NewCompareCommand().CreateCobraCommand()
}
