package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/dupscan/internal/version"
)

// NewRootCmd builds the dupscan command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dupscan",
		Short: "Near-duplicate document detection with MinHash and LSH",
		Long: `dupscan finds near-duplicate documents in large corpora.

Each document is split into character shingles, summarized by a MinHash
signature, and bucketed with locality-sensitive hashing so that only
likely-similar pairs are compared.

Features:
  • Deterministic MinHash signatures (seeded hash family)
  • Banding tuned to a target Jaccard similarity
  • Optional exact Jaccard verification of candidates
  • Text, JSON, YAML and CSV reports`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			slog.SetDefault(newLogger(verbose))
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewScanCmd())
	rootCmd.AddCommand(NewCompareCmd())
	rootCmd.AddCommand(NewParamsCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// newLogger writes text logs to stderr; verbose enables debug records
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
