package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/config"
)

// MetricsSink persists pipeline metrics after a run
type MetricsSink interface {
	WriteTextfile(path string) error
}

// SimilarityUseCase orchestrates the near-duplicate detection workflow
type SimilarityUseCase struct {
	service      domain.SimilarityService
	fileReader   domain.FileReader
	formatter    domain.SimilarityOutputFormatter
	configLoader domain.SimilarityConfigurationLoader
	merge        func(base, override *domain.SimilarityRequest, tracker *config.FlagTracker) *domain.SimilarityRequest
	metrics      MetricsSink
	logger       *slog.Logger
}

// NewSimilarityUseCase creates a new similarity use case
func NewSimilarityUseCase(
	service domain.SimilarityService,
	fileReader domain.FileReader,
	formatter domain.SimilarityOutputFormatter,
	configLoader domain.SimilarityConfigurationLoader,
	merge func(base, override *domain.SimilarityRequest, tracker *config.FlagTracker) *domain.SimilarityRequest,
) *SimilarityUseCase {
	return &SimilarityUseCase{
		service:      service,
		fileReader:   fileReader,
		formatter:    formatter,
		configLoader: configLoader,
		merge:        merge,
		logger:       slog.Default(),
	}
}

// WithMetrics sets where --metrics-file output is taken from
func (uc *SimilarityUseCase) WithMetrics(metrics MetricsSink) *SimilarityUseCase {
	uc.metrics = metrics
	return uc
}

// WithLogger sets the logger
func (uc *SimilarityUseCase) WithLogger(logger *slog.Logger) *SimilarityUseCase {
	if logger != nil {
		uc.logger = logger
	}
	return uc
}

// Execute loads configuration, runs detection and writes the formatted report
func (uc *SimilarityUseCase) Execute(ctx context.Context, req domain.SimilarityRequest, tracker *config.FlagTracker) (*domain.SimilarityResponse, error) {
	finalReq, err := uc.prepareRequest(req, tracker)
	if err != nil {
		return nil, err
	}

	files, err := ResolveFilePaths(
		uc.fileReader,
		finalReq.Paths,
		finalReq.Recursive,
		finalReq.IncludePatterns,
		finalReq.ExcludePatterns,
	)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("no documents found in %v", finalReq.Paths), nil)
	}
	uc.logger.Info("scanning documents", "documents", len(files), "threshold", finalReq.Threshold, "num_hashes", finalReq.NumHashes)

	started := time.Now()
	response, err := uc.service.FindSimilarInFiles(ctx, files, finalReq)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("scan complete",
		"pairs", len(response.Pairs), "candidates", response.Statistics.Candidates,
		"elapsed", time.Since(started))

	if err := uc.formatter.FormatSimilarityResponse(response, finalReq.OutputFormat, finalReq.OutputWriter); err != nil {
		return nil, domain.NewOutputError("failed to write output", err)
	}

	if err := uc.writeMetrics(finalReq.MetricsFile); err != nil {
		return response, err
	}
	return response, nil
}

// Compare scores two documents against each other and writes the result
func (uc *SimilarityUseCase) Compare(ctx context.Context, pathA, pathB string, req domain.SimilarityRequest, tracker *config.FlagTracker) (*domain.ComparisonResult, error) {
	req.Paths = []string{pathA, pathB}
	finalReq, err := uc.prepareRequest(req, tracker)
	if err != nil {
		return nil, err
	}

	for _, path := range []string{pathA, pathB} {
		exists, err := uc.fileReader.FileExists(path)
		if err != nil || !exists {
			return nil, domain.NewFileNotFoundError(path, err)
		}
	}

	result, err := uc.service.Compare(ctx, pathA, pathB, finalReq)
	if err != nil {
		return nil, err
	}

	if err := uc.formatter.FormatComparison(result, finalReq.OutputFormat, finalReq.OutputWriter); err != nil {
		return nil, domain.NewOutputError("failed to write output", err)
	}
	return result, nil
}

// prepareRequest layers defaults, the configuration file and explicit flags
func (uc *SimilarityUseCase) prepareRequest(req domain.SimilarityRequest, tracker *config.FlagTracker) (*domain.SimilarityRequest, error) {
	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no input paths specified", nil)
	}
	if req.OutputWriter == nil {
		return nil, domain.NewInvalidInputError("output writer is required", nil)
	}

	finalReq := &req
	if uc.configLoader != nil {
		configReq, err := uc.configLoader.LoadSimilarityConfig(req.ConfigPath, req.Paths[0])
		if err != nil {
			return nil, err
		}
		if configReq.ConfigPath != "" {
			uc.logger.Debug("loaded configuration", "path", configReq.ConfigPath)
		}
		if uc.merge != nil {
			finalReq = uc.merge(configReq, &req, tracker)
		}
	}

	if err := finalReq.Validate(); err != nil {
		return nil, err
	}
	return finalReq, nil
}

func (uc *SimilarityUseCase) writeMetrics(path string) error {
	if path == "" || uc.metrics == nil {
		return nil
	}
	if err := uc.metrics.WriteTextfile(path); err != nil {
		return err
	}
	uc.logger.Debug("metrics written", "path", path)
	return nil
}
