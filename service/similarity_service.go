package service

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
	"github.com/ludo-technologies/dupscan/internal/tokenizer"
	"github.com/ludo-technologies/dupscan/internal/version"
)

// Pipeline stage names used for metrics and logs
const (
	stageTokenize   = "tokenize"
	stageSignatures = "signatures"
	stageBanding    = "banding"
	stageVerify     = "verify"
)

// SimilarityService implements the domain.SimilarityService interface
type SimilarityService struct {
	fileReader domain.FileReader
	progress   domain.ProgressManager
	executor   domain.ParallelExecutor
	metrics    *Metrics
	logger     *slog.Logger
}

// NewSimilarityService creates a new similarity service.
// progress can be nil; the service then runs silently.
func NewSimilarityService(fileReader domain.FileReader, progress domain.ProgressManager) *SimilarityService {
	return &SimilarityService{
		fileReader: fileReader,
		progress:   progress,
		executor:   NewParallelExecutor(),
		metrics:    NewMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger used for diagnostics
func (s *SimilarityService) WithLogger(logger *slog.Logger) *SimilarityService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithMetrics replaces the metrics collectors
func (s *SimilarityService) WithMetrics(metrics *Metrics) *SimilarityService {
	s.metrics = metrics
	return s
}

// Metrics returns the collectors updated by every run
func (s *SimilarityService) Metrics() *Metrics {
	return s.metrics
}

// FindSimilar collects the files named by the request and runs the pipeline
func (s *SimilarityService) FindSimilar(ctx context.Context, req *domain.SimilarityRequest) (*domain.SimilarityResponse, error) {
	if req == nil {
		return nil, domain.NewInvalidInputError("similarity request cannot be nil", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	files, err := s.fileReader.CollectFiles(req.Paths, req.Recursive, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("collected files", "paths", req.Paths, "files", len(files))

	return s.FindSimilarInFiles(ctx, files, req)
}

// FindSimilarInFiles runs tokenize, signatures, banding and verification
// over an explicit file list. File order defines document indices.
func (s *SimilarityService) FindSimilarInFiles(ctx context.Context, files []string, req *domain.SimilarityRequest) (*domain.SimilarityResponse, error) {
	if req == nil {
		return nil, domain.NewInvalidInputError("similarity request cannot be nil", nil)
	}
	if !(req.Threshold > 0 && req.Threshold < 1) {
		return nil, domain.NewInvalidThresholdError(req.Threshold)
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no documents matched the input paths and patterns", nil)
	}

	start := time.Now()

	docs, sets, err := s.tokenize(ctx, files, req)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.NewInvalidInputError("no readable documents", nil)
	}

	matrix, err := s.buildSignatures(ctx, sets, req)
	if err != nil {
		return nil, err
	}

	params, err := resolveBandParameters(req)
	if err != nil {
		return nil, err
	}

	bandingStart := time.Now()
	bander := analyzer.NewBander(analyzer.BandingConfig{
		BucketBits:     req.BucketBits,
		Seed:           req.Seed,
		Workers:        req.Workers,
		MaxBucketSlots: req.MaxBucketSlots,
	})
	candidates, stats, err := bander.BandAndBucketWithStats(ctx, matrix, params.RowsPerBand)
	s.metrics.ObserveStage(stageBanding, err, time.Since(bandingStart))
	if err != nil {
		return nil, err
	}
	summary := domain.BandingSummary{
		NumHashes:          matrix.NumHashes(),
		RowsPerBand:        params.RowsPerBand,
		Bands:              params.Bands,
		EffectiveThreshold: params.Threshold,
		BucketBits:         stats.BucketBits,
		Buckets:            stats.Buckets,
		MaxBucketSize:      stats.MaxBucketSize,
		Collisions:         stats.Collisions,
	}
	s.metrics.RecordBanding(summary, candidates.Len())
	s.logger.Debug("banding complete",
		"bands", params.Bands, "rows_per_band", params.RowsPerBand,
		"effective_threshold", params.Threshold, "candidates", candidates.Len(),
		"max_bucket", stats.MaxBucketSize)

	verifyStart := time.Now()
	pairs := verifyCandidates(candidates, matrix, docs, sets, req)
	sortPairs(pairs, req.SortBy)
	if req.MaxResults > 0 && len(pairs) > req.MaxResults {
		pairs = pairs[:req.MaxResults]
	}
	s.metrics.ObserveStage(stageVerify, nil, time.Since(verifyStart))
	s.metrics.AddReported(len(pairs))

	empty := 0
	for _, set := range sets {
		if set.IsEmpty() {
			empty++
		}
	}

	return &domain.SimilarityResponse{
		Documents: docs,
		Pairs:     pairs,
		Banding:   summary,
		Statistics: domain.SimilarityStatistics{
			Documents:      len(docs),
			EmptyDocuments: empty,
			DistinctTokens: matrix.DistinctTokens(),
			Candidates:     candidates.Len(),
			ReportedPairs:  len(pairs),
		},
		Threshold:   req.Threshold,
		Seed:        req.Seed,
		Duration:    time.Since(start).Milliseconds(),
		GeneratedAt: time.Now(),
		Version:     version.Short(),
	}, nil
}

// Compare computes exact and estimated similarity of two files
func (s *SimilarityService) Compare(ctx context.Context, pathA, pathB string, req *domain.SimilarityRequest) (*domain.ComparisonResult, error) {
	if req == nil {
		req = domain.DefaultSimilarityRequest()
	}
	if req.NumHashes <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("num_hashes must be > 0, got %d", req.NumHashes))
	}

	shingler := tokenizer.NewShingler(req.ShingleSize, req.Normalize)
	sets := make([]analyzer.TokenSet, 2)
	for i, path := range []string{pathA, pathB} {
		content, err := s.fileReader.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sets[i] = shingler.Shingle(string(content))
	}

	family, err := analyzer.GenerateHashFamily(req.NumHashes, req.Seed)
	if err != nil {
		return nil, err
	}
	matrix, err := analyzer.NewSignatureBuilder(analyzer.SignatureBuilderConfig{
		Workers:        req.Workers,
		MaxMatrixCells: req.MaxMatrixCells,
	}).Build(ctx, sets, family)
	if err != nil {
		return nil, err
	}

	return &domain.ComparisonResult{
		PathA:               pathA,
		PathB:               pathB,
		TokensA:             sets[0].Len(),
		TokensB:             sets[1].Len(),
		ExactSimilarity:     analyzer.ExactJaccard(sets[0], sets[1]),
		EstimatedSimilarity: matrix.Similarity(0, 1),
		NumHashes:           matrix.NumHashes(),
	}, nil
}

// tokenize reads and shingles files in parallel. Unreadable and oversized
// files are logged and dropped; the surviving documents are re-indexed in
// file order.
func (s *SimilarityService) tokenize(ctx context.Context, files []string, req *domain.SimilarityRequest) ([]domain.Document, []analyzer.TokenSet, error) {
	started := time.Now()
	shingler := tokenizer.NewShingler(req.ShingleSize, req.Normalize)

	sets := make([]analyzer.TokenSet, len(files))
	ok := make([]bool, len(files))

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(files))
	chunk := (len(files) + workers - 1) / workers

	s.startProgress("Tokenizing", len(files))
	var processed atomic.Int64

	tasks := make([]domain.ExecutableTask, 0, workers)
	for lo := 0; lo < len(files); lo += chunk {
		hi := min(lo+chunk, len(files))
		tasks = append(tasks, NewSimpleTask(fmt.Sprintf("tokenize[%d:%d]", lo, hi), true, func(ctx context.Context) (interface{}, error) {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				sets[i], ok[i] = s.tokenizeFile(files[i], shingler, req.MaxFileSizeBytes)
				s.updateProgress(int(processed.Add(1)), len(files))
			}
			return nil, nil
		}))
	}

	s.executor.SetMaxConcurrency(workers)
	err := s.executor.Execute(ctx, tasks)
	s.completeProgress(err == nil)
	s.metrics.ObserveStage(stageTokenize, err, time.Since(started))
	if err != nil {
		return nil, nil, fmt.Errorf("tokenizing documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(files))
	kept := make([]analyzer.TokenSet, 0, len(files))
	empty := 0
	for i, path := range files {
		if !ok[i] {
			continue
		}
		if sets[i].IsEmpty() {
			empty++
		}
		docs = append(docs, domain.Document{Index: len(docs), Path: path, Tokens: sets[i].Len()})
		kept = append(kept, sets[i])
	}

	s.metrics.AddDocuments("tokenized", len(docs)-empty)
	s.metrics.AddDocuments("empty", empty)
	s.metrics.AddDocuments("skipped", len(files)-len(docs))
	s.logger.Debug("tokenized documents",
		"documents", len(docs), "empty", empty, "skipped", len(files)-len(docs),
		"elapsed", time.Since(started))

	return docs, kept, nil
}

func (s *SimilarityService) tokenizeFile(path string, shingler *tokenizer.Shingler, maxSize int64) (analyzer.TokenSet, bool) {
	content, err := s.fileReader.ReadFile(path)
	if err != nil {
		s.logger.Warn("skipping unreadable file", "path", path, "error", err)
		return analyzer.TokenSet{}, false
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		s.logger.Warn("skipping oversized file", "path", path, "bytes", len(content), "limit", maxSize)
		return analyzer.TokenSet{}, false
	}
	return shingler.Shingle(string(content)), true
}

func (s *SimilarityService) buildSignatures(ctx context.Context, sets []analyzer.TokenSet, req *domain.SimilarityRequest) (*analyzer.SignatureMatrix, error) {
	started := time.Now()

	family, err := analyzer.GenerateHashFamily(req.NumHashes, req.Seed)
	if err != nil {
		return nil, err
	}

	s.startProgress("Signatures", req.NumHashes)
	builder := analyzer.NewSignatureBuilder(analyzer.SignatureBuilderConfig{
		Workers:        req.Workers,
		MaxMatrixCells: req.MaxMatrixCells,
		OnRowsDone:     s.updateProgress,
	})
	matrix, err := builder.Build(ctx, sets, family)
	s.completeProgress(err == nil)
	s.metrics.ObserveStage(stageSignatures, err, time.Since(started))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("signatures built",
		"hashes", matrix.NumHashes(), "documents", matrix.NumDocuments(),
		"distinct_tokens", matrix.DistinctTokens(), "elapsed", time.Since(started))
	return matrix, nil
}

// resolveBandParameters honors a forced rows-per-band and otherwise solves
// for the threshold
func resolveBandParameters(req *domain.SimilarityRequest) (analyzer.BandParameters, error) {
	if req.RowsPerBand > 0 {
		return analyzer.NewBandParameters(req.NumHashes, req.RowsPerBand)
	}
	return analyzer.SolveBandParameters(req.NumHashes, req.Threshold)
}

// verifyCandidates scores every candidate pair and drops those below the
// threshold unless the request keeps them
func verifyCandidates(candidates *analyzer.CandidatePairSet, matrix *analyzer.SignatureMatrix, docs []domain.Document, sets []analyzer.TokenSet, req *domain.SimilarityRequest) []domain.SimilarPair {
	pairs := make([]domain.SimilarPair, 0, candidates.Len())
	for _, p := range candidates.Pairs() {
		pair := domain.SimilarPair{
			DocA:                p.I,
			DocB:                p.J,
			PathA:               docs[p.I].Path,
			PathB:               docs[p.J].Path,
			EstimatedSimilarity: matrix.Similarity(p.I, p.J),
		}
		if req.Verify {
			pair.ExactSimilarity = analyzer.ExactJaccard(sets[p.I], sets[p.J])
			pair.Verified = true
		}
		if pair.Similarity() < req.Threshold && !req.KeepUnverified {
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

func sortPairs(pairs []domain.SimilarPair, by domain.SortCriteria) {
	byLocation := func(a, b domain.SimilarPair) int {
		if c := cmp.Compare(a.PathA, b.PathA); c != 0 {
			return c
		}
		return cmp.Compare(a.PathB, b.PathB)
	}

	switch by {
	case domain.SortByLocation:
		slices.SortStableFunc(pairs, byLocation)
	default:
		slices.SortStableFunc(pairs, func(a, b domain.SimilarPair) int {
			if c := cmp.Compare(b.Similarity(), a.Similarity()); c != 0 {
				return c
			}
			if c := cmp.Compare(a.DocA, b.DocA); c != 0 {
				return c
			}
			return cmp.Compare(a.DocB, b.DocB)
		})
	}
}

func (s *SimilarityService) startProgress(description string, max int) {
	if s.progress == nil {
		return
	}
	s.progress.Describe(description)
	s.progress.Initialize(max)
	s.progress.Start()
}

func (s *SimilarityService) updateProgress(done, total int) {
	if s.progress != nil {
		s.progress.Update(done, total)
	}
}

func (s *SimilarityService) completeProgress(success bool) {
	if s.progress != nil {
		s.progress.Complete(success)
	}
}
