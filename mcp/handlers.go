package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
)

// defaultMaxResults bounds the pairs returned to a client unless it asks otherwise
const defaultMaxResults = 50

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	if deps == nil {
		deps = NewDependencies(nil, "", nil)
	}
	return &HandlerSet{deps: deps}
}

// HandleFindNearDuplicates handles the find_near_duplicates tool
func (h *HandlerSet) HandleFindNearDuplicates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	req := h.deps.BaseRequest()
	req.Paths = []string{path}
	req.MaxResults = defaultMaxResults
	if v, ok := args["threshold"].(float64); ok {
		req.Threshold = v
	}
	if err := intArg(args, "num_hashes", &req.NumHashes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := intArg(args, "rows_per_band", &req.RowsPerBand); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := seedArg(args, "seed", &req.Seed); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if v, ok := args["verify"].(bool); ok {
		req.Verify = v
	}
	if err := intArg(args, "max_results", &req.MaxResults); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outputMode := "summary"
	if om, ok := args["output_mode"].(string); ok && om != "" {
		outputMode = om
	}

	result, err := h.deps.BuildSimilarityService().FindSimilar(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("near-duplicate detection failed: %v", err)), nil
	}

	var responseData interface{}
	switch outputMode {
	case "full":
		responseData = result
	default:
		responseData = formatNearDuplicatesSummary(result)
	}

	return toolResultJSON(responseData)
}

// HandleCompareDocuments handles the compare_documents tool
func (h *HandlerSet) HandleCompareDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	pathA, okA := args["path_a"].(string)
	pathB, okB := args["path_b"].(string)
	if !okA || !okB || pathA == "" || pathB == "" {
		return mcp.NewToolResultError("path_a and path_b parameters are required and must be strings"), nil
	}

	req := h.deps.BaseRequest()
	if err := intArg(args, "num_hashes", &req.NumHashes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.deps.BuildSimilarityService().Compare(ctx, pathA, pathB, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}

	return toolResultJSON(result)
}

// HandleBandParameters handles the band_parameters tool
func (h *HandlerSet) HandleBandParameters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok && request.Params.Arguments != nil {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	base := h.deps.BaseRequest()
	numHashes, threshold, rows := base.NumHashes, base.Threshold, base.RowsPerBand
	if err := intArg(args, "num_hashes", &numHashes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if v, ok := args["threshold"].(float64); ok {
		threshold = v
	}
	if err := intArg(args, "rows_per_band", &rows); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		params analyzer.BandParameters
		err    error
	)
	if rows > 0 {
		params, err = analyzer.NewBandParameters(numHashes, rows)
	} else {
		params, err = analyzer.SolveBandParameters(numHashes, threshold)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return toolResultJSON(map[string]interface{}{
		"signature_length":         params.SignatureLength,
		"rows_per_band":            params.RowsPerBand,
		"bands":                    params.Bands,
		"effective_threshold":      params.Threshold,
		"false_negative_at_target": params.FalseNegativeRate(threshold),
		"s_curve":                  params.SCurve(10),
	})
}

// intArg stores args[key] into dst when present. JSON numbers arrive as
// float64; only whole values within int32 range are accepted.
func intArg(args map[string]interface{}, key string, dst *int) error {
	raw, present := args[key]
	if !present || raw == nil {
		return nil
	}
	v, ok := raw.(float64)
	if !ok {
		return fmt.Errorf("%s must be a number", key)
	}
	if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return fmt.Errorf("%s must be an integer between %d and %d, got %v", key, math.MinInt32, math.MaxInt32, v)
	}
	*dst = int(v)
	return nil
}

// seedArg accepts whole values in [0, 2^64)
func seedArg(args map[string]interface{}, key string, dst *uint64) error {
	raw, present := args[key]
	if !present || raw == nil {
		return nil
	}
	v, ok := raw.(float64)
	if !ok {
		return fmt.Errorf("%s must be a number", key)
	}
	if v != math.Trunc(v) || v < 0 || v >= math.Ldexp(1, 64) {
		return fmt.Errorf("%s must be a non-negative integer below 2^64, got %v", key, v)
	}
	*dst = uint64(v)
	return nil
}

func formatNearDuplicatesSummary(result *domain.SimilarityResponse) map[string]interface{} {
	pairs := make([]map[string]interface{}, 0, len(result.Pairs))
	for _, p := range result.Pairs {
		entry := map[string]interface{}{
			"path_a":               p.PathA,
			"path_b":               p.PathB,
			"similarity":           p.Similarity(),
			"estimated_similarity": p.EstimatedSimilarity,
		}
		if p.Verified {
			entry["exact_similarity"] = p.ExactSimilarity
		}
		pairs = append(pairs, entry)
	}

	return map[string]interface{}{
		"documents":           result.Statistics.Documents,
		"empty_documents":     result.Statistics.EmptyDocuments,
		"candidates":          result.Statistics.Candidates,
		"reported_pairs":      result.Statistics.ReportedPairs,
		"threshold":           result.Threshold,
		"effective_threshold": result.Banding.EffectiveThreshold,
		"bands":               result.Banding.Bands,
		"rows_per_band":       result.Banding.RowsPerBand,
		"pairs":               pairs,
	}
}

func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
