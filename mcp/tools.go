package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all dupscan MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	if h == nil {
		h = NewHandlerSet(nil)
	}

	s.AddTool(mcp.NewTool("find_near_duplicates",
		mcp.WithDescription("Find pairs of near-duplicate documents under a path using MinHash signatures and LSH banding"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File or directory to scan")),
		mcp.WithNumber("threshold",
			mcp.Description("Target Jaccard similarity in (0, 1) (default: 0.5)")),
		mcp.WithNumber("num_hashes",
			mcp.Description("MinHash signature length (default: 128)")),
		mcp.WithNumber("rows_per_band",
			mcp.Description("Force rows per band, 0 = derive from threshold (default: 0)")),
		mcp.WithNumber("seed",
			mcp.Description("Seed for the hash family; same seed, same results")),
		mcp.WithBoolean("verify",
			mcp.Description("Compute exact Jaccard similarity for candidates (default: true)")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum pairs to return, 0 = unlimited (default: 50)")),
		mcp.WithString("output_mode",
			mcp.Enum("summary", "full"),
			mcp.Description("summary returns statistics and pairs, full adds documents and banding details (default: summary)")),
	), h.HandleFindNearDuplicates)

	s.AddTool(mcp.NewTool("compare_documents",
		mcp.WithDescription("Compare two documents: exact Jaccard similarity of their shingle sets and the MinHash estimate"),
		mcp.WithString("path_a",
			mcp.Required(),
			mcp.Description("First document")),
		mcp.WithString("path_b",
			mcp.Required(),
			mcp.Description("Second document")),
		mcp.WithNumber("num_hashes",
			mcp.Description("MinHash signature length (default: 128)")),
	), h.HandleCompareDocuments)

	s.AddTool(mcp.NewTool("band_parameters",
		mcp.WithDescription("Show the bands and rows per band chosen for a signature length and threshold, with the candidate probability S-curve"),
		mcp.WithNumber("num_hashes",
			mcp.Description("MinHash signature length (default: 128)")),
		mcp.WithNumber("threshold",
			mcp.Description("Target Jaccard similarity in (0, 1) (default: 0.5)")),
		mcp.WithNumber("rows_per_band",
			mcp.Description("Force rows per band, 0 = derive from threshold")),
	), h.HandleBandParameters)
}
