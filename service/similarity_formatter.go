package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ludo-technologies/dupscan/domain"
)

// SimilarityOutputFormatter implements domain.SimilarityOutputFormatter
type SimilarityOutputFormatter struct {
	utils *FormatUtils
}

// NewSimilarityOutputFormatter creates a formatter; color enables ANSI colors in text output
func NewSimilarityOutputFormatter(color bool) *SimilarityOutputFormatter {
	return &SimilarityOutputFormatter{utils: NewFormatUtils(color)}
}

// FormatSimilarityResponse formats a response according to the specified format
func (f *SimilarityOutputFormatter) FormatSimilarityResponse(response *domain.SimilarityResponse, format domain.OutputFormat, writer io.Writer) error {
	if response == nil {
		return domain.NewOutputError("nothing to format", nil)
	}
	switch format {
	case domain.OutputFormatText, "":
		return f.formatAsText(response, writer)
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.formatAsCSV(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// FormatComparison formats a two-document comparison
func (f *SimilarityOutputFormatter) FormatComparison(result *domain.ComparisonResult, format domain.OutputFormat, writer io.Writer) error {
	if result == nil {
		return domain.NewOutputError("nothing to format", nil)
	}
	switch format {
	case domain.OutputFormatText, "":
		return f.formatComparisonAsText(result, writer)
	case domain.OutputFormatJSON:
		return WriteJSON(writer, result)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, result)
	case domain.OutputFormatCSV:
		return f.writeCSV(writer,
			[]string{"path_a", "path_b", "tokens_a", "tokens_b", "exact_similarity", "estimated_similarity", "num_hashes"},
			[][]string{{
				result.PathA, result.PathB,
				strconv.Itoa(result.TokensA), strconv.Itoa(result.TokensB),
				formatFloat(result.ExactSimilarity), formatFloat(result.EstimatedSimilarity),
				strconv.Itoa(result.NumHashes),
			}})
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *SimilarityOutputFormatter) formatAsText(response *domain.SimilarityResponse, writer io.Writer) error {
	u := f.utils
	var b strings.Builder

	b.WriteString(u.FormatMainHeader("Near-Duplicate Detection Results"))

	stats := response.Statistics
	b.WriteString(u.FormatSectionHeader("Summary"))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Documents", stats.Documents))
	if stats.EmptyDocuments > 0 {
		b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Empty documents", stats.EmptyDocuments))
	}
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Distinct shingles", stats.DistinctTokens))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Candidate pairs", stats.Candidates))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Reported pairs", stats.ReportedPairs))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Threshold", response.Threshold))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Duration", u.FormatDuration(response.Duration)))
	b.WriteString("\n")

	band := response.Banding
	b.WriteString(u.FormatSectionHeader("Banding"))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Signature length", band.NumHashes))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Bands x rows", fmt.Sprintf("%d x %d", band.Bands, band.RowsPerBand)))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Effective threshold", fmt.Sprintf("%.3f", band.EffectiveThreshold)))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Bucket slots", fmt.Sprintf("2^%d", band.BucketBits)))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Occupied buckets", band.Buckets))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Largest bucket", band.MaxBucketSize))
	b.WriteString("\n")

	b.WriteString(u.FormatSectionHeader("Similar pairs"))
	if len(response.Pairs) == 0 {
		b.WriteString(strings.Repeat(" ", SectionPadding) + "No similar documents found.\n")
	}
	for i, pair := range response.Pairs {
		fmt.Fprintf(&b, "%s%d. %s\n", strings.Repeat(" ", SectionPadding), i+1, u.FormatSimilarity(pair.Similarity()))
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", ItemPadding+1), pair.PathA)
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", ItemPadding+1), pair.PathB)
		if pair.Verified {
			fmt.Fprintf(&b, "%sestimated %s, exact %s\n", strings.Repeat(" ", ItemPadding+1),
				u.FormatPercentage(pair.EstimatedSimilarity), u.FormatPercentage(pair.ExactSimilarity))
		} else {
			fmt.Fprintf(&b, "%sestimated %s (not verified)\n", strings.Repeat(" ", ItemPadding+1),
				u.FormatPercentage(pair.EstimatedSimilarity))
		}
	}

	if _, err := io.WriteString(writer, b.String()); err != nil {
		return domain.NewOutputError("failed to write text output", err)
	}
	return nil
}

func (f *SimilarityOutputFormatter) formatAsCSV(response *domain.SimilarityResponse, writer io.Writer) error {
	header := []string{"doc_a", "path_a", "doc_b", "path_b", "similarity", "estimated_similarity", "exact_similarity", "verified"}
	records := make([][]string, 0, len(response.Pairs))
	for _, pair := range response.Pairs {
		exact := ""
		if pair.Verified {
			exact = formatFloat(pair.ExactSimilarity)
		}
		records = append(records, []string{
			strconv.Itoa(pair.DocA), pair.PathA,
			strconv.Itoa(pair.DocB), pair.PathB,
			formatFloat(pair.Similarity()),
			formatFloat(pair.EstimatedSimilarity),
			exact,
			strconv.FormatBool(pair.Verified),
		})
	}
	return f.writeCSV(writer, header, records)
}

func (f *SimilarityOutputFormatter) formatComparisonAsText(result *domain.ComparisonResult, writer io.Writer) error {
	u := f.utils
	var b strings.Builder

	b.WriteString(u.FormatMainHeader("Document Comparison"))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Document A", fmt.Sprintf("%s (%d shingles)", result.PathA, result.TokensA)))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Document B", fmt.Sprintf("%s (%d shingles)", result.PathB, result.TokensB)))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Exact Jaccard", u.FormatSimilarity(result.ExactSimilarity)))
	b.WriteString(u.FormatLabelWithIndent(SectionPadding, "MinHash estimate",
		fmt.Sprintf("%s over %d hashes", u.FormatPercentage(result.EstimatedSimilarity), result.NumHashes)))

	if _, err := io.WriteString(writer, b.String()); err != nil {
		return domain.NewOutputError("failed to write text output", err)
	}
	return nil
}

func (f *SimilarityOutputFormatter) writeCSV(writer io.Writer, header []string, records [][]string) error {
	w := csv.NewWriter(writer)
	if err := w.Write(header); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}
	if err := w.WriteAll(records); err != nil {
		return domain.NewOutputError("failed to write CSV records", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
