package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
	"github.com/ludo-technologies/dupscan/service"
)

// ParamsCommand prints the banding parameters for a signature length and threshold
type ParamsCommand struct {
	numHashes   int
	threshold   float64
	rowsPerBand int
	steps       int
	format      string
}

// NewParamsCommand creates a new params command
func NewParamsCommand() *ParamsCommand {
	return &ParamsCommand{
		numHashes: domain.DefaultNumHashes,
		threshold: domain.DefaultSimilarityThreshold,
		steps:     10,
		format:    string(domain.OutputFormatText),
	}
}

// paramsReport is the structured form of the params output
type paramsReport struct {
	Parameters analyzer.BandParameters `json:"parameters" yaml:"parameters"`
	Target     float64                 `json:"target_threshold" yaml:"target_threshold"`
	FalseNeg   float64                 `json:"false_negative_at_target" yaml:"false_negative_at_target"`
	Curve      []analyzer.SCurvePoint  `json:"s_curve" yaml:"s_curve"`
}

// CreateCobraCommand creates the cobra command
func (p *ParamsCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Show banding parameters and their S-curve",
		Long: `Show the bands and rows per band chosen for a signature length and
target threshold, together with the candidate probability curve
1 - (1 - s^r)^b.

Examples:
  dupscan params --num-hashes 128 --threshold 0.8
  dupscan params --num-hashes 200 --rows-per-band 5 --steps 20`,
		Args: cobra.NoArgs,
		RunE: p.runParams,
	}

	f := cmd.Flags()
	f.IntVarP(&p.numHashes, "num-hashes", "n", p.numHashes, "MinHash signature length")
	f.Float64VarP(&p.threshold, "threshold", "t", p.threshold, "Target Jaccard similarity in (0, 1)")
	f.IntVar(&p.rowsPerBand, "rows-per-band", 0, "Force rows per band (0 = derive from threshold)")
	f.IntVar(&p.steps, "steps", p.steps, "Number of S-curve intervals")
	f.StringVarP(&p.format, "format", "f", p.format, "Output format: text, json, yaml")

	return cmd
}

func (p *ParamsCommand) runParams(cmd *cobra.Command, args []string) error {
	format, err := domain.ParseOutputFormat(p.format)
	if err != nil {
		return err
	}

	var params analyzer.BandParameters
	if p.rowsPerBand > 0 {
		params, err = analyzer.NewBandParameters(p.numHashes, p.rowsPerBand)
	} else {
		params, err = analyzer.SolveBandParameters(p.numHashes, p.threshold)
	}
	if err != nil {
		return err
	}

	report := paramsReport{
		Parameters: params,
		Target:     p.threshold,
		FalseNeg:   params.FalseNegativeRate(p.threshold),
		Curve:      params.SCurve(p.steps),
	}

	out := cmd.OutOrStdout()
	switch format {
	case domain.OutputFormatJSON:
		return service.WriteJSON(out, report)
	case domain.OutputFormatYAML:
		return service.WriteYAML(out, report)
	case domain.OutputFormatText:
		return writeParamsText(out, report)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func writeParamsText(w io.Writer, report paramsReport) error {
	u := service.NewFormatUtils(false)
	var b strings.Builder

	b.WriteString(u.FormatMainHeader("Banding Parameters"))
	b.WriteString(u.FormatLabelWithIndent(service.SectionPadding, "Signature length", report.Parameters.SignatureLength))
	b.WriteString(u.FormatLabelWithIndent(service.SectionPadding, "Rows per band", report.Parameters.RowsPerBand))
	b.WriteString(u.FormatLabelWithIndent(service.SectionPadding, "Bands", report.Parameters.Bands))
	b.WriteString(u.FormatLabelWithIndent(service.SectionPadding, "Effective threshold", fmt.Sprintf("%.4f", report.Parameters.Threshold)))
	b.WriteString(u.FormatLabelWithIndent(service.SectionPadding, "Miss rate at target",
		fmt.Sprintf("%s at s=%.2f", u.FormatPercentage(report.FalseNeg), report.Target)))
	b.WriteString("\n")

	b.WriteString(u.FormatSectionHeader("S-curve"))
	for _, pt := range report.Curve {
		bar := strings.Repeat("#", int(pt.Probability*30+0.5))
		fmt.Fprintf(&b, "%ss=%.2f  %7s  %s\n", strings.Repeat(" ", service.SectionPadding),
			pt.Similarity, u.FormatPercentage(pt.Probability), bar)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// NewParamsCmd creates and returns the params cobra command
func NewParamsCmd() *cobra.Command {
	return NewParamsCommand().CreateCobraCommand()
}
