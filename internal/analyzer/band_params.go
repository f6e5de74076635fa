package analyzer

import (
	"fmt"
	"math"

	"github.com/ludo-technologies/dupscan/domain"
)

// BandParameters is a banding configuration for a fixed signature length
type BandParameters struct {
	SignatureLength int     `json:"signature_length" yaml:"signature_length"`
	RowsPerBand     int     `json:"rows_per_band" yaml:"rows_per_band"`
	Bands           int     `json:"bands" yaml:"bands"`
	Threshold       float64 `json:"threshold" yaml:"threshold"` // (1/b)^(1/r), the S-curve midpoint
}

// NewBandParameters derives the band count for a forced rows-per-band value
func NewBandParameters(signatureLength, rowsPerBand int) (BandParameters, error) {
	if signatureLength <= 0 {
		return BandParameters{}, domain.NewInvalidInputError(
			fmt.Sprintf("signature length must be > 0, got %d", signatureLength), nil)
	}
	if rowsPerBand < 1 || rowsPerBand > signatureLength {
		return BandParameters{}, domain.NewInvalidInputError(
			fmt.Sprintf("rows per band must be between 1 and %d, got %d", signatureLength, rowsPerBand), nil)
	}
	bands := numBands(signatureLength, rowsPerBand)
	return BandParameters{
		SignatureLength: signatureLength,
		RowsPerBand:     rowsPerBand,
		Bands:           bands,
		Threshold:       bandThreshold(rowsPerBand, bands),
	}, nil
}

// SolveBandParameters picks the rows per band whose S-curve midpoint
// (1/b)^(1/r), with b = ceil(n/r), is closest to threshold. Every integer r
// in [1, n] is tried; ties keep the smaller r.
func SolveBandParameters(signatureLength int, threshold float64) (BandParameters, error) {
	if threshold <= 0 || threshold >= 1 || math.IsNaN(threshold) {
		return BandParameters{}, domain.NewInvalidThresholdError(threshold)
	}
	if signatureLength <= 0 {
		return BandParameters{}, domain.NewInvalidInputError(
			fmt.Sprintf("signature length must be > 0, got %d", signatureLength), nil)
	}

	best := BandParameters{SignatureLength: signatureLength}
	bestErr := math.Inf(1)
	for r := 1; r <= signatureLength; r++ {
		b := numBands(signatureLength, r)
		t := bandThreshold(r, b)
		if e := math.Abs(t - threshold); e < bestErr {
			bestErr = e
			best.RowsPerBand, best.Bands, best.Threshold = r, b, t
		}
	}
	return best, nil
}

func numBands(signatureLength, rowsPerBand int) int {
	return (signatureLength + rowsPerBand - 1) / rowsPerBand
}

func bandThreshold(rows, bands int) float64 {
	return math.Pow(1.0/float64(bands), 1.0/float64(rows))
}

// CandidateProbability is the S-curve 1 - (1 - s^r)^b: the chance two
// documents with Jaccard similarity s share at least one band bucket.
func CandidateProbability(s float64, rows, bands int) float64 {
	if s <= 0 {
		return 0.0
	}
	if s >= 1 {
		return 1.0
	}
	return 1.0 - math.Pow(1.0-math.Pow(s, float64(rows)), float64(bands))
}

// FalsePositiveRate is the probability that a pair with true similarity s,
// assumed below the threshold, still becomes a candidate
func (p BandParameters) FalsePositiveRate(s float64) float64 {
	if s <= 0 || s >= 1 {
		return 0.0
	}
	return CandidateProbability(s, p.RowsPerBand, p.Bands)
}

// FalseNegativeRate is the probability that a pair with true similarity s is missed
func (p BandParameters) FalseNegativeRate(s float64) float64 {
	if s <= 0 {
		return 1.0
	}
	if s >= 1 {
		return 0.0
	}
	return 1.0 - CandidateProbability(s, p.RowsPerBand, p.Bands)
}

// SCurvePoint is one sample of the candidate probability curve
type SCurvePoint struct {
	Similarity  float64 `json:"similarity" yaml:"similarity"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// SCurve samples the candidate probability at steps+1 evenly spaced similarities in [0, 1]
func (p BandParameters) SCurve(steps int) []SCurvePoint {
	if steps < 1 {
		steps = 10
	}
	points := make([]SCurvePoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		s := float64(i) / float64(steps)
		points = append(points, SCurvePoint{
			Similarity:  s,
			Probability: CandidateProbability(s, p.RowsPerBand, p.Bands),
		})
	}
	return points
}
