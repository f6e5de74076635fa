package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/ludo-technologies/dupscan/domain"
)

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config template.
// All values are sourced from the domain package to ensure a single source of truth.
type DefaultConfigValues struct {
	IncludePatterns  []string
	ExcludePatterns  []string
	MaxFileSizeBytes int64

	ShingleSize int

	NumHashes      int
	Seed           uint64
	MaxMatrixCells int64

	Threshold      float64
	BucketBits     int
	MinBucketBits  int
	MaxBucketBits  int
	MaxBucketSlots int64
}

func newDefaultConfigValues() DefaultConfigValues {
	return DefaultConfigValues{
		IncludePatterns:  domain.DefaultIncludePatterns,
		ExcludePatterns:  domain.DefaultExcludePatterns,
		MaxFileSizeBytes: domain.DefaultMaxFileSizeBytes,
		ShingleSize:      domain.DefaultShingleSize,
		NumHashes:        domain.DefaultNumHashes,
		Seed:             domain.DefaultSeed,
		MaxMatrixCells:   domain.DefaultMaxMatrixCells,
		Threshold:        domain.DefaultSimilarityThreshold,
		BucketBits:       domain.DefaultBucketBits,
		MinBucketBits:    domain.MinBucketBits,
		MaxBucketBits:    domain.MaxBucketBits,
		MaxBucketSlots:   domain.DefaultMaxBucketSlots,
	}
}

// GenerateDefaultConfigTOML renders the default config template with domain values
// and returns the resulting TOML string.
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newDefaultConfigValues()); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}

	return buf.String(), nil
}
