package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/dupscan/internal/config"
	"github.com/ludo-technologies/dupscan/internal/version"
)

const corpusText = `Shipping notice: your parcel left our warehouse this morning and should
arrive within three business days. Track it with the code printed on the
receipt, and contact support if the box arrives damaged or late.`

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.txt": corpusText,
		"b.txt": strings.Replace(corpusText, "three", "four", 1),
		"c.txt": strings.Repeat("lorem ipsum dolor sit amet ", 10),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, version.Short())

	out, _, err := runCLI(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Short()+"\n", out)

	out, _, err = runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "OS/Arch:")
}

func TestScan_JSON(t *testing.T) {
	dir := writeCorpus(t)

	out, _, err := runCLI(t, "scan", "--no-progress", "--format", "json", dir)
	require.NoError(t, err)

	var resp struct {
		Pairs []struct {
			PathA           string  `json:"path_a"`
			PathB           string  `json:"path_b"`
			ExactSimilarity float64 `json:"exact_similarity"`
		} `json:"pairs"`
		Statistics struct {
			Documents int `json:"documents"`
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Statistics.Documents)
	require.Len(t, resp.Pairs, 1)
	assert.Equal(t, "a.txt", filepath.Base(resp.Pairs[0].PathA))
	assert.Equal(t, "b.txt", filepath.Base(resp.Pairs[0].PathB))
	assert.Greater(t, resp.Pairs[0].ExactSimilarity, 0.8)
}

func TestScan_ConfigFileAndOutputs(t *testing.T) {
	dir := writeCorpus(t)
	cfg := "[output]\nformat = \"csv\"\n\n[minhash]\nnum_hashes = 64\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(cfg), 0o644))

	report := filepath.Join(t.TempDir(), "report.csv")
	metrics := filepath.Join(t.TempDir(), "run.prom")

	out, stderr, err := runCLI(t, "scan", "--no-progress", "-o", report, "--metrics-file", metrics, dir)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "report generated")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "doc_a,path_a,doc_b,path_b"))

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "dupscan_lsh_candidate_pairs_total")
	assert.Contains(t, string(prom), "dupscan_documents_total")
}

func TestScan_InvalidFlags(t *testing.T) {
	dir := writeCorpus(t)

	_, _, err := runCLI(t, "scan", "--no-progress", "--threshold", "1.5", dir)
	assert.Error(t, err)

	_, _, err = runCLI(t, "scan", "--no-progress", "--format", "xml", dir)
	assert.Error(t, err)

	_, _, err = runCLI(t, "scan")
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	dir := writeCorpus(t)

	out, _, err := runCLI(t, "compare", "--format", "json",
		filepath.Join(dir, "a.txt"), filepath.Join(dir, "a.txt"))
	require.NoError(t, err)

	var result struct {
		Exact     float64 `json:"exact_similarity"`
		Estimated float64 `json:"estimated_similarity"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1.0, result.Exact)
	assert.Equal(t, 1.0, result.Estimated)

	_, _, err = runCLI(t, "compare", filepath.Join(dir, "a.txt"), filepath.Join(dir, "nope.txt"))
	assert.Error(t, err)
}

func TestParams(t *testing.T) {
	out, _, err := runCLI(t, "params", "--num-hashes", "100", "--rows-per-band", "5", "--format", "json")
	require.NoError(t, err)

	var report struct {
		Parameters struct {
			Bands       int `json:"bands"`
			RowsPerBand int `json:"rows_per_band"`
		} `json:"parameters"`
		Curve []struct {
			Probability float64 `json:"probability"`
		} `json:"s_curve"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 20, report.Parameters.Bands)
	assert.Equal(t, 5, report.Parameters.RowsPerBand)
	require.Len(t, report.Curve, 11)
	assert.Equal(t, 0.0, report.Curve[0].Probability)
	assert.Equal(t, 1.0, report.Curve[10].Probability)

	out, _, err = runCLI(t, "params", "--threshold", "0.8")
	require.NoError(t, err)
	assert.Contains(t, out, "Banding Parameters")
	assert.Contains(t, out, "S-CURVE")

	_, _, err = runCLI(t, "params", "--threshold", "0")
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.ConfigFileName)

	out, _, err := runCLI(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created")

	loaded, err := config.NewTomlConfigLoader().LoadFile(path)
	require.NoError(t, err)
	defaults := config.DefaultConfig()
	assert.Equal(t, defaults.MinHash, loaded.MinHash)
	assert.Equal(t, defaults.LSH, loaded.LSH)
	assert.Equal(t, defaults.Input.IncludePatterns, loaded.Input.IncludePatterns)

	_, _, err = runCLI(t, "init", "--config", path)
	assert.Error(t, err)

	_, _, err = runCLI(t, "init", "--config", path, "--force")
	assert.NoError(t, err)
}
