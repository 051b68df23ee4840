package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/pdpextract/internal/batch"
	"github.com/hyperifyio/pdpextract/internal/budget"
	"github.com/hyperifyio/pdpextract/internal/extract"
)

// runManifest is the machine-readable record of one extraction run, written
// next to the execution reports.
type runManifest struct {
	Version        string          `json:"version"`
	StartedAt      time.Time       `json:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt"`
	DocRoot        string          `json:"docRoot"`
	Manifest       string          `json:"manifest"`
	ManifestSHA256 string          `json:"manifestSHA256,omitempty"`
	OutputDir      string          `json:"outputDir"`
	Documents      int             `json:"documents"`
	Records        int             `json:"records"`
	Failures       []failureEntry  `json:"failures,omitempty"`
	Unsent         []string        `json:"unsent,omitempty"`
	Longest        extract.Longest `json:"longest"`
	LongestTokens  int             `json:"longestTokens"`
	Issues         []string        `json:"issues,omitempty"`
}

type failureEntry struct {
	Entry string `json:"entry"`
	Error string `json:"error"`
}

// writeRunManifest writes extract_<timestamp>.json into the report directory
// and returns its path.
func writeRunManifest(cfg Config, started time.Time, res batch.Result, diag extract.Diagnostics) (string, error) {
	finished := time.Now()
	m := runManifest{
		Version:    BuildVersion,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		DocRoot:    cfg.DocRoot,
		Manifest:   cfg.ManifestPath,
		OutputDir:  cfg.OutputDir,
		Documents:  res.Documents,
		Records:    res.Records,
		Unsent:     res.Unsent,
		Longest:    diag.Longest,

		LongestTokens: budget.EstimateTokensFromChars(diag.Longest.Length),
	}
	if sum, err := sha256File(cfg.ManifestPath); err == nil {
		m.ManifestSHA256 = sum
	}
	for _, f := range res.Failures {
		m.Failures = append(m.Failures, failureEntry{Entry: f.Entry, Error: f.Err.Error()})
	}
	for _, is := range diag.Issues {
		m.Issues = append(m.Issues, is.Error())
	}

	if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(cfg.ReportDir, "extract_"+finished.Format("20060102150405")+".json")
	if err := writeJSON(path, m); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
