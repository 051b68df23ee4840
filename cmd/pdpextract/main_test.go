package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/pdpextract/internal/dataset"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file="}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "pdpextract ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSplitThenAudit(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	rows := []dataset.Row{{Label: "1", Term: "dozer"}, {Label: "2", Term: "excavator"}, {Label: "3", Term: "loader"}}
	if err := dataset.WriteRows(filepath.Join(in, "labels.csv"), rows); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "split", "--dataset.dir", in, "--dataset.out", out, "--seed", "7"); err != nil {
		t.Fatalf("split: %v", err)
	}
	for _, name := range dataset.SplitFiles {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	report, err := run(t, "audit", "--dataset.out", out)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !strings.Contains(report, "No hard duplicates found across files.") {
		t.Fatalf("unexpected audit output:\n%s", report)
	}
}

func TestConfigFileFeedsCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pdpextract.yaml")
	manifest := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(manifest, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	body := "manifest: " + manifest + "\nout: " + filepath.Join(dir, "records") +
		"\nreportDir: " + filepath.Join(dir, "reports") + "\ncache:\n  dir: \"\"\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "extract", "--config", cfgPath, "--cache.dir", filepath.Join(dir, "cache")); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "records")); err != nil {
		t.Fatalf("expected output dir from config file: %v", err)
	}
	reports, _ := filepath.Glob(filepath.Join(dir, "reports", "extract_*.json"))
	if len(reports) != 1 {
		t.Fatalf("expected one run manifest, got %v", reports)
	}
}

func TestKeywordsIndexNeedsFile(t *testing.T) {
	if _, err := run(t, "keywords", "index"); err == nil {
		t.Fatalf("expected missing argument error")
	}
}
