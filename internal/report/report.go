// Package report writes execution summaries for indexing and batch runs.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// timeLayout renders timestamps with microseconds, the resolution runs are
// compared at.
const timeLayout = "2006-01-02 15:04:05.000000"

// Execution is the summary of one run.
type Execution struct {
	Start  time.Time
	End    time.Time
	Failed int
}

// Total is the elapsed wall time.
func (e Execution) Total() time.Duration { return e.End.Sub(e.Start) }

// Lines returns the report body, one "Key: value" pair per line.
func (e Execution) Lines() []string {
	return []string{
		"Start Time: " + e.Start.Format(timeLayout),
		"End Time: " + e.End.Format(timeLayout),
		"Total Time: " + e.Total().String(),
		fmt.Sprintf("Failed Document numbers: %d", e.Failed),
	}
}

// FileName is the report name for a report created at now.
func FileName(now time.Time) string {
	return "execution_" + now.Format("20060102150405") + ".txt"
}

// Write creates dir if needed and writes the report as
// execution_YYYYMMDDHHMMSS.txt. It returns the written path.
func Write(dir string, e Execution) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName(time.Now()))
	body := strings.Join(e.Lines(), "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// WriteFailures writes one failed document id per line.
func WriteFailures(path string, ids []string) error {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
