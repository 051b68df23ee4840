package forward

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Run summarizes one IndexDirectory pass.
type Run struct {
	Start    time.Time
	End      time.Time
	Sent     int
	Failures []string
}

// Elapsed is the wall time of the run.
func (r Run) Elapsed() time.Duration { return r.End.Sub(r.Start) }

// IndexDirectory sends every *.json regular file of dir in name order. The
// first start directory entries are skipped, counted over all entries so a
// run can resume at the position a previous run reported. Failures are
// collected by file name and never stop the run; only a cancelled context or
// an unreadable directory does.
func IndexDirectory(ctx context.Context, s Sender, dir string, start int) (Run, error) {
	run := Run{Start: time.Now()}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return run, fmt.Errorf("read dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for idx, name := range names {
		if idx < start {
			continue
		}
		if err := ctx.Err(); err != nil {
			run.End = time.Now()
			return run, err
		}
		path := filepath.Join(dir, name)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := sendFile(ctx, s, path); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("failed document")
			run.Failures = append(run.Failures, name)
			continue
		}
		run.Sent++
		log.Debug().Str("file", name).Msg("indexed")
	}
	run.End = time.Now()
	return run, nil
}

func sendFile(ctx context.Context, s Sender, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return s.Send(ctx, doc)
}
