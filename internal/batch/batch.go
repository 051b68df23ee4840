// Package batch drives manifests of product pages through extraction and
// persistence, one document at a time.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pdpextract/internal/extract"
	"github.com/hyperifyio/pdpextract/internal/fetch"
	"github.com/hyperifyio/pdpextract/internal/forward"
	"github.com/hyperifyio/pdpextract/internal/record"
	"github.com/hyperifyio/pdpextract/internal/sink"
)

// ReadManifest returns the trimmed, non-empty lines of the manifest at path.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return parseManifest(f)
}

func parseManifest(r io.Reader) ([]string, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}

// Fetcher loads remote manifest entries.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Failure records a manifest entry that could not be loaded or parsed.
type Failure struct {
	Entry string
	Err   error
}

// Result summarizes a batch run.
type Result struct {
	Documents int
	Records   int
	// Failures lists entries skipped because they could not be loaded.
	Failures []Failure
	// Unsent lists ids of records the forwarder gave up on.
	Unsent []string
}

// Driver feeds manifest entries through Extractor and Sink. Relative
// entries resolve against DocRoot; http(s) entries go through Fetcher.
// Forwarder is optional.
type Driver struct {
	DocRoot   string
	Extractor extract.Extractor
	Sink      sink.Sink
	Fetcher   Fetcher
	Forwarder forward.Sender
}

// Run processes entries sequentially. A document that cannot be loaded or
// parsed is logged and collected; a sink error stops the run and is returned
// along with the partial result.
func (d *Driver) Run(ctx context.Context, entries []string) (Result, error) {
	var res Result
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		recs, err := d.extract(ctx, entry)
		if err != nil {
			log.Warn().Err(err).Str("entry", entry).Msg("skip document")
			res.Failures = append(res.Failures, Failure{Entry: entry, Err: err})
			continue
		}
		if err := d.Sink.Write(recs); err != nil {
			return res, fmt.Errorf("%s: %w", entry, err)
		}
		res.Documents++
		res.Records += len(recs)
		log.Info().Str("entry", entry).Int("records", len(recs)).Msg("document done")

		if d.Forwarder != nil {
			res.Unsent = append(res.Unsent, d.forward(ctx, recs)...)
		}
	}
	return res, nil
}

func (d *Driver) extract(ctx context.Context, entry string) ([]record.Record, error) {
	r, err := d.open(ctx, entry)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return d.Extractor.Extract(r)
}

func (d *Driver) open(ctx context.Context, entry string) (io.ReadCloser, error) {
	if fetch.IsRemote(entry) {
		if d.Fetcher == nil {
			return nil, fmt.Errorf("no fetcher configured for %s", entry)
		}
		body, _, err := d.Fetcher.Get(ctx, entry)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	path := entry
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.DocRoot, entry)
	}
	return os.Open(path)
}

func (d *Driver) forward(ctx context.Context, recs []record.Record) []string {
	var unsent []string
	for _, r := range recs {
		if err := d.Forwarder.Send(ctx, r); err != nil {
			log.Warn().Err(err).Str("id", r.ID).Msg("forward failed")
			unsent = append(unsent, r.ID)
		}
	}
	return unsent
}
