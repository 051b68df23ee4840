// Package keywords indexes search keywords as embeddings and generates
// labeled keyword CSV files by nearest-neighbour search per label query.
package keywords

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pdpextract/internal/embed"
	"github.com/hyperifyio/pdpextract/internal/vectorstore"
)

// Defaults matching the keyword tooling.
const (
	DefaultBatchSize = 20
	DefaultLimit     = 1000
	// DefaultMinScore is a relevance, (1 + cosine) / 2, so 0.75 keeps
	// keywords with cosine similarity of at least 0.5.
	DefaultMinScore = 0.75
)

// Query pairs a search phrase with the label its hits are written under.
type Query struct {
	Text  string `yaml:"query" json:"query"`
	Label string `yaml:"label" json:"label"`
}

// DefaultQueries are the label queries used when none are configured.
var DefaultQueries = []Query{
	{Text: "merchandise", Label: "0"},
	{Text: "careers", Label: "1"},
	{Text: "manuals/training", Label: "2"},
	{Text: "technology", Label: "3"},
	{Text: "account/finance", Label: "4"},
	{Text: "warranty", Label: "5"},
	{Text: "sis sos fluid-oil analysis", Label: "6"},
	{Text: "pornography adult", Label: "7"},
	{Text: "gibberish", Label: "11"},
}

// Store is the vector index the keywords live in.
type Store interface {
	EnsureCollection(ctx context.Context, dims int) error
	Upsert(ctx context.Context, points []vectorstore.Point) error
	Search(ctx context.Context, vector []float32, limit int, minScore float32) ([]vectorstore.Hit, error)
}

// Service wires an embedder to a store.
type Service struct {
	Embedder  embed.Embedder
	Store     Store
	BatchSize int
	Limit     int
	// MinScore is the relevance threshold. Nil means DefaultMinScore; zero
	// keeps every hit.
	MinScore  *float32
	Queries   []Query
}

func (s *Service) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return DefaultBatchSize
}

// Index embeds every non-empty line of the file at path and upserts it, in
// batches. The collection is created on the first batch using the vector
// size the embedder returns. It returns the number of indexed keywords.
func (s *Service) Index(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open keywords: %w", err)
	}
	defer f.Close()

	var (
		batch   []string
		count   int
		ensured bool
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		vecs, err := s.Embedder.Embed(ctx, batch)
		if err != nil {
			return err
		}
		if !ensured && len(vecs) > 0 {
			if err := s.Store.EnsureCollection(ctx, len(vecs[0])); err != nil {
				return err
			}
			ensured = true
		}
		points := make([]vectorstore.Point, len(batch))
		for i, kw := range batch {
			points[i] = vectorstore.Point{Keyword: kw, Vector: vecs[i]}
		}
		if err := s.Store.Upsert(ctx, points); err != nil {
			return err
		}
		count += len(batch)
		batch = batch[:0]
		log.Info().Int("indexed", count).Msg("keyword batch")
		return nil
	}

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		kw := strings.TrimSpace(sc.Text())
		if kw == "" {
			log.Debug().Int("line", line).Msg("skip empty keyword line")
			continue
		}
		batch = append(batch, kw)
		if len(batch) == s.batchSize() {
			if err := flush(); err != nil {
				return count, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("read keywords: %w", err)
	}
	return count, flush()
}

// Generate writes one <query>.csv per label query into dir with the
// keywords scoring at least MinScore against the query. It returns the
// number of rows written per query text.
func (s *Service) Generate(ctx context.Context, dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	queries := s.Queries
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	limit := s.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	minScore := float32(DefaultMinScore)
	if s.MinScore != nil {
		minScore = *s.MinScore
	}

	counts := make(map[string]int, len(queries))
	for _, q := range queries {
		vecs, err := s.Embedder.Embed(ctx, []string{q.Text})
		if err != nil {
			return counts, fmt.Errorf("embed %q: %w", q.Text, err)
		}
		hits, err := s.Store.Search(ctx, vecs[0], limit, minScore)
		if err != nil {
			return counts, fmt.Errorf("search %q: %w", q.Text, err)
		}
		n, err := writeLabelFile(filepath.Join(dir, FileName(q.Text)), q.Label, hits)
		if err != nil {
			return counts, err
		}
		counts[q.Text] = n
		log.Info().Str("query", q.Text).Int("terms", n).Msg("label file written")
	}
	return counts, nil
}

// FileName derives the CSV name for a query.
func FileName(query string) string {
	r := strings.NewReplacer(`"`, "", " ", "_", "/", "_")
	return r.Replace(query) + ".csv"
}

// CleanTerm makes a keyword safe for the unquoted label,term format.
func CleanTerm(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, ",", " "), `"`, "")
}

func writeLabelFile(path, label string, hits []vectorstore.Hit) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriter(f)
	seen := map[string]bool{}
	for _, h := range hits {
		term := CleanTerm(h.Keyword)
		if seen[term] {
			continue
		}
		seen[term] = true
		fmt.Fprintf(w, "%s,%s\n", label, term)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return 0, err
	}
	return len(seen), f.Close()
}
