package keywords

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/pdpextract/internal/vectorstore"
)

type fakeEmbedder struct{ batches [][]string }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

type fakeStore struct {
	dims     int
	ensured  int
	points   []vectorstore.Point
	hits     map[string][]vectorstore.Hit
	searches int
	minScore float32
	limit    int
}

func (f *fakeStore) EnsureCollection(_ context.Context, dims int) error {
	f.ensured++
	f.dims = dims
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, pts []vectorstore.Point) error {
	f.points = append(f.points, pts...)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, limit int, minScore float32) ([]vectorstore.Hit, error) {
	f.searches++
	f.limit, f.minScore = limit, minScore
	var out []vectorstore.Hit
	for _, hs := range f.hits {
		out = append(out, hs...)
	}
	return out, nil
}

func TestIndex_BatchesNonEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kw.txt")
	var b strings.Builder
	for i := 0; i < 45; i++ {
		b.WriteString("kw")
		b.WriteString(strings.Repeat("x", i))
		b.WriteString("\n")
		if i == 10 {
			b.WriteString("   \n")
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	emb := &fakeEmbedder{}
	st := &fakeStore{}
	s := &Service{Embedder: emb, Store: st}
	n, err := s.Index(context.Background(), path)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if n != 45 || len(st.points) != 45 {
		t.Fatalf("expected 45 keywords, got %d/%d", n, len(st.points))
	}
	sizes := []int{}
	for _, b := range emb.batches {
		sizes = append(sizes, len(b))
	}
	if diff := cmp.Diff([]int{20, 20, 5}, sizes); diff != "" {
		t.Fatalf("batch sizes mismatch (-want +got):\n%s", diff)
	}
	if st.ensured != 1 || st.dims != 3 {
		t.Fatalf("expected one collection check with dims 3, got %d/%d", st.ensured, st.dims)
	}
}

func TestGenerate_WritesCleanDedupedFiles(t *testing.T) {
	st := &fakeStore{hits: map[string][]vectorstore.Hit{"all": {
		{Keyword: `cat "hat", red`, Score: 0.9},
		{Keyword: `cat hat  red`, Score: 0.8},
		{Keyword: "shirt", Score: 0.8},
	}}}
	s := &Service{
		Embedder: &fakeEmbedder{},
		Store:    st,
		Queries:  []Query{{Text: "manuals/training", Label: "2"}, {Text: "sis sos", Label: "6"}},
	}
	dir := filepath.Join(t.TempDir(), "out")
	counts, err := s.Generate(context.Background(), dir)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"manuals/training": 2, "sis sos": 2}, counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	b, err := os.ReadFile(filepath.Join(dir, "manuals_training.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "2,cat hat  red\n2,shirt\n" {
		t.Fatalf("unexpected file %q", b)
	}
	if _, err := os.Stat(filepath.Join(dir, "sis_sos.csv")); err != nil {
		t.Fatalf("expected second label file: %v", err)
	}
	if st.limit != DefaultLimit || st.minScore != DefaultMinScore {
		t.Fatalf("expected default limit and threshold, got %d/%v", st.limit, st.minScore)
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"sis sos fluid-oil analysis": "sis_sos_fluid-oil_analysis.csv",
		"account/finance":            "account_finance.csv",
		`"quoted" term`:              "quoted_term.csv",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerate_ExplicitZeroThresholdIsKept(t *testing.T) {
	st := &fakeStore{}
	zero := float32(0)
	s := &Service{
		Embedder: &fakeEmbedder{},
		Store:    st,
		MinScore: &zero,
		Queries:  []Query{{Text: "gibberish", Label: "11"}},
	}
	if _, err := s.Generate(context.Background(), t.TempDir()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if st.minScore != 0 {
		t.Fatalf("explicit zero threshold replaced by %v", st.minScore)
	}
}
