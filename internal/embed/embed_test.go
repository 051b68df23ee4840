package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/pdpextract/internal/cache"
)

func TestOpenAIEmbedder_AgainstCompatibleServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "test-embed" {
			t.Errorf("model = %q", req.Model)
		}
		// Answer out of order to exercise index mapping.
		data := []map[string]any{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": []float32{float32(i), 1}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	defer srv.Close()

	e := NewOpenAI("k", srv.URL+"/v1", "test-embed", nil)
	got, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if diff := cmp.Diff([][]float32{{0, 1}, {1, 1}}, got); diff != "" {
		t.Fatalf("vectors mismatch (-want +got):\n%s", diff)
	}
}

type countingEmbedder struct{ calls [][]string }

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.calls = append(c.calls, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func TestCachedEmbedder_OnlySendsMisses(t *testing.T) {
	inner := &countingEmbedder{}
	c := &CachedEmbedder{Inner: inner, Cache: &cache.EmbeddingCache{Dir: t.TempDir()}, Model: "m"}

	if _, err := c.Embed(context.Background(), []string{"ab", "abc"}); err != nil {
		t.Fatal(err)
	}
	got, err := c.Embed(context.Background(), []string{"abc", "abcd"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]float32{{3}, {4}}, got); diff != "" {
		t.Fatalf("vectors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"ab", "abc"}, {"abcd"}}, inner.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

var _ Client = (*openai.Client)(nil)
