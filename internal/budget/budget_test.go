package budget

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := map[string]int{"": 0, "a": 1, "abcd": 1, "abcde": 2, "ääää": 1}
	for in, want := range cases {
		if got := EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestInputTokens(t *testing.T) {
	if got := InputTokens("Text-Embedding-3-Small"); got != 8191 {
		t.Fatalf("got %d", got)
	}
	if got := InputTokens("ollama/mxbai-embed-large:latest"); got != 512 {
		t.Fatalf("provider prefix and tag must be ignored, got %d", got)
	}
	if got := InputTokens("unknown"); got != DefaultInputTokens {
		t.Fatalf("got %d", got)
	}
}

func TestFits(t *testing.T) {
	if !Fits("all-minilm", 4*200) {
		t.Fatalf("200 tokens must fit a 256 window")
	}
	if Fits("all-minilm", 4*240) {
		t.Fatalf("240 tokens must not fit after headroom")
	}
	if !Fits("text-embedding-3-small", len(strings.Repeat("x", 10000))) {
		t.Fatalf("10k chars must fit")
	}
}
