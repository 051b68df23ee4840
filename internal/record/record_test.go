package record

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestIdentifier_MatchesHashContract(t *testing.T) {
	url := "https://example.com/p/d6"
	sum := sha256.Sum256([]byte(url + "_benefit_0"))
	want := url + "!" + hex.EncodeToString(sum[:])
	if got := Identifier(url, 0, Benefit); got != want {
		t.Fatalf("unexpected id:\n got %s\nwant %s", got, want)
	}
	if Identifier(url, 0, Benefit) != Identifier(url, 0, Benefit) {
		t.Fatalf("identifier must be repeatable")
	}
	if Identifier(url, 0, Benefit) == Identifier(url, 1, Benefit) {
		t.Fatalf("different sequences must produce different ids")
	}
}

func TestIdentifier_TechnologyUsesShortHashTag(t *testing.T) {
	url := "u"
	sum := sha256.Sum256([]byte("u_technology/service_2"))
	want := "u!" + hex.EncodeToString(sum[:])
	if got := Identifier(url, 2, TechnologyService); got != want {
		t.Fatalf("expected technology hash tag, got %s", got)
	}
}

func TestBuild_ComposesEmbeddingStrings(t *testing.T) {
	p := Page{Title: "D6 Dozer", URL: "u", Thumbnail: "t.png", Subfamily: "Dozers"}
	r, ok := Build(p, Overview, SingletonSeq, "  Big \n blade  ")
	if !ok {
		t.Fatalf("expected record to be kept")
	}
	if r.Text != "Big \n blade" {
		t.Fatalf("expected trimmed text, got %q", r.Text)
	}
	if r.EmbeddingInput != "D6 Dozer overview: Big \n blade" {
		t.Fatalf("unexpected embedding input %q", r.EmbeddingInput)
	}
	if r.EmbeddingLabel != "D6 Dozer overview" {
		t.Fatalf("unexpected embedding label %q", r.EmbeddingLabel)
	}
	if r.ID != Identifier("u", -1, Overview) || r.Subfamily != "Dozers" || r.Thumbnail != "t.png" {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestBuild_DropsEmptyText(t *testing.T) {
	if _, ok := Build(Page{URL: "u"}, Benefit, 0, " \n\t "); ok {
		t.Fatalf("expected empty text to be rejected")
	}
}

func TestNormalizeSingleton_KeepsHashedID(t *testing.T) {
	r, _ := Build(Page{URL: "u"}, Benefit, 0, "only")
	out := NormalizeSingleton([]Record{r})
	if out[0].Seq != SingletonSeq {
		t.Fatalf("expected seq -1, got %d", out[0].Seq)
	}
	if out[0].ID != Identifier("u", 0, Benefit) {
		t.Fatalf("id must stay hashed with the construction-time sequence")
	}
	two := []Record{r, r}
	if got := NormalizeSingleton(two); got[0].Seq != 0 {
		t.Fatalf("two records must keep their sequences")
	}
}

func TestFileKey(t *testing.T) {
	r, _ := Build(Page{URL: "https://x.test/a!b"}, Feature, 3, "text")
	key := r.FileKey()
	if strings.Contains(key, "!") || len(key) != 64 {
		t.Fatalf("expected bare hex digest, got %q", key)
	}
}

func TestJoin_SkipsEmptyParts(t *testing.T) {
	if got := Join("a", "", "  ", "b"); got != "a \n b" {
		t.Fatalf("unexpected join %q", got)
	}
}
