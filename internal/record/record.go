package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// SectionType tags the kind of product-page section a record came from.
type SectionType string

const (
	KeySpec           SectionType = "key spec"
	Overview          SectionType = "overview"
	Benefit           SectionType = "benefit"
	Feature           SectionType = "feature"
	Specification     SectionType = "product specification"
	StandardEquipment SectionType = "standard equipment"
	OptionalEquipment SectionType = "optional equipment"
	TechnologyService SectionType = "compatible technology/service"
	RelatedProducts   SectionType = "related products"
)

// SingletonSeq marks a record that is the only one of its type in a document.
const SingletonSeq = -1

// Separator joins the logical parts of a record's text.
const Separator = " \n "

// HashTag returns the type string fed into the identifier hash. It matches the
// stored tag for every type except technologies/services, whose identifiers
// have always been derived from the shorter "technology/service".
func (t SectionType) HashTag() string {
	if t == TechnologyService {
		return "technology/service"
	}
	return string(t)
}

// Page carries the document-level fields shared by every record of one page.
type Page struct {
	Title     string
	Thumbnail string
	URL       string
	// Subfamily is empty when the page has no product_line metadata.
	Subfamily string
}

// Record is one extracted section of a product page. Records are values and
// are never modified after being handed to the assembler.
type Record struct {
	ID             string      `json:"id"`
	Seq            int         `json:"seq"`
	URL            string      `json:"url"`
	Type           SectionType `json:"type"`
	Title          string      `json:"title"`
	Text           string      `json:"text_orig"`
	EmbeddingInput string      `json:"title_type_text_to_embed"`
	EmbeddingLabel string      `json:"title_type_to_embed"`
	Thumbnail      string      `json:"thumbnail"`
	Subfamily      string      `json:"subfamily,omitempty"`
}

// Identifier derives the stable record id from the source url, the sequence
// at construction time and the type's hash tag.
func Identifier(url string, seq int, t SectionType) string {
	h := sha256.Sum256([]byte(url + "_" + t.HashTag() + "_" + strconv.Itoa(seq)))
	return url + "!" + hex.EncodeToString(h[:])
}

// FileKey returns the part of the id after the "!" separator.
func (r Record) FileKey() string {
	if i := strings.LastIndexByte(r.ID, '!'); i >= 0 {
		return r.ID[i+1:]
	}
	return r.ID
}

// Build constructs a record for page p. The identifier is computed from seq as
// passed in. It reports false when text is empty after trimming; such records
// must not be kept.
func Build(p Page, t SectionType, seq int, text string) (Record, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Record{}, false
	}
	return Record{
		ID:             Identifier(p.URL, seq, t),
		Seq:            seq,
		URL:            p.URL,
		Type:           t,
		Title:          p.Title,
		Text:           text,
		EmbeddingInput: fmt.Sprintf("%s %s: %s", p.Title, t, text),
		EmbeddingLabel: p.Title + " " + string(t),
		Thumbnail:      p.Thumbnail,
		Subfamily:      p.Subfamily,
	}, true
}

// NormalizeSingleton returns recs with the lone record's Seq rewritten to
// SingletonSeq when exactly one record is present. IDs are left untouched, so
// a normalized record keeps the id hashed from its original position.
func NormalizeSingleton(recs []Record) []Record {
	if len(recs) != 1 {
		return recs
	}
	r := recs[0]
	r.Seq = SingletonSeq
	return []Record{r}
}

// Join concatenates non-empty parts with Separator.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}
