package extract

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/pdpextract/internal/record"
)

// Extractor turns one product page into its ordered section records.
type Extractor interface {
	Extract(r io.Reader) ([]record.Record, error)
}

// Section pairs a section type with the function that extracts it.
type Section struct {
	Type    record.SectionType
	Extract SectionFunc
}

// Sections lists every extractor in assembly order.
var Sections = []Section{
	{record.KeySpec, keySpecs},
	{record.Overview, overview},
	{record.Benefit, benefits},
	{record.Feature, features},
	{record.Specification, specifications},
	{record.StandardEquipment, standardEquipment},
	{record.OptionalEquipment, optionalEquipment},
	{record.TechnologyService, technologies},
	{record.RelatedProducts, relatedProducts},
}

// ParseDocument decodes r using the charset declared by the document (UTF-8
// when none is declared) and parses it into an HTML tree.
func ParseDocument(r io.Reader) (*html.Node, error) {
	dr, err := charset.NewReader(r, "")
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := html.Parse(dr)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Assemble runs every section extractor over doc and concatenates their
// output in Sections order. No deduplication happens across types.
func Assemble(doc *html.Node, diag *Diagnostics) []record.Record {
	page := PageFields(doc, diag)
	var out []record.Record
	for _, s := range Sections {
		recs := s.Extract(doc, page, diag)
		diag.observe(recs)
		out = append(out, recs...)
	}
	return out
}

// PageExtractor implements Extractor with the product-page section set.
// Diag, when set, accumulates diagnostics across every page it extracts.
type PageExtractor struct {
	Diag *Diagnostics
}

func (e PageExtractor) Extract(r io.Reader) ([]record.Record, error) {
	doc, err := ParseDocument(r)
	if err != nil {
		return nil, err
	}
	return Assemble(doc, e.Diag), nil
}
