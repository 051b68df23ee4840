package extract

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hyperifyio/pdpextract/internal/record"
)

// ErrIntegrity is matched by every IntegrityError via errors.Is.
var ErrIntegrity = errors.New("data integrity")

// IntegrityError describes a page whose structure does not satisfy the
// positional or naming contract an extractor relies on. Extraction continues
// without the affected entries.
type IntegrityError struct {
	URL     string
	Section record.SectionType
	Detail  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.URL, e.Section, e.Detail)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// Longest identifies the longest embedding input observed so far.
type Longest struct {
	URL    string
	Type   record.SectionType
	Length int
}

// Diagnostics accumulates operator-facing observations across documents.
// Nothing in it is read back during extraction. A nil *Diagnostics discards
// everything.
type Diagnostics struct {
	Longest Longest
	Issues  []*IntegrityError
}

func (d *Diagnostics) observe(recs []record.Record) {
	if d == nil {
		return
	}
	for _, r := range recs {
		if n := utf8.RuneCountInString(r.EmbeddingInput); n > d.Longest.Length {
			d.Longest = Longest{URL: r.URL, Type: r.Type, Length: n}
		}
	}
}

func (d *Diagnostics) issue(url string, section record.SectionType, format string, args ...any) {
	if d == nil {
		return
	}
	d.Issues = append(d.Issues, &IntegrityError{URL: url, Section: section, Detail: fmt.Sprintf(format, args...)})
}
