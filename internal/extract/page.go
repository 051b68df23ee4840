package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pdpextract/internal/record"
)

const (
	noTitle     = "No Title Found"
	noThumbnail = "No Thumbnail Found"
	noURL       = "No URL Found"
)

// PageFields reads the document-level fields shared by all records of a page.
func PageFields(doc *html.Node, diag *Diagnostics) record.Page {
	p := record.Page{Title: noTitle, Thumbnail: noThumbnail, URL: noURL}

	if t := findFirst(doc, tag("title")); t != nil {
		title, _, _ := strings.Cut(text(t), "|")
		p.Title = strings.TrimSpace(title)
	}
	if zoom := findFirst(doc, tagExactClasses("div", "easyzoom", "easyzoom--overlay")); zoom != nil {
		if a := findFirst(zoom, tag("a")); a != nil {
			p.Thumbnail = attr(a, "href")
		}
	}
	if m := findFirst(doc, tagAttr("meta", "property", "og:site_name")); m != nil {
		p.URL = attr(m, "content")
	}
	if m := findFirst(doc, tagAttr("meta", "name", "product_line")); m != nil {
		parts := strings.Split(attr(m, "content"), "^")
		if len(parts) > 3 {
			p.Subfamily = parts[3]
		} else {
			diag.issue(p.URL, "page", "product_line %q has %d fields, want at least 4", attr(m, "content"), len(parts))
		}
	}
	return p
}
