package extract

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pdpextract/internal/record"
)

// SectionFunc extracts the records of one section type from a parsed page.
// Implementations never fail: a page without the section's anchor yields nil,
// and structural mismatches are reported to diag.
type SectionFunc func(doc *html.Node, p record.Page, diag *Diagnostics) []record.Record

// Positions of the equipment containers among div.pdp-tab__content_download.
const (
	standardEquipmentIndex = 1
	optionalEquipmentIndex = 2
)

// collector assigns sequences to the kept records of one section type.
type collector struct {
	page record.Page
	typ  record.SectionType
	recs []record.Record
}

func (c *collector) add(text string) {
	if r, ok := record.Build(c.page, c.typ, len(c.recs), text); ok {
		c.recs = append(c.recs, r)
	}
}

func (c *collector) done() []record.Record {
	return record.NormalizeSingleton(c.recs)
}

// singleton builds the one record of a section that is always a singleton.
// Its id is hashed with the singleton sequence.
func singleton(p record.Page, t record.SectionType, text string) []record.Record {
	if r, ok := record.Build(p, t, record.SingletonSeq, text); ok {
		return []record.Record{r}
	}
	return nil
}

func keySpecs(doc *html.Node, p record.Page, diag *Diagnostics) []record.Record {
	anchor := findFirst(doc, tagClass("p", "highlight"))
	if anchor == nil {
		return nil
	}
	container := findNext(anchor, tagClass("div", "top-three"))
	if container == nil {
		diag.issue(p.URL, record.KeySpec, "p.highlight without a following div.top-three")
		return nil
	}
	var lines []string
	for _, dl := range findAll(container, tagClass("dl", "top-specifications__list")) {
		name := findFirst(dl, tag("dt"))
		us := findFirst(dl, tagClass("dd", "unit-us"))
		metric := findFirst(dl, tagClass("dd", "unit-metric"))
		if name == nil || us == nil || metric == nil {
			diag.issue(p.URL, record.KeySpec, "incomplete spec list %q", text(dl))
			continue
		}
		lines = append(lines, unitLine(text(name), text(us), text(metric)))
	}
	return singleton(p, record.KeySpec, record.Join(lines...))
}

func overview(doc *html.Node, p record.Page, _ *Diagnostics) []record.Record {
	var parts []string
	for _, wrapper := range findAll(doc, tagExactClasses("div", "pdp-overview__wrapper")) {
		for _, n := range findAll(wrapper, tag("h2", "h3", "h4", "p")) {
			parts = append(parts, text(n))
		}
	}
	return singleton(p, record.Overview, record.Join(parts...))
}

func benefits(doc *html.Node, p record.Page, _ *Diagnostics) []record.Record {
	c := collector{page: p, typ: record.Benefit}
	for _, item := range findAll(doc, tagClass("div", "pdp-usp__wrapper__item")) {
		title := text(findFirst(item, tag("h4")))
		desc := text(findFirst(item, tag("p")))
		c.add(record.Join(title, desc))
	}
	return c.done()
}

func features(doc *html.Node, p record.Page, _ *Diagnostics) []record.Record {
	c := collector{page: p, typ: record.Feature}
	for _, section := range findAll(doc, tagClass("div", "benefits-features--content")) {
		controls := findAll(section, tagClass("div", "benefits-features--accordion-control"))
		contents := findAll(section, tagClass("div", "benefits-features--accordion-content"))
		for i := 0; i < len(controls) && i < len(contents); i++ {
			title := text(findFirst(controls[i], tagClass("span", "acc-header")))
			var points []string
			for _, li := range findAll(contents[i], tag("li")) {
				points = append(points, text(li))
			}
			for _, div := range children(contents[i], tag("div")) {
				points = append(points, ownText(div)...)
			}
			c.add(record.Join(title, record.Join(points...)))
		}
	}
	return c.done()
}

func specifications(doc *html.Node, p record.Page, diag *Diagnostics) []record.Record {
	c := collector{page: p, typ: record.Specification}
	for _, heading := range findAll(doc, tagClass("h3", "accordion__heading_download")) {
		body := nextSibling(heading, tagClass("div", "accordion__body_download"))
		if body == nil {
			continue
		}
		var lines []string
		for _, row := range findAll(body, tag("tr")) {
			name := findFirst(findFirst(row, tag("td")), tag("strong"))
			us := findFirst(row, tagClass("span", "unit-us"))
			metric := findFirst(row, tagClass("span", "unit-metric"))
			if name == nil || us == nil || metric == nil {
				diag.issue(p.URL, record.Specification, "incomplete spec row %q", text(row))
				continue
			}
			lines = append(lines, unitLine(text(name), text(us), text(metric)))
		}
		c.add(record.Join(text(heading), record.Join(lines...)))
	}
	return c.done()
}

func standardEquipment(doc *html.Node, p record.Page, diag *Diagnostics) []record.Record {
	return equipment(doc, p, diag, standardEquipmentIndex, record.StandardEquipment)
}

func optionalEquipment(doc *html.Node, p record.Page, diag *Diagnostics) []record.Record {
	return equipment(doc, p, diag, optionalEquipmentIndex, record.OptionalEquipment)
}

// equipment reads the tab container at position index. Pages are expected to
// render specifications, standard and optional equipment as consecutive
// div.pdp-tab__content_download blocks; a page with fewer blocks has no
// records of the missing flavor.
func equipment(doc *html.Node, p record.Page, diag *Diagnostics, index int, t record.SectionType) []record.Record {
	tabs := findAll(doc, tagClass("div", "pdp-tab__content_download"))
	if len(tabs) == 0 {
		return nil
	}
	if len(tabs) <= index {
		diag.issue(p.URL, t, "found %d tab containers, need at least %d", len(tabs), index+1)
		return nil
	}
	col := findFirst(tabs[index], tagClass("div", "col-lg-12"))
	if col == nil {
		diag.issue(p.URL, t, "tab container %d has no div.col-lg-12", index)
		return nil
	}

	c := collector{page: p, typ: t}
	var heading string
	var items []string
	flush := func() {
		if heading != "" && len(items) > 0 {
			c.add(record.Join(heading, record.Join(items...)))
		}
	}
	for _, n := range findAll(col, tag("h4", "ul")) {
		if strings.EqualFold(n.Data, "h4") {
			flush()
			heading = text(n)
			items = nil
			continue
		}
		for _, li := range findAll(n, tag("li")) {
			items = append(items, text(li))
		}
	}
	flush()
	return c.done()
}

func technologies(doc *html.Node, p record.Page, diag *Diagnostics) []record.Record {
	var tabNames []string
	for _, tab := range findAll(doc, tagClass("div", "technology-tabs__carousel-item")) {
		tabNames = append(tabNames, text(tab))
	}

	c := collector{page: p, typ: record.TechnologyService}
	for _, entry := range findAll(doc, tagClass("li", "tab__header")) {
		tabName, err := tabFor(entry, tabNames)
		if err != nil {
			diag.issue(p.URL, record.TechnologyService, "%v", err)
			continue
		}
		title := textOr(findFirst(entry, tag("h4")), "N/A")
		desc := "N/A"
		if wrapper := findFirst(entry, tagClass("div", "technology-tabs__content__inner-wrapper")); wrapper != nil {
			desc = textOr(findFirst(wrapper, tag("p")), "N/A")
		}
		c.add(record.Join(tabName, title, desc))
	}
	return c.done()
}

// tabFor resolves the tab name of a technology entry from the id of its
// enclosing content item. Ids follow "prefix-N" with N counting from 1.
func tabFor(entry *html.Node, tabNames []string) (string, error) {
	item := closest(entry, tagClass("div", "technology-tabs__content-item"))
	if item == nil {
		return "", fmt.Errorf("tab entry %q outside a technology-tabs__content-item", text(entry))
	}
	id := attr(item, "id")
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return "", fmt.Errorf("content item id %q has no numeric suffix", id)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("content item id %q: %w", id, err)
	}
	idx := n - 1
	if idx < 0 || idx >= len(tabNames) {
		return "", fmt.Errorf("content item id %q points at tab %d of %d", id, idx, len(tabNames))
	}
	return tabNames[idx], nil
}

func relatedProducts(doc *html.Node, p record.Page, _ *Diagnostics) []record.Record {
	c := collector{page: p, typ: record.RelatedProducts}
	for _, article := range findAll(doc, tagClass("article", "accordion__item")) {
		var products []string
		for _, list := range findAll(article, tagClass("div", "compatible-product-list-accordion")) {
			products = append(products, textOr(findFirst(list, tag("h3")), "N/A"))
			for _, li := range findAll(findFirst(list, tag("ul")), tag("li")) {
				products = append(products, text(li))
			}
		}
		if len(products) == 0 {
			continue
		}
		c.add(record.Join(textOr(findFirst(article, tag("h2")), "N/A"), record.Join(products...)))
	}
	return c.done()
}

func unitLine(name, us, metric string) string {
	return name + ": " + us + " / " + metric
}
