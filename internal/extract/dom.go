package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// matcher reports whether an element node is selected.
type matcher func(n *html.Node) bool

func tag(names ...string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, name := range names {
			if strings.EqualFold(n.Data, name) {
				return true
			}
		}
		return false
	}
}

// tagClass matches <name> elements whose class list contains class.
func tagClass(name, class string) matcher {
	return func(n *html.Node) bool {
		return tag(name)(n) && hasClass(n, class)
	}
}

// tagExactClasses matches <name> elements whose class attribute holds exactly
// the given classes, in any order and with no extras.
func tagExactClasses(name string, classes ...string) matcher {
	return func(n *html.Node) bool {
		if !tag(name)(n) {
			return false
		}
		got := strings.Fields(attr(n, "class"))
		if len(got) != len(classes) {
			return false
		}
		for _, c := range classes {
			if !contains(got, c) {
				return false
			}
		}
		return true
	}
}

// tagAttr matches <name> elements with attribute key equal to val.
func tagAttr(name, key, val string) matcher {
	return func(n *html.Node) bool {
		return tag(name)(n) && attr(n, key) == val
	}
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return contains(strings.Fields(attr(n, "class")), class)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// findFirst returns the first descendant of n (document order) matching m.
func findFirst(n *html.Node, m matcher) *html.Node {
	if n == nil {
		return nil
	}
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil && res == nil; c = c.NextSibling {
			if m(c) {
				res = c
				return
			}
			dfs(c)
		}
	}
	dfs(n)
	return res
}

// findAll returns every descendant of n matching m in document order.
func findAll(n *html.Node, m matcher) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			dfs(c)
		}
	}
	dfs(n)
	return out
}

// children returns the direct element children of n matching m.
func children(n *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			out = append(out, c)
		}
	}
	return out
}

// findNext returns the first node after n in document order matching m.
// Descendants of n count as "after" n.
func findNext(n *html.Node, m matcher) *html.Node {
	for cur := nextInOrder(n); cur != nil; cur = nextInOrder(cur) {
		if m(cur) {
			return cur
		}
	}
	return nil
}

func nextInOrder(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.NextSibling != nil {
			return cur.NextSibling
		}
	}
	return nil
}

// nextSibling returns the first following sibling of n matching m.
func nextSibling(n *html.Node, m matcher) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if m(s) {
			return s
		}
	}
	return nil
}

// closest returns the nearest ancestor of n matching m.
func closest(n *html.Node, m matcher) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if m(p) {
			return p
		}
	}
	return nil
}

// text returns the concatenated text of n and its descendants with whitespace
// runs collapsed to single spaces and the ends trimmed. A nil node yields "".
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		switch cur.Type {
		case html.TextNode:
			b.WriteString(cur.Data)
		case html.ElementNode:
			switch strings.ToLower(cur.Data) {
			case "script", "style", "noscript":
				return
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return cleanText(b.String())
}

// ownText returns the non-empty text nodes that are direct children of n.
func ownText(n *html.Node) []string {
	var out []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if s := cleanText(c.Data); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func textOr(n *html.Node, fallback string) string {
	if n == nil {
		return fallback
	}
	return text(n)
}

func cleanText(s string) string {
	return strings.TrimSpace(collapseSpaces(s))
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\u00a0' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
