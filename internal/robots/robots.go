// Package robots decides whether remote product pages may be fetched,
// following the site's robots.txt.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/pdpextract/internal/cache"
)

// Group is one User-agent block of a robots.txt file.
type Group struct {
	Agents     []string
	Allow      []string
	Disallow   []string
	CrawlDelay time.Duration
}

// Rules is a parsed robots.txt file.
type Rules struct {
	Groups []Group
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	// Delay is the crawl delay the site asks for, zero when unset.
	Delay time.Duration
}

// Policy fetches robots.txt once per origin and answers per-URL checks.
// Fetched files go through Cache when set so reruns revalidate with
// conditional requests.
type Policy struct {
	HTTPClient *http.Client
	UserAgent  string
	Cache      *cache.PageCache
	// TTL bounds how long rules stay in memory. Zero means 30 minutes.
	TTL time.Duration

	mu    sync.Mutex
	rules map[string]cachedRules
	now   func() time.Time
}

type cachedRules struct {
	rules   Rules
	expires time.Time
}

// Check fetches (or reuses) the rules for rawURL's origin and evaluates the
// URL's path against them.
func (p *Policy) Check(ctx context.Context, rawURL string) (Decision, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Decision{}, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Decision{}, fmt.Errorf("unsupported url scheme: %q", rawURL)
	}
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	rules, err := p.load(ctx, robotsURL)
	if err != nil {
		return Decision{}, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return Decision{
		Allowed: rules.Allowed(p.UserAgent, path),
		Delay:   rules.CrawlDelay(p.UserAgent),
	}, nil
}

func (p *Policy) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Policy) load(ctx context.Context, robotsURL string) (Rules, error) {
	p.mu.Lock()
	if ent, ok := p.rules[robotsURL]; ok && p.clock().Before(ent.expires) {
		p.mu.Unlock()
		return ent.rules, nil
	}
	p.mu.Unlock()

	body, err := p.fetch(ctx, robotsURL)
	if err != nil {
		return Rules{}, err
	}
	rules := Parse(body)

	ttl := p.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	p.mu.Lock()
	if p.rules == nil {
		p.rules = make(map[string]cachedRules)
	}
	p.rules[robotsURL] = cachedRules{rules: rules, expires: p.clock().Add(ttl)}
	p.mu.Unlock()
	return rules, nil
}

// fetch returns the robots.txt body. A missing file (any 4xx) is an empty
// body, which allows everything; server errors are returned.
func (p *Policy) fetch(ctx context.Context, robotsURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	if p.Cache != nil {
		if meta, err := p.Cache.LoadMeta(ctx, robotsURL); err == nil && meta != nil {
			if meta.ETag != "" {
				req.Header.Set("If-None-Match", meta.ETag)
			}
			if meta.LastModified != "" {
				req.Header.Set("If-Modified-Since", meta.LastModified)
			}
		}
	}
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", robotsURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && p.Cache != nil:
		b, err := p.Cache.LoadBody(ctx, robotsURL)
		if err != nil {
			return "", fmt.Errorf("load cached robots: %w", err)
		}
		return string(b), nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("fetch %s: status %d", robotsURL, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return "", fmt.Errorf("read robots: %w", err)
	}
	if p.Cache != nil {
		_ = p.Cache.Save(ctx, robotsURL, "text/plain", resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), b)
	}
	return string(b), nil
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var rules Rules
	var cur Group
	hasDirectives := false
	flush := func() {
		if len(cur.Agents) > 0 || hasDirectives {
			rules.Groups = append(rules.Groups, cur)
		}
		cur = Group{}
		hasDirectives = false
	}
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent":
			if hasDirectives {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow":
			cur.Allow = append(cur.Allow, val)
			hasDirectives = true
		case "disallow":
			cur.Disallow = append(cur.Disallow, val)
			hasDirectives = true
		case "crawl-delay":
			if d, err := time.ParseDuration(val + "s"); err == nil && d > 0 {
				cur.CrawlDelay = d
			}
			hasDirectives = true
		}
	}
	flush()
	return rules
}

// group picks the block with the longest agent token contained in
// userAgent; "*" matches anything but loses to a named agent.
func (r Rules) group(userAgent string) (Group, bool) {
	ua := strings.ToLower(userAgent)
	best, bestLen := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			n := -1
			switch {
			case a == "*":
				n = 0
			case a != "" && strings.Contains(ua, a):
				n = len(a)
			}
			if n > bestLen {
				best, bestLen = i, n
			}
		}
	}
	if best < 0 {
		return Group{}, false
	}
	return r.Groups[best], true
}

// Allowed reports whether path may be fetched. The longest matching pattern
// wins and Allow wins ties. No match allows.
func (r Rules) Allowed(userAgent, path string) bool {
	g, ok := r.group(userAgent)
	if !ok {
		return true
	}
	best, allowed := -1, true
	for _, p := range g.Disallow {
		if n := specificity(p); p != "" && n > best && match(p, path) {
			best, allowed = n, false
		}
	}
	for _, p := range g.Allow {
		if n := specificity(p); p != "" && n >= best && match(p, path) {
			best, allowed = n, true
		}
	}
	return allowed
}

// CrawlDelay returns the delay requested for userAgent.
func (r Rules) CrawlDelay(userAgent string) time.Duration {
	g, _ := r.group(userAgent)
	return g.CrawlDelay
}

func specificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}

// match reports whether path starts with pattern, where '*' matches any run
// of characters and a trailing '$' anchors the end.
func match(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")
	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(path, parts[0]) {
		return false
	}
	rest := path[len(parts[0]):]
	for i, part := range parts[1:] {
		last := i == len(parts)-2
		if last && anchored {
			return strings.HasSuffix(rest, part)
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return !anchored || rest == ""
}
