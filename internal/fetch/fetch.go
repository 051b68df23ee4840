package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/hyperifyio/pdpextract/internal/cache"
	"github.com/hyperifyio/pdpextract/internal/robots"
)

var (
	// ErrServer marks a 5xx response. Only these and timeouts are retried.
	ErrServer = errors.New("server error")
	// ErrDisallowed is returned when robots.txt forbids the URL.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// RobotsChecker evaluates a URL against the site's robots.txt.
type RobotsChecker interface {
	Check(ctx context.Context, rawURL string) (robots.Decision, error)
}

// Client fetches product pages over HTTP with timeouts, bounded retry on
// transient errors and an optional conditional-request cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// RetryDelay is the base delay between attempts. Zero means 200ms.
	RetryDelay time.Duration
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for fetched pages.
	Cache *cache.PageCache
	// If true, skip conditional headers but still save the latest response.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// Robots, when set, is consulted before every fetch. Its crawl delay is
	// waited out before the request.
	Robots RobotsChecker
}

// IsRemote reports whether s is an http(s) URL the client can fetch.
func IsRemote(s string) bool {
	u, err := url.Parse(s)
	return err == nil && isHTTPScheme(u) && u.Host != ""
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

type response struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
}

// Get issues a GET with context, user-agent and bounded retry. It returns the
// body and its content type. A 304 answer is served from the cache.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := c.checkRobots(ctx, rawURL); err != nil {
		return nil, "", err
	}
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	var resp response
	err := retry.Do(
		func() error {
			var err error
			resp, err = c.tryOnce(ctx, rawURL, etag, lastMod)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, "", err
	}

	if resp.status == http.StatusNotModified && c.Cache != nil {
		cached, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("not modified but cache body missing: %w", err)
		}
		ct := resp.contentType
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta.ContentType != "" {
			ct = meta.ContentType
		}
		return cached, ct, nil
	}
	if c.Cache != nil && resp.status == http.StatusOK {
		_ = c.Cache.Save(ctx, rawURL, resp.contentType, resp.etag, resp.lastModified, resp.body)
	}
	return resp.body, resp.contentType, nil
}

func (c *Client) checkRobots(ctx context.Context, rawURL string) error {
	if c.Robots == nil {
		return nil
	}
	d, err := c.Robots.Check(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("robots: %w", err)
	}
	if !d.Allowed {
		return fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}
	if d.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(d.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, retry.Unrecoverable(fmt.Errorf("new request: %w", err))
	}
	if !isHTTPScheme(req.URL) {
		return response{}, retry.Unrecoverable(fmt.Errorf("unsupported URL scheme: %q", req.URL.String()))
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	httpResp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return response{}, err
	}
	defer httpResp.Body.Close()

	r := response{
		contentType:  httpResp.Header.Get("Content-Type"),
		etag:         httpResp.Header.Get("ETag"),
		lastModified: httpResp.Header.Get("Last-Modified"),
		status:       httpResp.StatusCode,
	}
	switch {
	case r.status >= 500 && r.status <= 599:
		return r, fmt.Errorf("%w: %d", ErrServer, r.status)
	case r.status == http.StatusNotModified:
		return r, nil
	case r.status < 200 || r.status > 299:
		return r, fmt.Errorf("unexpected status: %d", r.status)
	}
	if !isAllowedHTMLContentType(r.contentType) {
		return r, fmt.Errorf("unsupported content type: %s", r.contentType)
	}
	r.body, err = io.ReadAll(httpResp.Body)
	if err != nil {
		return r, fmt.Errorf("read body: %w", err)
	}
	return r, nil
}

func isTransient(err error) bool {
	return errors.Is(err, ErrServer) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
