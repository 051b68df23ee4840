// Package forward sends section records to a managed indexing endpoint.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

// ErrStatus is wrapped by errors for any response other than 200 OK.
var ErrStatus = errors.New("unexpected status")

// Defaults for the bounded retry of Send.
const (
	DefaultAttempts = 3
	DefaultDelay    = 5 * time.Second
)

// Sender posts one JSON document to the index.
type Sender interface {
	Send(ctx context.Context, doc any) error
}

// Client posts JSON documents with HTTP basic auth.
type Client struct {
	URL      string
	Username string
	Password string

	HTTPClient *http.Client
	// Attempts includes the first try. Zero means DefaultAttempts.
	Attempts int
	// Delay is the fixed wait between attempts. Zero means DefaultDelay.
	Delay time.Duration
	// Limiter paces requests when set. Every attempt takes a token.
	Limiter *rate.Limiter
}

// Send encodes doc as JSON and posts it. Any non-200 answer is an error
// matching ErrStatus; the request is retried up to Attempts times.
func (c *Client) Send(ctx context.Context, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := c.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	return retry.Do(
		func() error { return c.post(ctx, body) },
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) post(ctx context.Context, body []byte) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return retry.Unrecoverable(err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.Username, c.Password)

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
