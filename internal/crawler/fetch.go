package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxRedirects = 10

var errTooManyRedirects = errors.New("stopped after too many redirects")

// FetchErrorKind classifies a fetch failure.
type FetchErrorKind string

const (
	FetchTimeout          FetchErrorKind = "timeout"
	FetchConnectionFailed FetchErrorKind = "connection_failed"
	FetchHTTPStatus       FetchErrorKind = "http_status"
	FetchTooManyRedirects FetchErrorKind = "too_many_redirects"
)

// FetchError is the typed failure returned by the fetch client.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchHTTPStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth one retry. 4xx responses are
// permanent (page moved or removed), except 429 where the site is telling us
// to slow down.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case FetchTimeout, FetchConnectionFailed:
		return true
	case FetchHTTPStatus:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// Page is the raw result of a successful fetch.
type Page struct {
	HTML       string
	FinalURL   string // after redirects
	StatusCode int
}

// Fetcher issues GET requests for arbitrary URLs. Spacing between calls is the
// caller's responsibility; the client only bounds and retries individual requests.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Client is the production Fetcher backed by net/http.
type Client struct {
	http         *http.Client
	userAgent    string
	retryBackoff time.Duration
	logger       *zap.Logger
}

// NewClient creates a fetch client with the given per-request timeout.
func NewClient(timeout time.Duration, userAgent string, logger *zap.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		userAgent:    userAgent,
		retryBackoff: 2 * time.Second,
		logger:       logger,
	}
}

// Fetch performs a GET with a single retry on transient failures.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	page, ferr := c.do(ctx, rawURL)
	if ferr == nil {
		return page, nil
	}
	if !ferr.Transient() {
		return nil, ferr
	}

	c.logger.Warn("transient fetch failure, retrying",
		zap.String("url", rawURL),
		zap.String("kind", string(ferr.Kind)),
		zap.Error(ferr.Err))

	t := time.NewTimer(c.retryBackoff)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return nil, &FetchError{Kind: FetchTimeout, URL: rawURL, Err: ctx.Err()}
	}

	page, ferr = c.do(ctx, rawURL)
	if ferr != nil {
		return nil, ferr
	}
	return page, nil
}

func (c *Client) do(ctx context.Context, rawURL string) (*Page, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchConnectionFailed, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Kind: FetchHTTPStatus, URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: FetchConnectionFailed, URL: rawURL, Err: err}
	}

	return &Page{
		HTML:       string(body),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

func classifyTransportError(rawURL string, err error) *FetchError {
	if errors.Is(err, errTooManyRedirects) {
		return &FetchError{Kind: FetchTooManyRedirects, URL: rawURL, Err: err}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: FetchTimeout, URL: rawURL, Err: err}
	}
	return &FetchError{Kind: FetchConnectionFailed, URL: rawURL, Err: err}
}
