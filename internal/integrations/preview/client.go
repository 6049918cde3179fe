// Package preview fetches link metadata by reading Open Graph tags out of
// the target page itself.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reads-agent/internal/domain"
)

// ErrNotFound indicates the link resolved but exposed no usable metadata.
var ErrNotFound = errors.New("preview: no preview available")

// HTTPStatusError captures non-2xx responses from the target site.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("preview: unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

const (
	defaultUserAgent = "reads-agent/1.0 (+link preview)"
	maxBodyBytes     = 1 << 20
)

// Client fetches pages and extracts title, description and image metadata.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the page behind link and extracts its metadata. A page
// that is gone, or that carries neither a title nor a description, yields
// ErrNotFound so callers can fall through to their next source.
func (c *Client) Fetch(ctx context.Context, link string) (domain.LinkPreview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return domain.LinkPreview{}, fmt.Errorf("preview: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.LinkPreview{}, fmt.Errorf("preview: fetch %s: %w", link, err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return domain.LinkPreview{}, ErrNotFound
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return domain.LinkPreview{}, &HTTPStatusError{StatusCode: res.StatusCode, URL: link}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return domain.LinkPreview{}, fmt.Errorf("preview: parse %s: %w", link, err)
	}

	prev := domain.LinkPreview{
		Title:       firstOf(metaProperty(doc, "og:title"), strings.TrimSpace(doc.Find("title").First().Text())),
		Description: firstOf(metaProperty(doc, "og:description"), metaName(doc, "description")),
		ImageURL:    metaProperty(doc, "og:image"),
	}
	if prev.Title == "" && prev.Description == "" {
		return domain.LinkPreview{}, ErrNotFound
	}
	return prev, nil
}

func metaProperty(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func metaName(doc *goquery.Document, name string) string {
	v, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
