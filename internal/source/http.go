package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// HTTP клиент с заголовками как у браузера, иначе часть сайтов отдает 403
type HTTPClient struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
}

func NewHTTPClient(userAgent string, timeout time.Duration) *HTTPClient {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:      userAgent,
		acceptLanguage: "uk-UA,uk;q=0.9,en-US;q=0.8,en;q=0.7",
	}
}

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptFeed = "application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Get performs one GET and returns the body of a 200 response. The caller
// closes the body.
func (c *HTTPClient) Get(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	resp, err := c.Response(ctx, pageURL, acceptHTML)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// Response performs one GET bound to ctx with browser headers and returns a
// 200 response. The caller closes the body.
func (c *HTTPClient) Response(ctx context.Context, pageURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", c.acceptLanguage)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	return resp, nil
}

// Document fetches a page and parses it with goquery.
func (c *HTTPClient) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := c.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return doc, nil
}

// resolve makes href absolute against base. Anchors, javascript and mailto
// links give an empty string.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}

	return abs.String()
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
