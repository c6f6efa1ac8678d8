// Package fetch retrieves a job posting page and reduces it to plain text.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// DefaultTimeout bounds the whole GET including redirects.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeOptimizer/1.0)"

// ErrorPrefix starts every user-facing fetch failure message.
const ErrorPrefix = "Error fetching URL: "

// Result holds the extracted job description for a URL.
type Result struct {
	URL        string
	Text       string
	StatusCode int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage renders err the way the page shows fetch failures.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return ErrorPrefix + err.Error()
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultOptions returns the defaults used when nil options are given.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Fetcher performs job posting fetches with a fixed client.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New constructs a Fetcher. The default http.Client redirect policy applies.
func New(opts *Options) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
	}
}

// Page GETs urlStr and returns the job description text found in it.
func (f *Fetcher) Page(ctx context.Context, urlStr string) (Result, error) {
	urlStr = strings.TrimSpace(urlStr)
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Result{}, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Result{}, &Error{URL: urlStr, Message: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return Result{}, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{StatusCode: resp.StatusCode}, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return Result{StatusCode: resp.StatusCode}, &Error{URL: urlStr, Message: "unsupported charset", Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode}, &Error{URL: urlStr, Message: "failed to parse HTML", Cause: err}
	}

	return Result{
		URL:        urlStr,
		Text:       jobText(doc),
		StatusCode: resp.StatusCode,
	}, nil
}

// ExtractJobText applies the job description heuristic to an HTML string.
func ExtractJobText(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return jobText(doc), nil
}

// jobText prefers the first <main>, then the <div> with the most text
// (first wins on ties), then the whole document.
func jobText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()

	if mainEl := doc.Find("main").First(); mainEl.Length() > 0 {
		return joinedText(mainEl)
	}

	var (
		largest *goquery.Selection
		maxLen  = -1
	)
	doc.Find("div").Each(func(_ int, div *goquery.Selection) {
		if n := utf8.RuneCountInString(div.Text()); n > maxLen {
			largest, maxLen = div, n
		}
	})
	if largest != nil {
		return joinedText(largest)
	}
	return joinedText(doc.Selection)
}

// joinedText concatenates descendant text nodes separated by newlines.
func joinedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
