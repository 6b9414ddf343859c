package flatfile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/statforge/blsload/internal/cache"
	"github.com/statforge/blsload/internal/pkg/httpretry"
	"github.com/statforge/blsload/internal/pkg/logger"
)

// browserHeaders mimics a desktop browser. The archive rejects requests
// from bare HTTP clients with a 403.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Cache-Control":   "no-cache",
	"Connection":      "keep-alive",
}

// htmlSniffLimit and htmlSizeThreshold bound the error-page check: a short
// body starting with HTML markers is a server error page, not data.
const (
	htmlSniffLimit    = 10 * 1024
	htmlSizeThreshold = 10000
)

// Fetcher retrieves one tab-delimited flat file per call and repairs it.
// The zero value is not usable; construct with NewFetcher.
type Fetcher struct {
	primary    httpretry.HTTPDoer
	fallback   httpretry.HTTPDoer
	store      cache.Store
	scratchDir string
	noFallback bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCache attaches a cache store checked (via HEAD + Last-Modified)
// before downloading.
func WithCache(s cache.Store) Option {
	return func(f *Fetcher) { f.store = s }
}

// WithScratchDir sets the directory for transient parse files.
func WithScratchDir(dir string) Option {
	return func(f *Fetcher) { f.scratchDir = dir }
}

// WithTransports replaces both transports. Used by tests and by callers
// with special proxy needs.
func WithTransports(primary, fallback httpretry.HTTPDoer) Option {
	return func(f *Fetcher) {
		f.primary = primary
		f.fallback = fallback
	}
}

// WithoutFallback disables the fallback transport; transport failures and
// HTML error pages become immediately fatal.
func WithoutFallback() Option {
	return func(f *Fetcher) { f.noFallback = true }
}

// NewFetcher builds a Fetcher with a plain primary transport and a
// retrying fallback transport.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		primary:    &http.Client{Timeout: 60 * time.Second},
		fallback:   httpretry.NewRetryClient(nil, 3),
		scratchDir: os.TempDir(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads, repairs, and parses one flat file. The returned Table
// and Diagnostics are freshly constructed and owned by the caller.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Table, *Diagnostics, error) {
	diag := &Diagnostics{SourceURL: url}

	body, fromCache, err := f.retrieve(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	diag.ServedFromCache = fromCache

	// Parse from a scratch copy; the file never outlives this call.
	scratch := filepath.Join(f.scratchDir, "blsload-"+uuid.NewString()+".tsv")
	if err := os.WriteFile(scratch, body, 0o600); err != nil {
		return nil, nil, fmt.Errorf("writing scratch file: %w", err)
	}
	defer os.Remove(scratch)
	raw, err := os.ReadFile(scratch)
	if err != nil {
		return nil, nil, fmt.Errorf("reading scratch file: %w", err)
	}

	table := parseTab(string(raw), diag)
	if !diag.Clean() {
		logger.Warn("flat file needed repair",
			"url", url, "warnings", len(diag.Warnings),
			"rows", diag.FinalDimensions.Rows, "cols", diag.FinalDimensions.Cols)
	}
	return table, diag, nil
}

// retrieve returns the raw file bytes, serving from cache when the origin
// reports an unchanged Last-Modified.
func (f *Fetcher) retrieve(ctx context.Context, url string) ([]byte, bool, error) {
	var lastModified string
	if f.store != nil {
		lastModified = f.head(ctx, url)
		if lastModified != "" {
			entry, err := f.store.Get(ctx, url)
			if err != nil {
				logger.Warn("cache lookup failed", "url", url, "error", err)
			} else if entry != nil && entry.LastModified == lastModified {
				return entry.Body, true, nil
			}
		}
	}

	body, usedFallback, err := f.download(ctx, url)
	if err != nil {
		return nil, false, err
	}

	if looksLikeErrorPage(body) {
		if usedFallback || f.noFallback {
			return nil, false, &FormatError{URL: url, Snippet: logger.Snippet(string(body), 160)}
		}
		retry, rerr := f.get(ctx, f.fallback, url)
		if rerr != nil || looksLikeErrorPage(retry) {
			return nil, false, &FormatError{URL: url, Snippet: logger.Snippet(string(body), 160)}
		}
		body = retry
	}

	if f.store != nil && lastModified != "" {
		entry := &cache.Entry{
			URL:          url,
			LastModified: lastModified,
			FetchedAt:    time.Now().UTC(),
			Body:         body,
		}
		if err := f.store.Put(ctx, url, entry); err != nil {
			logger.Warn("cache store failed", "url", url, "error", err)
		}
	}
	return body, false, nil
}

// download tries the primary transport, then (unless disabled) the
// fallback. Reports which transport produced the body.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, bool, error) {
	body, err := f.get(ctx, f.primary, url)
	if err == nil {
		return body, false, nil
	}
	if f.noFallback {
		return nil, false, &FetchError{URL: url, Err: err}
	}
	logger.Info("primary transport failed, using fallback", "url", url, "error", err)
	body, ferr := f.get(ctx, f.fallback, url)
	if ferr != nil {
		return nil, true, &FetchError{URL: url, Err: fmt.Errorf("primary: %v; fallback: %w", err, ferr)}
	}
	return body, true, nil
}

func (f *Fetcher) get(ctx context.Context, client httpretry.HTTPDoer, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// head probes the origin's Last-Modified header. An empty string means the
// probe failed or the header was absent; callers treat that as uncacheable.
func (f *Fetcher) head(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return ""
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	resp, err := f.primary.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}
	return resp.Header.Get("Last-Modified")
}

// looksLikeErrorPage reports whether the body is a short HTML document, the
// shape of the origin's error pages.
func looksLikeErrorPage(body []byte) bool {
	if len(body) >= htmlSizeThreshold {
		return false
	}
	head := body
	if len(head) > htmlSniffLimit {
		head = head[:htmlSniffLimit]
	}
	lower := strings.ToLower(string(head))
	return strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html")
}
