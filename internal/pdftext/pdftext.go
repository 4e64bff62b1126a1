// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext downloads a document and extracts its plain text.
// Nothing is written to disk: the payload is decoded in memory.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/paper-harvest/internal/httputil"
	"github.com/pdiddy/paper-harvest/internal/textclean"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

const (
	// DefaultTimeout bounds one download plus extraction.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps the size of a downloaded document.
	DefaultMaxBytes int64 = 64 << 20
)

// ErrInvalidURL is returned, before any network call, for a URL without a scheme.
var ErrInvalidURL = errors.New("invalid document URL")

// Kind classifies a ContentFetchError.
type Kind int

const (
	KindTransport Kind = iota
	KindTimeout
	KindHTTPStatus
	KindTooLarge
	KindDecode
	KindNoPages
	KindEmptyText
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindTooLarge:
		return "too_large"
	case KindDecode:
		return "decode"
	case KindNoPages:
		return "no_pages"
	case KindEmptyText:
		return "empty_text"
	default:
		return "transport"
	}
}

// ContentFetchError reports why no text could be obtained from a document URL.
type ContentFetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *ContentFetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	case KindNoPages:
		return fmt.Sprintf("no pages found in document from %s", e.URL)
	case KindEmptyText:
		return fmt.Sprintf("no text content extracted from %s", e.URL)
	case KindTimeout:
		return fmt.Sprintf("timeout downloading %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("%s error for %s: %v", e.Kind, e.URL, e.Err)
	}
}

func (e *ContentFetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a ContentFetchError of kind k.
func IsKind(err error, k Kind) bool {
	var cfe *ContentFetchError
	return errors.As(err, &cfe) && cfe.Kind == k
}

// Fetcher downloads documents over a shared, read-only HTTP client.
type Fetcher struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
	MaxBytes   int64
}

// New returns a Fetcher configured from cfg. A nil client gets a default
// client; redirects are followed by net/http.
func New(client *http.Client, cfg types.HarvestConfig) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	maxBytes := cfg.MaxDocumentBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		Client:     client,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		MaxBytes:   maxBytes,
	}
}

// ValidateURL checks that raw parses and carries a scheme.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

// FetchText downloads the document at rawURL and returns its cleaned text.
// timeout bounds the whole download; zero means DefaultTimeout.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := f.download(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text, err := Extract(data)
	if err != nil {
		var cfe *ContentFetchError
		if errors.As(err, &cfe) {
			cfe.URL = rawURL
		}
		return "", err
	}
	return text, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, f.MaxRetries)
	if err != nil {
		return nil, classify(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ContentFetchError{Kind: KindHTTPStatus, URL: rawURL, StatusCode: resp.StatusCode}
	}

	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, classify(rawURL, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, &ContentFetchError{Kind: KindTooLarge, URL: rawURL, Err: fmt.Errorf("document exceeds %d bytes", maxBytes)}
	}
	return data, nil
}

// classify wraps a transport-level failure, separating timeouts.
func classify(rawURL string, err error) error {
	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &ContentFetchError{Kind: kind, URL: rawURL, Err: err}
}

// Extract decodes a PDF payload and returns the text of its non-empty
// pages, in page order, cleaned with textclean.Clean. Pages that fail to
// decode are treated as empty.
func Extract(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ContentFetchError{Kind: KindDecode, Err: fmt.Errorf("reading document: %v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ContentFetchError{Kind: KindDecode, Err: err}
	}

	n := r.NumPage()
	if n == 0 {
		return "", &ContentFetchError{Kind: KindNoPages}
	}

	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil || strings.TrimSpace(s) == "" {
			continue
		}
		pages = append(pages, s)
	}

	text = textclean.Clean(strings.Join(pages, "\n"))
	if text == "" {
		return "", &ContentFetchError{Kind: KindEmptyText}
	}
	return text, nil
}
