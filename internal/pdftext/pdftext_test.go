// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-harvest/internal/httputil"
	"github.com/pdiddy/paper-harvest/internal/pdftext/pdftest"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hello := pdftest.MustDocument("Hello world")
	multi := pdftest.MustDocument("Hello", "", "world")
	blank := pdftest.MustDocument("", "")

	mux := http.NewServeMux()
	mux.HandleFunc("/pdf/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(hello)
	})
	mux.HandleFunc("/pdf/multi", func(w http.ResponseWriter, r *http.Request) {
		w.Write(multi)
	})
	mux.HandleFunc("/pdf/blank", func(w http.ResponseWriter, r *http.Request) {
		w.Write(blank)
	})
	mux.HandleFunc("/pdf/nopages", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdftest.NoPages())
	})
	mux.HandleFunc("/pdf/html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>not a document</body></html>"))
	})
	mux.HandleFunc("/pdf/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	mux.HandleFunc("/abs/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/pdf/hello", http.StatusFound)
	})
	mux.HandleFunc("/pdf/headers", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/pdf" || r.Header.Get("User-Agent") != "test/0.1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write(hello)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func testFetcher(ts *httptest.Server) *Fetcher {
	return New(ts.Client(), types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "test/0.1", MaxRetries: -1},
	})
}

func TestFetchTextHelloWorld(t *testing.T) {
	ts := newTestServer(t)

	text, err := testFetcher(ts).FetchText(context.Background(), ts.URL+"/pdf/hello", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestFetchTextSkipsBlankPages(t *testing.T) {
	ts := newTestServer(t)

	text, err := testFetcher(ts).FetchText(context.Background(), ts.URL+"/pdf/multi", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestFetchTextFollowsRedirects(t *testing.T) {
	ts := newTestServer(t)

	text, err := testFetcher(ts).FetchText(context.Background(), ts.URL+"/abs/redirect", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestFetchTextSendsHeaders(t *testing.T) {
	ts := newTestServer(t)

	_, err := testFetcher(ts).FetchText(context.Background(), ts.URL+"/pdf/headers", time.Second)
	assert.NoError(t, err)
}

func TestFetchTextFailures(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		kind   Kind
		status int
	}{
		{"not found", "/pdf/missing", KindHTTPStatus, http.StatusNotFound},
		{"timeout", "/pdf/slow", KindTimeout, 0},
		{"not a document", "/pdf/html", KindDecode, 0},
		{"no pages", "/pdf/nopages", KindNoPages, 0},
		{"blank pages", "/pdf/blank", KindEmptyText, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := ts.URL + tt.path
			text, err := testFetcher(ts).FetchText(context.Background(), url, 100*time.Millisecond)
			assert.Empty(t, text)

			var cfe *ContentFetchError
			require.True(t, errors.As(err, &cfe), "want *ContentFetchError, got %T: %v", err, err)
			assert.Equal(t, tt.kind, cfe.Kind, "error: %v", err)
			assert.Equal(t, url, cfe.URL)
			assert.Equal(t, tt.status, cfe.StatusCode)
			assert.True(t, IsKind(err, tt.kind))
		})
	}
}

func TestFetchTextTooLarge(t *testing.T) {
	ts := newTestServer(t)

	f := testFetcher(ts)
	f.MaxBytes = 16
	_, err := f.FetchText(context.Background(), ts.URL+"/pdf/hello", time.Second)
	assert.True(t, IsKind(err, KindTooLarge), "got %v", err)
}

type countingTransport struct {
	calls int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)
	return nil, errors.New("unexpected network call")
}

func TestFetchTextInvalidURLMakesNoRequest(t *testing.T) {
	rt := &countingTransport{}
	f := New(&http.Client{Transport: rt}, types.HarvestConfig{})

	for _, raw := range []string{"", "   ", "arxiv.org/pdf/2301.07041", "/pdf/local", "%zz"} {
		_, err := f.FetchText(context.Background(), raw, time.Second)
		assert.ErrorIs(t, err, ErrInvalidURL, "url %q", raw)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&rt.calls))
}

func TestFetchTextCancelledContext(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher(ts).FetchText(ctx, ts.URL+"/pdf/hello", time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract(t *testing.T) {
	text, err := Extract(pdftest.MustDocument("First  page", "Second   page"))
	require.NoError(t, err)
	assert.Equal(t, "First page Second page", text)

	_, err = Extract([]byte("%PDF-garbage"))
	assert.True(t, IsKind(err, KindDecode), "got %v", err)

	_, err = Extract(pdftest.NoPages())
	assert.True(t, IsKind(err, KindNoPages), "got %v", err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "empty_text", KindEmptyText.String())
	assert.Equal(t, "transport", KindTransport.String())
}
