// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest runs search queries against the paper search API and
// turns every returned entry into a PaperRecord with its document text.
//
// One search request is issued per query on the caller's goroutine. The
// entries of the response are then processed concurrently on a Pool
// shared across queries, and each entry produces exactly one Outcome.
// RunBatch collects every outcome of a query; Stream yields outcomes as
// they complete and may be abandoned early.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-harvest/internal/httputil"
	"github.com/pdiddy/paper-harvest/internal/logging"
	"github.com/pdiddy/paper-harvest/internal/metadata"
	"github.com/pdiddy/paper-harvest/internal/metrics"
	"github.com/pdiddy/paper-harvest/internal/pdftext"
	"github.com/pdiddy/paper-harvest/internal/query"
	"github.com/pdiddy/paper-harvest/internal/store"
	"github.com/pdiddy/paper-harvest/internal/xmltree"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

const (
	// DefaultBaseURL is the arXiv export endpoint; built query strings are
	// appended to it verbatim.
	DefaultBaseURL = "http://export.arxiv.org/api/query?"

	DefaultRequestTimeout = 60 * time.Second

	entryKey = "entry"

	// maxResponseBytes caps the search response body.
	maxResponseBytes = 32 << 20
)

// ContentFetcher downloads a document and returns its cleaned text.
// *pdftext.Fetcher is the production implementation.
type ContentFetcher interface {
	FetchText(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	Config types.HarvestConfig

	// Client is used for the search request and, when Fetcher is nil,
	// for document downloads.
	Client *http.Client

	Fetcher ContentFetcher

	// Sink, when set, receives every successful record before its
	// Outcome is emitted.
	Sink store.Sink

	Logger *slog.Logger

	// Pool lets several pipelines share worker slots.
	Pool *Pool
}

// Pipeline executes queries. It is safe for concurrent use.
type Pipeline struct {
	cfg     types.HarvestConfig
	client  *http.Client
	fetcher ContentFetcher
	sink    store.Sink
	log     *slog.Logger
	pool    *Pool
}

// New builds a Pipeline from opts.
func New(opts Options) *Pipeline {
	cfg := opts.Config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = pdftext.DefaultTimeout
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = pdftext.New(client, cfg)
	}
	pool := opts.Pool
	if pool == nil {
		pool = NewPool(cfg.Workers)
	}

	return &Pipeline{
		cfg:     cfg,
		client:  client,
		fetcher: fetcher,
		sink:    opts.Sink,
		log:     logging.OrDefault(opts.Logger),
		pool:    pool,
	}
}

// run tracks one query through its states.
type run struct {
	q     query.Query
	state State
	log   *slog.Logger
}

func (r *run) transition(s State) {
	r.log.Debug("query state", "from", r.state, "to", s)
	r.state = s
}

func (r *run) fail(stage Stage, err error) error {
	r.transition(StateFailed)
	metrics.QueriesTotal.WithLabelValues(StateFailed.String()).Inc()
	return &PipelineError{Query: r.q.String(), Stage: stage, Err: err}
}

// start performs the pre-dispatch stages of q and dispatches its entries.
// The returned channel receives exactly n outcomes and is then closed.
func (p *Pipeline) start(ctx context.Context, q query.Query) (*run, <-chan Outcome, int, error) {
	q = q.WithDefaults()
	r := &run{q: q, state: StateIdle, log: p.log.With("query", q.String())}

	if err := q.Validate(); err != nil {
		return r, nil, 0, r.fail(StageValidate, err)
	}

	r.transition(StateFetching)
	body, err := p.search(ctx, q)
	if err != nil {
		return r, nil, 0, r.fail(StageRequest, err)
	}

	r.transition(StateParsing)
	root, err := xmltree.ParseBytes(body)
	if err != nil {
		return r, nil, 0, r.fail(StageParse, err)
	}

	entries := root.Children(entryKey)
	r.transition(StateDispatching)
	if len(entries) == 0 {
		r.log.Warn("no entries found for query")
	}

	out := make(chan Outcome, len(entries))
	go p.dispatch(ctx, entries, out)

	r.transition(StateAwaiting)
	return r, out, len(entries), nil
}

// dispatch submits one unit per entry and closes out once every unit has
// delivered its outcome. Entries that never reach a worker because ctx
// ended still get a failure outcome.
func (p *Pipeline) dispatch(ctx context.Context, entries []*xmltree.Node, out chan<- Outcome) {
	var g errgroup.Group
	for _, entry := range entries {
		err := p.pool.Submit(ctx, &g, func() {
			out <- p.process(ctx, entry)
		})
		if err != nil {
			out <- p.failure(ctx, entry, fmt.Errorf("not dispatched: %w", err))
		}
	}
	_ = g.Wait()
	close(out)
}

// process is one unit of work. Every failure, panics included, is
// contained in the returned Outcome.
func (p *Pipeline) process(ctx context.Context, entry *xmltree.Node) (o Outcome) {
	defer func() {
		if v := recover(); v != nil {
			o = p.failure(ctx, entry, fmt.Errorf("panic: %v", v))
		}
	}()

	rec, err := metadata.Normalize(entry)
	if err != nil {
		return p.failure(ctx, entry, err)
	}

	link, ok := metadata.DocumentLink(rec.Links)
	if !ok {
		rec.ContentSkipReason = SkipNoDocumentLink
		p.log.Warn("no document link, content skipped", "entry", rec.Identity())
	} else {
		started := time.Now()
		text, err := p.fetcher.FetchText(ctx, link, p.cfg.FetchTimeout)
		metrics.RecordFetch(time.Since(started))
		if err != nil {
			return p.recordFailure(ctx, rec, err)
		}
		rec.SetContent(text)
	}

	if p.sink != nil {
		// A cancelled consumer must not see partial writes.
		if err := ctx.Err(); err != nil {
			return p.recordFailure(ctx, rec, err)
		}
		if err := p.sink.Save(ctx, rec, rec.Title); err != nil {
			return p.recordFailure(ctx, rec, fmt.Errorf("saving record: %w", err))
		}
	}

	status := metrics.StatusOK
	if !rec.HasContent() {
		status = metrics.StatusNoContent
	}
	metrics.OutcomesTotal.WithLabelValues(status).Inc()
	return Outcome{Record: rec}
}

func (p *Pipeline) failure(ctx context.Context, entry *xmltree.Node, err error) Outcome {
	return p.emitFailure(ctx, &ItemFailure{Title: metadata.Identify(entry), Err: err})
}

func (p *Pipeline) recordFailure(ctx context.Context, rec *types.PaperRecord, err error) Outcome {
	return p.emitFailure(ctx, &ItemFailure{ID: rec.ID, Title: rec.Title, Err: err})
}

// emitFailure logs and counts f unless the stream consumer abandoned the
// unit, in which case the outcome is discarded unseen.
func (p *Pipeline) emitFailure(ctx context.Context, f *ItemFailure) Outcome {
	if errors.Is(context.Cause(ctx), errStreamStopped) {
		return Outcome{Failure: f}
	}
	p.log.Error("entry failed", "entry", f.Identity(), "err", f.Err)
	metrics.OutcomesTotal.WithLabelValues(metrics.StatusFailed).Inc()
	return Outcome{Failure: f}
}

// search issues the search request for q and returns the response body.
func (p *Pipeline) search(ctx context.Context, q query.Query) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+q.Build(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, p.client, req, p.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrSearchStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// RunBatch executes q and waits for every entry. Outcomes are in
// completion order. The error is non-nil only when the query failed
// before dispatch, in which case no outcomes are returned.
func (p *Pipeline) RunBatch(ctx context.Context, q query.Query) ([]Outcome, error) {
	r, ch, n, err := p.start(ctx, q)
	if err != nil {
		r.log.Error("query failed", "err", err)
		return nil, err
	}

	outcomes := make([]Outcome, 0, n)
	for o := range ch {
		outcomes = append(outcomes, o)
	}
	r.finish(outcomes)
	return outcomes, nil
}

func (r *run) finish(outcomes []Outcome) {
	r.transition(StateDone)
	metrics.QueriesTotal.WithLabelValues(StateDone.String()).Inc()
	s := Summarize(outcomes)
	r.log.Info("query complete", "processed", s.Processed, "failed", s.Failed, "no_content", s.NoContent)
}

// Report is the result of one query in a multi-query run.
type Report struct {
	Query    query.Query
	State    State
	Outcomes []Outcome
	Summary  Summary
	Err      error
}

// RunQueries runs each query in turn. A query that fails does not stop
// the ones after it.
func (p *Pipeline) RunQueries(ctx context.Context, queries []query.Query) []Report {
	p.log.Info("processing queries", "count", len(queries))

	reports := make([]Report, 0, len(queries))
	var total Summary
	var failedQueries int
	for _, q := range queries {
		rep := Report{Query: q.WithDefaults(), State: StateDone}
		rep.Outcomes, rep.Err = p.RunBatch(ctx, q)
		if rep.Err != nil {
			rep.State = StateFailed
			failedQueries++
		}
		rep.Summary = Summarize(rep.Outcomes)
		total.Processed += rep.Summary.Processed
		total.Failed += rep.Summary.Failed
		total.NoContent += rep.Summary.NoContent
		reports = append(reports, rep)
	}

	p.log.Info("all queries complete",
		"queries", len(queries), "failed_queries", failedQueries,
		"processed", total.Processed, "failed", total.Failed)
	return reports
}

// Stream runs the queries in turn and yields outcomes as their units
// complete. A query that fails before dispatch yields a single
// (Outcome{}, *PipelineError) pair and the stream moves on.
//
// Stopping early cancels the outstanding units; their outcomes are
// dropped and they never reach the sink. Stream returns to the caller
// only after those units have finished.
func (p *Pipeline) Stream(ctx context.Context, queries ...query.Query) iter.Seq2[Outcome, error] {
	return func(yield func(Outcome, error) bool) {
		for _, q := range queries {
			if !p.streamQuery(ctx, q, yield) {
				return
			}
		}
	}
}

// errStreamStopped is the cancellation cause of units abandoned by a
// stream consumer.
var errStreamStopped = errors.New("stream stopped by consumer")

func (p *Pipeline) streamQuery(ctx context.Context, q query.Query, yield func(Outcome, error) bool) bool {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r, ch, n, err := p.start(ctx, q)
	if err != nil {
		r.log.Error("query failed", "err", err)
		return yield(Outcome{}, err)
	}

	seen := make([]Outcome, 0, n)
	for o := range ch {
		seen = append(seen, o)
		if !yield(o, nil) {
			cancel(errStreamStopped)
			for range ch {
			}
			r.log.Debug("stream stopped by consumer", "delivered", len(seen), "entries", n)
			return false
		}
	}
	r.finish(seen)
	return true
}
