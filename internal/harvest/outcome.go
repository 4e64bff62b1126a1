// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"errors"
	"fmt"

	"github.com/pdiddy/paper-harvest/pkg/types"
)

// SkipNoDocumentLink is recorded on records whose entry carries no
// downloadable document link.
const SkipNoDocumentLink = "no document link"

// ErrSearchStatus is wrapped by PipelineError when the search endpoint
// answers with a non-success status.
var ErrSearchStatus = errors.New("unexpected search status")

// Stage names the pre-dispatch step a query failed in.
type Stage string

const (
	StageValidate Stage = "validate"
	StageRequest  Stage = "request"
	StageParse    Stage = "parse"
)

// PipelineError aborts one query before any entry is dispatched.
type PipelineError struct {
	Query string
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("query %s: %s: %v", e.Query, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// ItemFailure is the contained failure of one entry. Title and ID hold
// whatever identity the entry yielded before it failed.
type ItemFailure struct {
	ID    string
	Title string
	Err   error
}

func (f *ItemFailure) Error() string {
	return fmt.Sprintf("entry %q: %v", f.Identity(), f.Err)
}

func (f *ItemFailure) Unwrap() error { return f.Err }

// Identity returns the title, else the id, else a placeholder.
func (f *ItemFailure) Identity() string {
	switch {
	case f.Title != "":
		return f.Title
	case f.ID != "":
		return f.ID
	default:
		return "<unidentified>"
	}
}

// Outcome is the result of one entry: exactly one of Record and Failure
// is set.
type Outcome struct {
	Record  *types.PaperRecord
	Failure *ItemFailure
}

// Failed reports whether the entry failed.
func (o Outcome) Failed() bool { return o.Failure != nil }

// Summary counts the outcomes of one query.
type Summary struct {
	Processed int // every outcome, success or failure
	Failed    int
	NoContent int // records emitted without document text
}

// Summarize folds outcomes into a Summary.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Processed: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Failed():
			s.Failed++
		case !o.Record.HasContent():
			s.NoContent++
		}
	}
	return s
}

// Records returns the successful records in outcome order.
func Records(outcomes []Outcome) []*types.PaperRecord {
	out := make([]*types.PaperRecord, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Failed() {
			out = append(out, o.Record)
		}
	}
	return out
}
