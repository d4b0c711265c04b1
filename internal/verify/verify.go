// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify confirms records against the bibliographic registry.
// Each record is checked DOI-first with a title-search fallback; the
// outcome is recorded on the record's provenance and the matched registry
// record is handed to the corrector.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/reference-engine/internal/correct"
	"github.com/pdiddy/reference-engine/internal/parse"
	"github.com/pdiddy/reference-engine/internal/registry"
	"github.com/pdiddy/reference-engine/internal/similarity"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const (
	// acceptThreshold is the minimum composite similarity for a title-search
	// candidate to count as a match.
	acceptThreshold = 0.5

	// confidentThreshold marks accepted matches below it as low-confidence
	// for reporting.
	confidentThreshold = 0.7
)

// Rejection reasons surfaced on records.
const (
	ReasonNotFound = "not found"
	ReasonNetwork  = "network"
	ReasonTimeout  = "timeout"
)

// Registry is the narrow lookup surface the verifier needs. The CrossRef
// client satisfies it; tests substitute fixtures.
type Registry interface {
	LookupByDOI(ctx context.Context, doi string) (*types.ExternalRecord, error)
	SearchByTitle(ctx context.Context, title, authorHint string) ([]types.ExternalRecord, error)
}

// Outcome reports how one record fared. External is nil for rejected
// records.
type Outcome struct {
	External *types.ExternalRecord
	Score    float64

	// Method is "doi" or "title" for verified records.
	Method string

	// LowConfidence marks title matches that cleared the acceptance
	// threshold without reaching the confident one.
	LowConfidence bool
}

// Verifier runs the per-record verification state machine.
type Verifier struct {
	registry Registry
}

// New creates a Verifier backed by reg.
func New(reg Registry) *Verifier {
	return &Verifier{registry: reg}
}

// Verify checks one record against the registry and advances its
// provenance. A present DOI is looked up first; NotFound falls through to
// a title search, since a stale DOI is common input noise. Each route is
// attempted at most once. On rejection the record's RejectReason
// distinguishes "not found", "network", and "timeout".
func (v *Verifier) Verify(ctx context.Context, rec *types.Record) Outcome {
	if ctx.Err() != nil {
		return v.reject(rec, ReasonTimeout)
	}

	transient := false
	if rec.DOI != "" {
		ext, err := v.registry.LookupByDOI(ctx, rec.DOI)
		switch {
		case err == nil:
			rec.Promote(types.VerifiedByDOI)
			return Outcome{External: ext, Score: 1.0, Method: "doi"}
		case errors.Is(err, registry.ErrNotFound):
		default:
			transient = true
		}
	}

	if rec.Title == "" {
		return v.rejectAfterFailure(ctx, rec, transient)
	}

	candidates, err := v.registry.SearchByTitle(ctx, rec.Title, v.authorHint(rec))
	if err != nil {
		return v.rejectAfterFailure(ctx, rec, true)
	}

	for i := range candidates {
		score := candidateScore(rec, &candidates[i])
		if score < acceptThreshold {
			continue
		}
		rec.Promote(types.VerifiedByTitle)
		return Outcome{
			External:      &candidates[i],
			Score:         score,
			Method:        "title",
			LowConfidence: score < confidentThreshold,
		}
	}
	return v.rejectAfterFailure(ctx, rec, transient)
}

// rejectAfterFailure classifies a failed verification: a cancelled batch
// wins over everything, then transient registry trouble, then not-found.
func (v *Verifier) rejectAfterFailure(ctx context.Context, rec *types.Record, transient bool) Outcome {
	switch {
	case ctx.Err() != nil:
		return v.reject(rec, ReasonTimeout)
	case transient:
		return v.reject(rec, ReasonNetwork)
	default:
		return v.reject(rec, ReasonNotFound)
	}
}

func (v *Verifier) reject(rec *types.Record, reason string) Outcome {
	if rec.Promote(types.Rejected) {
		rec.RejectReason = reason
	}
	return Outcome{}
}

// authorHint returns the first author's surname to bias title searches.
func (v *Verifier) authorHint(rec *types.Record) string {
	if len(rec.Authors) == 0 {
		return ""
	}
	return parse.Surname(rec.Authors[0])
}

// candidateScore compares a record against one registry candidate using
// the composite similarity over the candidate's mapped fields.
func candidateScore(rec *types.Record, ext *types.ExternalRecord) float64 {
	authors := make([]string, 0, len(ext.Authors))
	for _, a := range ext.Authors {
		if name := correct.FormatExternalAuthor(a); name != "" {
			authors = append(authors, name)
		}
	}
	candidate := &types.Record{
		Title:   ext.Title,
		Authors: authors,
		Venue:   ext.Venue,
		Year:    ext.Year,
		DOI:     ext.DOI,
	}
	score, _ := similarity.Score(rec, candidate)
	return score
}

// VerifyBatch verifies records concurrently with a bounded worker pool.
// All workers share the registry client's rate limiter, so raising the
// worker count never raises external request throughput. When ctx expires
// mid-batch, records not yet verified are rejected with reason "timeout"
// and completed records keep their outcomes. Progress lines go to w.
func (v *Verifier) VerifyBatch(ctx context.Context, recs []*types.Record, workers int, w io.Writer) []Outcome {
	if workers <= 0 {
		workers = 4
	}
	if w == nil {
		w = io.Discard
	}

	outcomes := make([]Outcome, len(recs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = v.Verify(ctx, recs[idx])
			}
		}()
	}

feed:
	for i := range recs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Entries the pool never reached before cancellation.
	for i, rec := range recs {
		if rec.Provenance == types.Unverified || rec.Provenance == "" {
			outcomes[i] = v.reject(rec, ReasonTimeout)
		}
	}

	for i, rec := range recs {
		switch rec.Provenance {
		case types.VerifiedByDOI:
			fmt.Fprintf(w, "verified %s (doi)\n", rec.Key)
		case types.VerifiedByTitle:
			if outcomes[i].LowConfidence {
				fmt.Fprintf(w, "verified %s (title, low confidence %.2f)\n", rec.Key, outcomes[i].Score)
			} else {
				fmt.Fprintf(w, "verified %s (title, %.2f)\n", rec.Key, outcomes[i].Score)
			}
		case types.Rejected:
			fmt.Fprintf(w, "rejected %s: %s\n", rec.Key, rec.RejectReason)
		}
	}
	return outcomes
}
