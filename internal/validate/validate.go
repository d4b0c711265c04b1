// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate ties the pipeline stages together: parse, local
// correction passes, registry verification, registry-driven correction,
// dedup, and citation key assignment. One call covers every input entry
// and always returns a full partition into corrected and rejected.
package validate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/reference-engine/internal/citekey"
	"github.com/pdiddy/reference-engine/internal/correct"
	"github.com/pdiddy/reference-engine/internal/dedupe"
	"github.com/pdiddy/reference-engine/internal/parse"
	"github.com/pdiddy/reference-engine/internal/verify"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// CorrectionEntry is one field change attributed to its entry for the
// flat corrections report.
type CorrectionEntry struct {
	Key              string `json:"key" yaml:"key"`
	types.Correction `yaml:",inline"`
}

// Result is the outcome of one validation job.
type Result struct {
	// Records are the corrected, deduplicated survivors with citation keys
	// assigned, in input order.
	Records []*types.Record `json:"records" yaml:"records"`

	// Rejected holds entries the verifier could not confirm, each carrying
	// its reason. Their fields are exactly as parsed.
	Rejected []*types.Record `json:"rejected,omitempty" yaml:"rejected,omitempty"`

	// Corrections flattens every surviving record's correction list.
	Corrections []CorrectionEntry `json:"corrections,omitempty" yaml:"corrections,omitempty"`

	// Duplicates lists the dedup removal decisions.
	Duplicates []dedupe.Decision `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`

	// Log is the processing log, one line per entry event.
	Log []string `json:"-" yaml:"-"`
}

// Engine runs validation jobs against one registry client. A nil registry
// disables verification regardless of config.
type Engine struct {
	registry verify.Registry
}

// New creates an Engine backed by reg.
func New(reg verify.Registry) *Engine {
	return &Engine{registry: reg}
}

// Run validates a batch of raw entries under cfg, writing progress to w.
// A cfg.Timeout of zero means no batch deadline; on expiry the entries
// not yet verified are rejected with reason "timeout" and finished
// entries are kept. Every input entry appears in exactly one of
// Result.Records or Result.Rejected.
func (e *Engine) Run(ctx context.Context, entries []types.RawEntry, cfg types.ValidationConfig, w io.Writer) *Result {
	recs := make([]*types.Record, 0, len(entries))
	for i, entry := range entries {
		rec := parse.Entry(entry, "")
		if rec.Key == "" {
			rec.Key = fmt.Sprintf("ref_%d", i+1)
		}
		recs = append(recs, &rec)
	}
	return e.process(ctx, recs, cfg, w)
}

// RunFile parses a whole input file in the given format and validates the
// resulting records. Used by the CLI, where input arrives as one blob
// rather than pre-split entries.
func (e *Engine) RunFile(ctx context.Context, content string, format types.EntryFormat, cfg types.ValidationConfig, w io.Writer) *Result {
	parsed := parse.File(content, format)
	recs := make([]*types.Record, len(parsed))
	for i := range parsed {
		recs[i] = &parsed[i]
	}
	return e.process(ctx, recs, cfg, w)
}

func (e *Engine) process(ctx context.Context, recs []*types.Record, cfg types.ValidationConfig, w io.Writer) *Result {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if w == nil {
		w = io.Discard
	}
	var logBuf bytes.Buffer
	lw := io.MultiWriter(w, &logBuf)

	fmt.Fprintf(lw, "parsed %d entries\n", len(recs))

	if cfg.CheckFormat {
		for _, rec := range recs {
			correct.Format(rec)
		}
	}
	if cfg.CheckSpelling {
		for _, rec := range recs {
			correct.Spelling(rec)
		}
	}

	if cfg.VerifyPapers && e.registry != nil {
		verifier := verify.New(e.registry)
		outcomes := verifier.VerifyBatch(ctx, recs, cfg.Workers, lw)
		for i, out := range outcomes {
			if out.External != nil {
				correct.ApplyExternal(recs[i], out.External)
			}
			if out.LowConfidence {
				fmt.Fprintf(lw, "warning: %s matched with low confidence (%.2f)\n", recs[i].Key, out.Score)
			}
		}
	}

	res := &Result{}
	kept := make([]*types.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.Provenance == types.Rejected {
			res.Rejected = append(res.Rejected, rec)
		} else {
			kept = append(kept, rec)
		}
	}

	if cfg.CheckDuplicates {
		var decisions []dedupe.Decision
		kept, decisions = dedupe.Run(kept)
		res.Duplicates = decisions
		for _, d := range decisions {
			fmt.Fprintf(lw, "duplicate %s removed, kept %s (%.2f, %s)\n", d.DroppedKey, d.KeptKey, d.Score, d.Reason)
		}
	}

	citekey.Assign(kept)
	res.Records = kept

	for _, rec := range kept {
		for _, c := range rec.Corrections {
			res.Corrections = append(res.Corrections, CorrectionEntry{Key: rec.Key, Correction: c})
		}
	}

	fmt.Fprintf(lw, "done: %d corrected, %d rejected, %d duplicates removed\n",
		len(res.Records), len(res.Rejected), len(res.Duplicates))

	if s := strings.TrimRight(logBuf.String(), "\n"); s != "" {
		res.Log = strings.Split(s, "\n")
	}
	return res
}
