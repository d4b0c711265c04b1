// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe removes duplicate records from a batch. Pairwise
// comparison is quadratic; batches are expected to be tens to low
// hundreds of entries.
package dedupe

import (
	"github.com/pdiddy/reference-engine/internal/similarity"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// Threshold is the composite similarity at or above which two records
// are the same work. DOI-exact pairs match regardless.
const Threshold = 0.85

// Decision records one removed duplicate for reporting.
type Decision struct {
	// KeptKey and DroppedKey are the entry keys of the survivor and the
	// removed record.
	KeptKey    string  `json:"kept_key" yaml:"kept_key"`
	DroppedKey string  `json:"dropped_key" yaml:"dropped_key"`
	Score      float64 `json:"score" yaml:"score"`
	Reason     string  `json:"reason" yaml:"reason"`
}

// Run partitions recs into survivors and duplicates. Within a duplicate
// pair the record with the stronger provenance survives; on equal
// provenance the one with more populated fields does. Survivors keep
// their input order.
func Run(recs []*types.Record) ([]*types.Record, []Decision) {
	dropped := make([]bool, len(recs))
	var decisions []Decision

	for i := 0; i < len(recs); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(recs); j++ {
			if dropped[j] {
				continue
			}
			score, reason := similarity.Score(recs[i], recs[j])
			if score < Threshold {
				continue
			}

			keep, drop := i, j
			if betterSurvivor(recs[j], recs[i]) {
				keep, drop = j, i
			}
			dropped[drop] = true
			decisions = append(decisions, Decision{
				KeptKey:    recs[keep].Key,
				DroppedKey: recs[drop].Key,
				Score:      score,
				Reason:     reason,
			})
			if drop == i {
				break
			}
		}
	}

	survivors := make([]*types.Record, 0, len(recs))
	for i, rec := range recs {
		if !dropped[i] {
			survivors = append(survivors, rec)
		}
	}
	return survivors, decisions
}

// betterSurvivor reports whether a beats b: stronger provenance first,
// then more non-empty fields.
func betterSurvivor(a, b *types.Record) bool {
	if a.Provenance.Rank() != b.Provenance.Rank() {
		return a.Provenance.Rank() > b.Provenance.Rank()
	}
	return a.NonEmptyFields() > b.NonEmptyFields()
}
