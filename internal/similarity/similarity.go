// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores how likely two structured records describe the
// same work. The same composite score backs duplicate detection and
// registry-match confirmation; only the acceptance thresholds differ, and
// those live with the callers.
package similarity

import (
	"strings"
	"unicode"

	"github.com/pdiddy/reference-engine/internal/parse"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// Component weights. An exact DOI match is definitive and bypasses these.
const (
	titleWeight   = 0.5
	authorsWeight = 0.3
	yearWeight    = 0.1
	venueWeight   = 0.1
)

// strongComponent is the per-component score above which the component is
// named in the reason code.
const strongComponent = 0.8

// Score returns a composite similarity in [0,1] and a reason code. Records
// sharing a DOI score 1.0 with reason "doi" regardless of other fields.
// Otherwise the score is the weighted sum over components present on both
// records (title 0.5, authors 0.3, year 0.1, venue 0.1), normalized by the
// total weight of those components. Score is symmetric in its arguments.
func Score(a, b *types.Record) (float64, string) {
	if a.DOI != "" && b.DOI != "" && a.DOI == b.DOI {
		return 1.0, "doi"
	}

	type component struct {
		name   string
		weight float64
		score  float64
	}
	var components []component

	if a.Title != "" && b.Title != "" {
		components = append(components, component{"title", titleWeight, diceTokens(titleTokens(a.Title), titleTokens(b.Title))})
	}
	if len(a.Authors) > 0 && len(b.Authors) > 0 {
		components = append(components, component{"authors", authorsWeight, surnameOverlap(a.Authors, b.Authors)})
	}
	if a.Year != 0 && b.Year != 0 {
		s := 0.0
		if a.Year == b.Year {
			s = 1.0
		}
		components = append(components, component{"year", yearWeight, s})
	}
	if a.Venue != "" && b.Venue != "" {
		components = append(components, component{"venue", venueWeight, diceTokens(titleTokens(a.Venue), titleTokens(b.Venue))})
	}

	if len(components) == 0 {
		return 0.0, "none"
	}

	var sum, totalWeight float64
	var strong []string
	for _, c := range components {
		sum += c.score * c.weight
		totalWeight += c.weight
		if c.score > strongComponent {
			strong = append(strong, c.name)
		}
	}
	if len(strong) == 0 {
		return sum / totalWeight, "partial"
	}
	return sum / totalWeight, strings.Join(strong, "+")
}

// TitleSimilarity scores just the normalized titles, used when ranking
// registry candidates that carry no other usable fields.
func TitleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	return diceTokens(titleTokens(a), titleTokens(b))
}

// titleTokens case-folds, strips punctuation, and splits into word tokens.
func titleTokens(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// diceTokens computes the Sørensen–Dice coefficient over token multisets:
// twice the shared token count divided by the total token count.
func diceTokens(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	counts := make(map[string]int, len(a))
	for _, tok := range a {
		counts[tok]++
	}
	shared := 0
	for _, tok := range b {
		if counts[tok] > 0 {
			counts[tok]--
			shared++
		}
	}
	return 2.0 * float64(shared) / float64(len(a)+len(b))
}

// surnameOverlap computes Jaccard overlap of the lowercased surname sets,
// ignoring author order.
func surnameOverlap(a, b []string) float64 {
	sa := surnameSet(a)
	sb := surnameSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}
	shared := 0
	for name := range sa {
		if sb[name] {
			shared++
		}
	}
	union := len(sa) + len(sb) - shared
	return float64(shared) / float64(union)
}

func surnameSet(authors []string) map[string]bool {
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		if s := strings.ToLower(parse.Surname(a)); s != "" {
			set[s] = true
		}
	}
	return set
}
