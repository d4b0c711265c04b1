// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citekey assigns deterministic citation keys after dedup. A key
// is the 2-letter surname fragments of up to the first three authors plus
// the two-digit year, e.g. "ZaRaSi20".
package citekey

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/reference-engine/internal/parse"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const maxKeyAuthors = 3

// Generate computes the base citation key for one record, before
// collision suffixing. Records without authors key on "Unknown"; a
// missing year contributes "00".
func Generate(rec *types.Record) string {
	var b strings.Builder

	authors := rec.Authors
	if len(authors) > maxKeyAuthors {
		authors = authors[:maxKeyAuthors]
	}
	for _, a := range authors {
		b.WriteString(fragment(parse.Surname(a)))
	}
	if b.Len() == 0 {
		b.WriteString("Unknown")
	}

	if rec.Year == 0 {
		b.WriteString("00")
	} else {
		fmt.Fprintf(&b, "%02d", rec.Year%100)
	}
	return b.String()
}

// Assign sets CitationKey on every record, enforcing batch uniqueness.
// The first record to produce a key keeps it bare; later colliding
// records take the first free lowercase suffix in batch order.
func Assign(recs []*types.Record) {
	taken := make(map[string]bool, len(recs))
	for _, rec := range recs {
		key := Generate(rec)
		if taken[key] {
			for s := 'a'; s <= 'z'; s++ {
				if !taken[key+string(s)] {
					key += string(s)
					break
				}
			}
		}
		taken[key] = true
		rec.CitationKey = key
	}
}

// fragment returns the 2-letter key piece for a surname: first letter
// uppercased, second lowercased. A single-letter surname repeats its
// letter.
func fragment(surname string) string {
	r := []rune(surname)
	if len(r) == 0 {
		return ""
	}
	first := unicode.ToUpper(r[0])
	second := first
	if len(r) > 1 {
		second = unicode.ToLower(r[1])
	} else {
		second = unicode.ToLower(first)
	}
	return string([]rune{first, second})
}
