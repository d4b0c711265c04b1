// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the reference-engine
// pipeline: raw entries, structured records, registry records, and the
// configuration consumed by each stage.
package types

// EntryFormat declares how a raw reference entry is encoded.
type EntryFormat string

const (
	// FormatBibitem is a free-text bibliography item, optionally wrapped in
	// LaTeX \bibitem{key} markers.
	FormatBibitem EntryFormat = "bibitem"

	// FormatBibTeX is a key-value entry (@article{key, field = {value}, ...}).
	FormatBibTeX EntryFormat = "bibtex"

	// FormatPlain is one reference per line with no markup.
	FormatPlain EntryFormat = "plain"
)

// RawEntry is one unparsed reference as supplied by the caller. It is
// consumed exactly once by the field parser and never mutated.
type RawEntry struct {
	// Text is the opaque input string.
	Text string `json:"text" yaml:"text"`

	// Format is the declared input format.
	Format EntryFormat `json:"format" yaml:"format"`
}

// Provenance tracks how a record's contents were confirmed. Transitions are
// one-way: a record starts Unverified and moves to exactly one of the other
// states; later stages never regress it.
type Provenance string

const (
	Unverified      Provenance = "unverified"
	VerifiedByDOI   Provenance = "verified_by_doi"
	VerifiedByTitle Provenance = "verified_by_title"
	Rejected        Provenance = "rejected"
)

// Rank orders provenance by evidence strength for duplicate survivor
// selection: verified_by_doi > verified_by_title > unverified > rejected.
func (p Provenance) Rank() int {
	switch p {
	case VerifiedByDOI:
		return 3
	case VerifiedByTitle:
		return 2
	case Unverified:
		return 1
	default:
		return 0
	}
}

// Correction records one field change: the field name, the value before,
// and the value after. A record carries at most one Correction per field.
type Correction struct {
	Field  string `json:"field" yaml:"field"`
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
}

// Record is a structured bibliographic reference, the working unit of the
// whole pipeline. Fields left empty by the parser stay empty until a
// registry match fills them; nothing is ever invented.
type Record struct {
	// Key is the caller-visible entry label (\bibitem key, BibTeX key, or a
	// generated ref_N label for plain entries).
	Key string `json:"key" yaml:"key"`

	// Authors holds author names in order, surname plus given-name initials.
	Authors []string `json:"authors" yaml:"authors"`

	Title string `json:"title" yaml:"title"`

	// Venue is the journal or conference name.
	Venue string `json:"venue" yaml:"venue"`

	// Volume and Issue may contain non-numeric tokens such as "Suppl 2".
	Volume string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue  string `json:"issue,omitempty" yaml:"issue,omitempty"`

	// Pages is a start–end range or a single article-number token.
	Pages string `json:"pages,omitempty" yaml:"pages,omitempty"`

	// Year is the publication year, 0 if unknown. Valid range is
	// [1900, current_year+1].
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the lowercase canonical DOI (no https://doi.org/ prefix).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// CitationKey is assigned by the key generator after dedup.
	CitationKey string `json:"citation_key,omitempty" yaml:"citation_key,omitempty"`

	// Provenance records the verification outcome.
	Provenance Provenance `json:"provenance" yaml:"provenance"`

	// RejectReason explains a Rejected provenance ("not found", "network",
	// "timeout"). Empty otherwise.
	RejectReason string `json:"reject_reason,omitempty" yaml:"reject_reason,omitempty"`

	// Corrections lists field changes in the order first applied, at most
	// one entry per field.
	Corrections []Correction `json:"corrections,omitempty" yaml:"corrections,omitempty"`

	// Original preserves the raw input text for reporting.
	Original string `json:"original,omitempty" yaml:"original,omitempty"`
}

// Promote advances the provenance state. It reports whether the transition
// was applied: moving away from Unverified is always allowed, every other
// state is terminal.
func (r *Record) Promote(next Provenance) bool {
	if r.Provenance != Unverified && r.Provenance != "" {
		return false
	}
	r.Provenance = next
	return true
}

// RecordCorrection notes that field changed from before to after. If the
// field was already corrected, the existing entry keeps its original Before
// and takes the new After, so each field appears at most once.
func (r *Record) RecordCorrection(field, before, after string) {
	for i := range r.Corrections {
		if r.Corrections[i].Field == field {
			r.Corrections[i].After = after
			return
		}
	}
	r.Corrections = append(r.Corrections, Correction{Field: field, Before: before, After: after})
}

// NonEmptyFields counts populated bibliographic fields. Used as the dedup
// tie-breaker when two duplicates share a provenance rank.
func (r *Record) NonEmptyFields() int {
	n := 0
	if len(r.Authors) > 0 {
		n++
	}
	for _, s := range []string{r.Title, r.Venue, r.Volume, r.Issue, r.Pages, r.DOI} {
		if s != "" {
			n++
		}
	}
	if r.Year != 0 {
		n++
	}
	return n
}

// ExternalAuthor is an author name as returned by the registry, split into
// given and family parts.
type ExternalAuthor struct {
	Given  string `json:"given" yaml:"given"`
	Family string `json:"family" yaml:"family"`
}

// ExternalRecord is the authoritative metadata for one work as returned by
// the bibliographic registry. Empty fields mean the registry did not report
// them.
type ExternalRecord struct {
	Title   string           `json:"title" yaml:"title"`
	Authors []ExternalAuthor `json:"authors" yaml:"authors"`
	Venue   string           `json:"venue" yaml:"venue"`
	Volume  string           `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue   string           `json:"issue,omitempty" yaml:"issue,omitempty"`

	// Pages is the page range, or the article number when the work has no
	// page range.
	Pages string `json:"pages,omitempty" yaml:"pages,omitempty"`
	Year  int    `json:"year,omitempty" yaml:"year,omitempty"`
	DOI   string `json:"doi,omitempty" yaml:"doi,omitempty"`
}
