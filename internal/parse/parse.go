// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns raw citation entries into structured records. The
// free-text path is a token-classification state machine over comma/period
// delimited segments; unrecoverable fields are left empty rather than
// failing, and no entry is ever discarded.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// minYear is the lower bound for a plausible publication year. The upper
// bound is the current year plus one (in-press entries).
const minYear = 1900

// Field extraction patterns.
var (
	// doiRe matches a DOI anywhere in the entry, optionally behind a
	// doi.org URL or "doi:" prefix.
	doiRe = regexp.MustCompile(`(?i)\b(?:https?://(?:dx\.)?doi\.org/|doi:\s*)?(10\.\d{4,9}/[^\s,]+)`)

	// parenYearRe matches a parenthesized 4-digit year.
	parenYearRe = regexp.MustCompile(`\((\d{4})\)`)

	// bareYearRe matches a standalone 4-digit year token.
	bareYearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	// volIssueRe matches "25(3)" style volume(issue) markers. The issue may
	// be non-numeric ("Suppl 2").
	volIssueRe = regexp.MustCompile(`\b(\d+[A-Za-z]?)\s*\(([^()]+)\)`)

	// boldVolRe matches LaTeX volume markup "\textbf{25}(3)" with an
	// optional issue.
	boldVolRe = regexp.MustCompile(`\\textbf\{([^}]+)\}(?:\s*\(([^()]+)\))?`)

	// bareVolRe matches "vol. 25" / "volume 25" markers.
	bareVolRe = regexp.MustCompile(`(?i)\bvol(?:ume)?\.?\s+(\d+[A-Za-z]?)`)

	// pagesRe matches a trailing page range or article-number token, with
	// an optional "pp." prefix. Hyphen, en dash, and em dash all delimit
	// ranges.
	pagesRe = regexp.MustCompile(`\b(?:pp?\.\s*)?(\d+\s*[-–—]+\s*\d+|e\d+)\b[.,;\s]*$`)

	// initialsSurnameRe matches "S. Zafar" / "J.-P. Serre" style author
	// tokens: one or more initials then a capitalized surname.
	initialsSurnameRe = regexp.MustCompile(`^(?:[A-Z]\.[\s-]*)+[A-Z][A-Za-z'-]+$`)

	// surnameOnlyRe matches a bare capitalized surname segment, the first
	// half of a "Surname, I." author split across two comma segments.
	surnameOnlyRe = regexp.MustCompile(`^[A-Z][A-Za-z'-]+$`)

	// initialsOnlyRe matches the "I." / "I.M." second half of a
	// "Surname, I." author.
	initialsOnlyRe = regexp.MustCompile(`^(?:[A-Z]\.[\s-]*)+$`)

	// firstLastRe matches a plain "First Last" author token.
	firstLastRe = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][A-Za-z'-]+$`)

	// bibitemSplitRe finds the start of each \bibitem{key} block.
	bibitemSplitRe = regexp.MustCompile(`\\bibitem\{`)

	// bibitemPrefixRe matches a leading \bibitem{key} marker on a single entry.
	bibitemPrefixRe = regexp.MustCompile(`^\\bibitem\{([^}]+)\}\s*`)

	// bibtexEntryRe matches one "@type{key, fields}" entry.
	bibtexEntryRe = regexp.MustCompile(`(?s)@(\w+)\s*\{\s*([^,\s]+)\s*,(.*?)\n\}`)

	// bibtexFieldRe matches one "name = {value}" or quoted field.
	bibtexFieldRe = regexp.MustCompile(`(\w+)\s*=\s*(?:\{([^{}]*)\}|"([^"]*)")`)
)

// venueMarkerRe flags a segment as a journal or proceedings name. Only
// structural markers count; field words like "computing" or "science"
// appear in titles too often to be reliable.
var venueMarkerRe = regexp.MustCompile(`(?i)\b(journal|proceedings|transactions|conference|letters|symposium|workshop|annals|bulletin|advances|ieee|acm)\b`)

// standaloneVenues are famous venues with no structural marker, matched
// against the whole segment.
var standaloneVenues = map[string]bool{
	"nature":     true,
	"science":    true,
	"cell":       true,
	"pnas":       true,
	"the lancet": true,
}

// File splits content into entries according to the declared format and
// parses each. Every entry yields a record; parse failures leave fields
// empty instead of dropping the entry.
func File(content string, format types.EntryFormat) []types.Record {
	switch format {
	case types.FormatBibTeX:
		return bibtexFile(content)
	case types.FormatPlain:
		return plainFile(content)
	default:
		return bibitemFile(content)
	}
}

// Entry parses a single raw entry. key labels the record in reports; pass
// an empty key to keep a key found in the entry text (\bibitem marker).
func Entry(raw types.RawEntry, key string) types.Record {
	switch raw.Format {
	case types.FormatBibTeX:
		if recs := bibtexFile(raw.Text); len(recs) > 0 {
			return recs[0]
		}
		rec := freeText(raw.Text)
		if key != "" {
			rec.Key = key
		}
		return rec
	default:
		text := raw.Text
		if m := bibitemPrefixRe.FindStringSubmatch(text); m != nil {
			if key == "" {
				key = m[1]
			}
			text = text[len(m[0]):]
		}
		rec := freeText(text)
		if key != "" {
			rec.Key = key
		}
		return rec
	}
}

// bibitemFile splits a LaTeX bibliography on \bibitem markers. Content
// with no markers parses as a single free-text entry.
func bibitemFile(content string) []types.Record {
	idxs := bibitemSplitRe.FindAllStringIndex(content, -1)
	if len(idxs) == 0 {
		text := strings.TrimSpace(content)
		if text == "" {
			return nil
		}
		return []types.Record{freeText(text)}
	}

	var records []types.Record
	for i, loc := range idxs {
		end := len(content)
		if i+1 < len(idxs) {
			end = idxs[i+1][0]
		}
		block := content[loc[0]:end]

		var key, body string
		if brace := strings.IndexByte(block, '}'); brace >= 0 {
			key = strings.TrimSpace(block[len(`\bibitem{`):brace])
			body = strings.TrimSpace(block[brace+1:])
		} else {
			body = strings.TrimSpace(block)
		}
		if body == "" && key == "" {
			continue
		}
		rec := freeText(body)
		rec.Key = key
		if rec.Key == "" {
			rec.Key = fmt.Sprintf("ref_%d", i+1)
		}
		records = append(records, rec)
	}
	return records
}

// plainFile parses one reference per non-empty line.
func plainFile(content string) []types.Record {
	var records []types.Record
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec := freeText(line)
		rec.Key = fmt.Sprintf("ref_%d", len(records)+1)
		records = append(records, rec)
	}
	return records
}

// bibtexFile parses "@type{key, name = {value}, ...}" entries.
func bibtexFile(content string) []types.Record {
	var records []types.Record
	for _, m := range bibtexEntryRe.FindAllStringSubmatch(content, -1) {
		rec := types.Record{
			Key:        strings.TrimSpace(m[2]),
			Provenance: types.Unverified,
			Original:   strings.TrimSpace(m[0]),
		}
		for _, f := range bibtexFieldRe.FindAllStringSubmatch(m[3], -1) {
			name := strings.ToLower(f[1])
			value := strings.TrimSpace(f[2])
			if value == "" {
				value = strings.TrimSpace(f[3])
			}
			switch name {
			case "author":
				rec.Authors = splitBibtexAuthors(value)
			case "title":
				rec.Title = value
			case "journal", "booktitle", "venue":
				rec.Venue = value
			case "year":
				if y, err := strconv.Atoi(value); err == nil && validYear(y) {
					rec.Year = y
				}
			case "volume":
				rec.Volume = value
			case "number", "issue":
				rec.Issue = value
			case "pages":
				rec.Pages = normalizePages(value)
			case "doi":
				rec.DOI = NormalizeDOI(value)
			}
		}
		records = append(records, rec)
	}
	return records
}

// splitBibtexAuthors splits a BibTeX author field on " and " connectors.
func splitBibtexAuthors(value string) []string {
	var authors []string
	for _, a := range strings.Split(value, " and ") {
		a = strings.TrimSpace(a)
		if a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

// segmentClass is the state machine's classification of one comma segment.
type segmentClass int

const (
	classAuthor segmentClass = iota
	classTitle
	classVenue
)

// freeText parses one free-text citation string. Extraction order matters:
// DOI, year, volume/issue, and pages are pulled out first so the remaining
// comma segments carry only authors, title, and venue.
func freeText(text string) types.Record {
	rec := types.Record{Provenance: types.Unverified, Original: strings.TrimSpace(text)}
	rest := rec.Original

	rest = extractDOI(rest, &rec)
	rest = extractYear(rest, &rec)
	rest = extractVolumeIssue(rest, &rec)
	rest = extractPages(rest, &rec)

	segments := splitSegments(rest)
	classifySegments(segments, &rec)
	return rec
}

// extractDOI pulls the first DOI out of text, lowercased and stripped of
// URL prefixes and trailing punctuation.
func extractDOI(text string, rec *types.Record) string {
	m := doiRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	rec.DOI = NormalizeDOI(text[m[2]:m[3]])
	return strings.TrimSpace(text[:m[0]] + " " + text[m[1]:])
}

// extractYear prefers the last parenthesized 4-digit year; a bare in-range
// year token is the fallback. Out-of-range years are ignored.
func extractYear(text string, rec *types.Record) string {
	matches := parenYearRe.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		y, _ := strconv.Atoi(text[m[2]:m[3]])
		if validYear(y) {
			rec.Year = y
			return strings.TrimSpace(text[:m[0]] + " " + text[m[1]:])
		}
	}
	if m := bareYearRe.FindStringSubmatchIndex(text); m != nil {
		y, _ := strconv.Atoi(text[m[2]:m[3]])
		if validYear(y) {
			rec.Year = y
			return strings.TrimSpace(text[:m[0]] + " " + text[m[1]:])
		}
	}
	return text
}

// extractVolumeIssue handles "\textbf{25}(3)", "25(3)", and "vol. 25"
// markers, in that priority order.
func extractVolumeIssue(text string, rec *types.Record) string {
	if m := boldVolRe.FindStringSubmatchIndex(text); m != nil {
		rec.Volume = strings.TrimSpace(text[m[2]:m[3]])
		if m[4] >= 0 {
			rec.Issue = strings.TrimSpace(text[m[4]:m[5]])
		}
		return strings.TrimSpace(text[:m[0]] + " " + text[m[1]:])
	}
	if m := volIssueRe.FindStringSubmatchIndex(text); m != nil {
		rec.Volume = strings.TrimSpace(text[m[2]:m[3]])
		rec.Issue = strings.TrimSpace(text[m[4]:m[5]])
		return strings.TrimSpace(text[:m[0]] + " " + text[m[1]:])
	}
	if m := bareVolRe.FindStringSubmatchIndex(text); m != nil {
		rec.Volume = strings.TrimSpace(text[m[2]:m[3]])
		return strings.TrimSpace(text[:m[0]] + " " + text[m[1]:])
	}
	return text
}

// extractPages matches a trailing page range or article number.
func extractPages(text string, rec *types.Record) string {
	m := pagesRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	rec.Pages = normalizePages(text[m[2]:m[3]])
	return strings.TrimSpace(text[:m[0]])
}

// endsWithInitialRe matches a segment ending in a single-capital initial
// ("S.", "A. Rafiq" never ends in one, "Zafar, S." does after splitting).
var endsWithInitialRe = regexp.MustCompile(`(?:^|[\s.-])[A-Z]\.$`)

// splitSegments breaks the remaining text into trimmed comma segments.
// Trailing periods are stripped except on author initials.
func splitSegments(text string) []string {
	var segments []string
	for _, s := range strings.Split(text, ",") {
		s = strings.Trim(s, " ;")
		s = strings.Join(strings.Fields(s), " ")
		for strings.HasSuffix(s, ".") && !endsWithInitialRe.MatchString(s) {
			s = strings.TrimSpace(strings.TrimSuffix(s, "."))
		}
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// classifySegments runs the author/title/venue state machine. The leading
// run of author-shaped segments becomes the author list; the run stops at
// the first segment that does not look like an author (usually the title).
// A later segment carrying a venue keyword switches to venue state; once in
// venue state everything remaining joins the venue. If no keyword matches,
// the whole remaining span stays in the title.
func classifySegments(segments []string, rec *types.Record) {
	if len(segments) == 0 {
		return
	}

	// No comma boundary at all: fall back to the first period-delimited
	// group as the author block.
	if len(segments) == 1 {
		parts := splitOnPeriods(segments[0])
		if len(parts) <= 1 {
			if initialsSurnameRe.MatchString(segments[0]) || firstLastRe.MatchString(segments[0]) {
				rec.Authors = append(rec.Authors, segments[0])
			} else {
				rec.Title = segments[0]
			}
			return
		}
		rec.Authors = append(rec.Authors, parts[0])
		classifyRemainder(parts[1:], rec)
		return
	}

	state := classAuthor
	var titleParts, venueParts []string

	for i := 0; i < len(segments); i++ {
		seg := segments[i]

		switch state {
		case classAuthor:
			if isVenueSegment(seg) {
				state = classVenue
				venueParts = append(venueParts, seg)
				continue
			}
			if initialsSurnameRe.MatchString(seg) || firstLastRe.MatchString(seg) {
				rec.Authors = append(rec.Authors, seg)
				continue
			}
			// "Surname, I." spans two segments.
			if surnameOnlyRe.MatchString(seg) && i+1 < len(segments) && initialsOnlyRe.MatchString(segments[i+1]) {
				rec.Authors = append(rec.Authors, seg+", "+strings.TrimSpace(segments[i+1]))
				i++
				continue
			}
			state = classTitle
			titleParts = append(titleParts, seg)

		case classTitle:
			if isVenueSegment(seg) {
				state = classVenue
				venueParts = append(venueParts, seg)
				continue
			}
			titleParts = append(titleParts, seg)

		case classVenue:
			venueParts = append(venueParts, seg)
		}
	}

	rec.Title = strings.Join(titleParts, ", ")
	rec.Venue = strings.Join(venueParts, ", ")
}

// classifyRemainder assigns title and venue to segments known not to be
// authors, using the same keyword switch as the main state machine.
func classifyRemainder(segments []string, rec *types.Record) {
	var titleParts, venueParts []string
	inVenue := false
	for _, seg := range segments {
		if !inVenue && isVenueSegment(seg) {
			inVenue = true
		}
		if inVenue {
			venueParts = append(venueParts, seg)
		} else {
			titleParts = append(titleParts, seg)
		}
	}
	rec.Title = strings.Join(titleParts, ", ")
	rec.Venue = strings.Join(venueParts, ", ")
}

// isVenueSegment reports whether the segment carries a venue keyword.
func isVenueSegment(seg string) bool {
	if venueMarkerRe.MatchString(seg) {
		return true
	}
	lower := strings.ToLower(seg)
	return standaloneVenues[lower] || strings.HasPrefix(lower, "nature ")
}

// initialRe protects single-letter initials ("A.") from period splitting.
var initialRe = regexp.MustCompile(`\b([A-Z])\.`)

// splitOnPeriods splits text at period boundaries while protecting author
// initials and common abbreviations (et al., e.g., i.e.).
func splitOnPeriods(text string) []string {
	safe := strings.ReplaceAll(text, "et al.", "et al\x00")
	safe = strings.ReplaceAll(safe, "e.g.", "e\x00g\x00")
	safe = strings.ReplaceAll(safe, "i.e.", "i\x00e\x00")
	safe = initialRe.ReplaceAllString(safe, "${1}\x00")

	parts := strings.Split(safe, ". ")

	var result []string
	for _, p := range parts {
		p = strings.ReplaceAll(p, "\x00", ".")
		p = strings.Trim(p, ". ")
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// NormalizeDOI lowercases a DOI and strips URL prefixes, a "doi:" marker,
// and trailing punctuation. Empty input stays empty.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.ToLower(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.Trim(doi, " .,;")
}

// normalizePages collapses whitespace around the range dash, keeping the
// dash character as given.
func normalizePages(pages string) string {
	pages = strings.TrimSpace(pages)
	for _, dash := range []string{"-", "–", "—"} {
		parts := strings.Split(pages, dash)
		if len(parts) == 2 {
			return strings.TrimSpace(parts[0]) + dash + strings.TrimSpace(parts[1])
		}
	}
	return pages
}

// Surname extracts the family name from an author string. It handles both
// "S. Zafar" (last word) and "Zafar, S." (part before the comma) shapes.
func Surname(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return ""
	}
	if i := strings.IndexByte(author, ','); i >= 0 {
		return strings.TrimSpace(author[:i])
	}
	fields := strings.Fields(author)
	return fields[len(fields)-1]
}

// validYear reports whether y falls in [1900, current_year+1].
func validYear(y int) bool {
	return y >= minYear && y <= time.Now().Year()+1
}
