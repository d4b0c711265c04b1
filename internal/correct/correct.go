// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package correct normalizes record fields and merges verified registry
// metadata into records. Every field change is logged on the record as a
// Correction; fields absent from both sides are never invented.
package correct

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// smallWords stay lowercase in titles and venue names unless leading.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "by": true,
	"for": true, "from": true, "in": true, "of": true, "on": true,
	"the": true, "to": true, "with": true,
}

// properNouns are preserved verbatim during title sentence-casing.
var properNouns = map[string]bool{
	"Bayesian": true, "Boolean": true, "Carlo": true, "Euclidean": true,
	"Gaussian": true, "Hamiltonian": true, "Internet": true,
	"Laplacian": true, "Markov": true, "Monte": true, "Newton": true,
	"Poisson": true, "Ramsey": true, "Turing": true,
}

// canonicalVenues maps lowercase venue names to their published form.
// Covers the journals and conference series most often abbreviated or
// miscapitalized in bibliographies.
var canonicalVenues = map[string]string{
	"nature":                       "Nature",
	"nature machine intelligence":  "Nature Machine Intelligence",
	"nature communications":        "Nature Communications",
	"nature methods":               "Nature Methods",
	"science":                      "Science",
	"cell":                         "Cell",
	"lancet":                       "The Lancet",
	"the lancet":                   "The Lancet",
	"pnas":                         "Proceedings of the National Academy of Sciences",
	"journal of machine learning research": "Journal of Machine Learning Research",
	"artificial intelligence":              "Artificial Intelligence",
	"machine learning":                     "Machine Learning",
	"ieee transactions on pattern analysis and machine intelligence": "IEEE Transactions on Pattern Analysis and Machine Intelligence",
	"ieee transactions on neural networks and learning systems":      "IEEE Transactions on Neural Networks and Learning Systems",
	"ieee transactions on image processing":                          "IEEE Transactions on Image Processing",
	"ieee transactions on knowledge and data engineering":            "IEEE Transactions on Knowledge and Data Engineering",
	"acm computing surveys":        "ACM Computing Surveys",
	"acm transactions on graphics": "ACM Transactions on Graphics",
	"neurips":                      "Advances in Neural Information Processing Systems",
	"icml":                         "International Conference on Machine Learning",
	"iclr":                         "International Conference on Learning Representations",
	"aaai":                         "AAAI Conference on Artificial Intelligence",
	"ijcai":                        "International Joint Conference on Artificial Intelligence",
	"cvpr":                         "IEEE Conference on Computer Vision and Pattern Recognition",
	"iccv":                         "IEEE International Conference on Computer Vision",
	"eccv":                         "European Conference on Computer Vision",
}

// misspellings maps frequent academic typos to their correct spelling.
// Matched case-insensitively on word boundaries.
var misspellings = map[string]string{
	"machien":       "machine",
	"learing":       "learning",
	"algoritm":      "algorithm",
	"anaylsis":      "analysis",
	"performace":    "performance",
	"clasification": "classification",
	"optimiztion":   "optimization",
	"recogntion":    "recognition",
	"procesing":     "processing",
	"netowrk":       "network",
	"artifical":     "artificial",
	"inteligence":   "intelligence",
	"expermental":   "experimental",
	"comparision":   "comparison",
	"implemention":  "implementation",
	"evalution":     "evaluation",
}

var misspellingRes = func() map[*regexp.Regexp]string {
	res := make(map[*regexp.Regexp]string, len(misspellings))
	for wrong, right := range misspellings {
		res[regexp.MustCompile(`(?i)\b`+wrong+`\b`)] = right
	}
	return res
}()

// authorShapeRe matches an author already in "F.M. Surname" form.
var authorShapeRe = regexp.MustCompile(`^(?:[A-Z]\.)+(?:\s*[A-Z]\.)*\s+[A-Z][A-Za-z'-]+$`)

// Format normalizes author names to "F.M. Surname" form and venue names
// against the canonical table. Changes are recorded as corrections.
func Format(rec *types.Record) {
	if len(rec.Authors) > 0 {
		formatted := make([]string, len(rec.Authors))
		changed := false
		for i, a := range rec.Authors {
			formatted[i] = NormalizeAuthor(a)
			if formatted[i] != a {
				changed = true
			}
		}
		if changed {
			before := strings.Join(rec.Authors, ", ")
			rec.Authors = formatted
			rec.RecordCorrection("authors", before, strings.Join(formatted, ", "))
		}
	}

	if rec.Venue != "" {
		if canonical := CanonicalVenue(rec.Venue); canonical != rec.Venue {
			rec.RecordCorrection("venue", rec.Venue, canonical)
			rec.Venue = canonical
		}
	}
}

// Spelling fixes known academic misspellings in the title.
func Spelling(rec *types.Record) {
	if rec.Title == "" {
		return
	}
	corrected := rec.Title
	for re, right := range misspellingRes {
		corrected = re.ReplaceAllStringFunc(corrected, func(m string) string {
			if m != "" && unicode.IsUpper(rune(m[0])) {
				return strings.ToUpper(right[:1]) + right[1:]
			}
			return right
		})
	}
	if corrected != rec.Title {
		rec.RecordCorrection("title", rec.Title, corrected)
		rec.Title = corrected
	}
}

// ApplyExternal merges the registry record into rec field by field.
// Non-empty external values replace differing local values, with one
// correction logged per changed field. Rejected records are left alone.
//
// An existing non-empty DOI is only replaced when the registry year is
// the same or more recent than the record's year, so a valid DOI never
// regresses to an older work's DOI. Applying the same external record
// twice is a no-op the second time.
func ApplyExternal(rec *types.Record, ext *types.ExternalRecord) {
	if rec.Provenance == types.Rejected || ext == nil {
		return
	}
	yearBefore := rec.Year

	if ext.Title != "" {
		proposed := SentenceCase(ext.Title)
		if proposed != rec.Title {
			rec.RecordCorrection("title", rec.Title, proposed)
			rec.Title = proposed
		}
	}

	if len(ext.Authors) > 0 {
		proposed := make([]string, 0, len(ext.Authors))
		for _, a := range ext.Authors {
			if name := FormatExternalAuthor(a); name != "" {
				proposed = append(proposed, name)
			}
		}
		if len(proposed) > 0 && strings.Join(proposed, ", ") != strings.Join(rec.Authors, ", ") {
			rec.RecordCorrection("authors", strings.Join(rec.Authors, ", "), strings.Join(proposed, ", "))
			rec.Authors = proposed
		}
	}

	if ext.Venue != "" && ext.Venue != rec.Venue {
		rec.RecordCorrection("venue", rec.Venue, ext.Venue)
		rec.Venue = ext.Venue
	}
	if ext.Volume != "" && ext.Volume != rec.Volume {
		rec.RecordCorrection("volume", rec.Volume, ext.Volume)
		rec.Volume = ext.Volume
	}
	if ext.Issue != "" && ext.Issue != rec.Issue {
		rec.RecordCorrection("issue", rec.Issue, ext.Issue)
		rec.Issue = ext.Issue
	}
	if ext.Pages != "" && ext.Pages != rec.Pages {
		rec.RecordCorrection("pages", rec.Pages, ext.Pages)
		rec.Pages = ext.Pages
	}
	if ext.Year != 0 && ext.Year != rec.Year {
		rec.RecordCorrection("year", itoa(rec.Year), itoa(ext.Year))
		rec.Year = ext.Year
	}

	if ext.DOI != "" && ext.DOI != rec.DOI {
		if rec.DOI == "" || yearBefore == 0 || ext.Year >= yearBefore {
			rec.RecordCorrection("doi", rec.DOI, ext.DOI)
			rec.DOI = ext.DOI
		}
	}
}

// NormalizeAuthor rewrites one author name as given-name initials followed
// by the full surname ("F.M. Surname"). Names already in that shape, and
// names too short to parse, pass through unchanged.
func NormalizeAuthor(author string) string {
	author = strings.Join(strings.Fields(author), " ")
	if author == "" || authorShapeRe.MatchString(author) {
		return author
	}

	// "Surname, F." or "Surname, First" form.
	if surname, given, ok := strings.Cut(author, ","); ok {
		surname = strings.TrimSpace(surname)
		given = strings.TrimSpace(given)
		if surname != "" && given != "" {
			return initialsOf(given) + " " + surname
		}
		return author
	}

	parts := strings.Fields(author)
	if len(parts) < 2 {
		return author
	}
	surname := parts[len(parts)-1]
	return initialsOf(strings.Join(parts[:len(parts)-1], " ")) + " " + surname
}

// FormatExternalAuthor renders a registry author in "F.M. Surname" form.
func FormatExternalAuthor(a types.ExternalAuthor) string {
	if a.Family == "" {
		return strings.TrimSpace(a.Given)
	}
	if a.Given == "" {
		return a.Family
	}
	return initialsOf(a.Given) + " " + a.Family
}

// initialsOf reduces given names to dotted initials: "Sohail Mansoor"
// becomes "S.M.". Existing initials keep their letter.
func initialsOf(given string) string {
	var b strings.Builder
	for _, name := range strings.Fields(given) {
		r := []rune(strings.TrimSuffix(name, "."))
		if len(r) == 0 {
			continue
		}
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteByte('.')
	}
	return b.String()
}

// CanonicalVenue maps a venue name onto its canonical published form.
// Unknown venues get headline capitalization with small words lowered.
func CanonicalVenue(venue string) string {
	trimmed := strings.Join(strings.Fields(venue), " ")
	if trimmed == "" {
		return venue
	}
	if canonical, ok := canonicalVenues[strings.ToLower(trimmed)]; ok {
		return canonical
	}

	words := strings.Split(trimmed, " ")
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && smallWords[lower] {
			words[i] = lower
			continue
		}
		if isAllCaps(w) {
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// SentenceCase lowercases a title except for the leading word, all-caps
// acronyms, and known proper nouns, which are preserved verbatim.
func SentenceCase(title string) string {
	trimmed := strings.Join(strings.Fields(title), " ")
	if trimmed == "" {
		return title
	}

	words := strings.Split(trimmed, " ")
	for i, w := range words {
		if isAllCaps(w) || properNouns[strings.Trim(w, ".,:;!?")] {
			continue
		}
		if i == 0 {
			words[i] = capitalize(strings.ToLower(w))
		} else {
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}

// isAllCaps reports whether w is an acronym-shaped token: at least two
// letters, every letter uppercase.
func isAllCaps(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}

func capitalize(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// itoa renders a year for correction logging, with 0 as empty.
func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
