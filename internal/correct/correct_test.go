// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package correct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/reference-engine/pkg/types"
)

func TestNormalizeAuthor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already formatted", "S. Zafar", "S. Zafar"},
		{"two initials", "S.M. Zafar", "S.M. Zafar"},
		{"full given name", "Sohail Zafar", "S. Zafar"},
		{"two given names", "Sohail Mansoor Zafar", "S.M. Zafar"},
		{"surname comma initial", "Zafar, S.", "S. Zafar"},
		{"surname comma full name", "Zafar, Sohail", "S. Zafar"},
		{"single token", "Zafar", "Zafar"},
		{"extra whitespace", "  Sohail   Zafar ", "S. Zafar"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAuthor(tt.in))
		})
	}
}

func TestFormatRecordsAuthorCorrection(t *testing.T) {
	rec := &types.Record{Authors: []string{"Sohail Zafar", "A. Rafiq"}}
	Format(rec)

	assert.Equal(t, []string{"S. Zafar", "A. Rafiq"}, rec.Authors)
	require.Len(t, rec.Corrections, 1)
	assert.Equal(t, "authors", rec.Corrections[0].Field)
	assert.Equal(t, "Sohail Zafar, A. Rafiq", rec.Corrections[0].Before)
	assert.Equal(t, "S. Zafar, A. Rafiq", rec.Corrections[0].After)
}

func TestFormatNoChangeNoCorrection(t *testing.T) {
	rec := &types.Record{
		Authors: []string{"S. Zafar"},
		Venue:   "Journal of Machine Learning Research",
	}
	Format(rec)
	assert.Empty(t, rec.Corrections)
}

func TestCanonicalVenue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"nature", "Nature"},
		{"NEURIPS", "Advances in Neural Information Processing Systems"},
		{"the lancet", "The Lancet"},
		{"journal of mathematics and computer science", "Journal of Mathematics and Computer Science"},
		{"IEEE transactions on image processing", "IEEE Transactions on Image Processing"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalVenue(tt.in), "input %q", tt.in)
	}
}

func TestSpelling(t *testing.T) {
	rec := &types.Record{Title: "Machien learing for netowrk anaylsis"}
	Spelling(rec)

	assert.Equal(t, "Machine learning for network analysis", rec.Title)
	require.Len(t, rec.Corrections, 1)
	assert.Equal(t, "title", rec.Corrections[0].Field)
	assert.Equal(t, "Machien learing for netowrk anaylsis", rec.Corrections[0].Before)
}

func TestSpellingCleanTitleUntouched(t *testing.T) {
	rec := &types.Record{Title: "Machine learning for network analysis"}
	Spelling(rec)
	assert.Empty(t, rec.Corrections)
}

func TestSentenceCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"COMPUTING THE EDGE METRIC DIMENSION", "COMPUTING THE EDGE METRIC DIMENSION"},
		{"Computing The Edge Metric Dimension", "Computing the edge metric dimension"},
		{"markov chains and DNA sequencing", "Markov chains and DNA sequencing"},
		{"a survey of Monte Carlo methods", "A survey of Monte Carlo methods"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SentenceCase(tt.in), "input %q", tt.in)
	}
}

func TestFormatExternalAuthor(t *testing.T) {
	tests := []struct {
		in   types.ExternalAuthor
		want string
	}{
		{types.ExternalAuthor{Given: "Sohail", Family: "Zafar"}, "S. Zafar"},
		{types.ExternalAuthor{Given: "Sohail Mansoor", Family: "Zafar"}, "S.M. Zafar"},
		{types.ExternalAuthor{Family: "Zafar"}, "Zafar"},
		{types.ExternalAuthor{Given: "Sohail"}, "Sohail"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatExternalAuthor(tt.in))
	}
}

func externalFixture() *types.ExternalRecord {
	return &types.ExternalRecord{
		Title: "Computing the edge metric dimension of convex polytopes related graphs",
		Authors: []types.ExternalAuthor{
			{Given: "Sohail", Family: "Zafar"},
			{Given: "Aisha", Family: "Rafiq"},
			{Given: "Maria", Family: "Sindhu"},
		},
		Venue:  "Journal of Mathematics and Computer Science",
		Volume: "25",
		Issue:  "3",
		Pages:  "123-145",
		Year:   2020,
		DOI:    "10.22436/jmcs.022.02.08",
	}
}

func TestApplyExternalFillsAndCorrects(t *testing.T) {
	rec := &types.Record{
		Authors: []string{"S. Zafar", "A. Rafiq", "M. Sindhu"},
		Title:   "Computing the edge metric dimension of convex polytope related graphs",
		Venue:   "J. Math. Comput. Sci.",
		Year:    2020,
	}
	ApplyExternal(rec, externalFixture())

	assert.Equal(t, "Computing the edge metric dimension of convex polytopes related graphs", rec.Title)
	assert.Equal(t, "Journal of Mathematics and Computer Science", rec.Venue)
	assert.Equal(t, "25", rec.Volume)
	assert.Equal(t, "3", rec.Issue)
	assert.Equal(t, "123-145", rec.Pages)
	assert.Equal(t, "10.22436/jmcs.022.02.08", rec.DOI)

	fields := map[string]bool{}
	for _, c := range rec.Corrections {
		assert.False(t, fields[c.Field], "field %s corrected twice", c.Field)
		fields[c.Field] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["venue"])
	assert.True(t, fields["doi"])
	assert.False(t, fields["year"], "matching year must not be corrected")
	assert.False(t, fields["authors"], "matching authors must not be corrected")
}

func TestApplyExternalIdempotent(t *testing.T) {
	ext := externalFixture()
	rec := &types.Record{Title: "computing the edge metric dimension", Year: 2019}

	ApplyExternal(rec, ext)
	once := *rec
	onceCorrections := len(rec.Corrections)

	ApplyExternal(rec, ext)
	assert.Equal(t, once.Title, rec.Title)
	assert.Equal(t, once.DOI, rec.DOI)
	assert.Equal(t, once.Year, rec.Year)
	assert.Len(t, rec.Corrections, onceCorrections)
}

func TestApplyExternalDOINeverRegresses(t *testing.T) {
	rec := &types.Record{
		Title: "Some title",
		Year:  2022,
		DOI:   "10.1000/newer",
	}
	ext := externalFixture()
	ext.Year = 2018
	ext.DOI = "10.1000/older"

	ApplyExternal(rec, ext)
	assert.Equal(t, "10.1000/newer", rec.DOI, "older external work must not replace the DOI")
	assert.Equal(t, 2018, rec.Year, "year still follows the registry")
}

func TestApplyExternalDOIOverwriteSameOrNewerYear(t *testing.T) {
	rec := &types.Record{Year: 2020, DOI: "10.1000/old"}
	ext := externalFixture()

	ApplyExternal(rec, ext)
	assert.Equal(t, "10.22436/jmcs.022.02.08", rec.DOI)
}

func TestApplyExternalNeverFabricates(t *testing.T) {
	rec := &types.Record{Title: "Only a title"}
	ext := &types.ExternalRecord{Title: "Only a title"}

	ApplyExternal(rec, ext)
	assert.Empty(t, rec.Venue)
	assert.Empty(t, rec.Volume)
	assert.Empty(t, rec.Pages)
	assert.Empty(t, rec.DOI)
	assert.Zero(t, rec.Year)
	assert.Empty(t, rec.Corrections)
}

func TestApplyExternalRejectedUntouched(t *testing.T) {
	rec := &types.Record{Title: "Original", Provenance: types.Rejected}
	ApplyExternal(rec, externalFixture())
	assert.Equal(t, "Original", rec.Title)
	assert.Empty(t, rec.Corrections)
}
