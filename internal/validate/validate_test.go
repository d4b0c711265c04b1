// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reference-engine/internal/registry"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// fakeRegistry serves one fixture by DOI and as the sole title candidate.
type fakeRegistry struct {
	ext      *types.ExternalRecord
	lookups  int
	searches int
}

func (f *fakeRegistry) LookupByDOI(ctx context.Context, doi string) (*types.ExternalRecord, error) {
	f.lookups++
	if f.ext != nil && f.ext.DOI == doi {
		return f.ext, nil
	}
	return nil, registry.ErrNotFound
}

func (f *fakeRegistry) SearchByTitle(ctx context.Context, title, authorHint string) ([]types.ExternalRecord, error) {
	f.searches++
	if f.ext == nil {
		return nil, nil
	}
	return []types.ExternalRecord{*f.ext}, nil
}

func fixture() *types.ExternalRecord {
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

func TestRunFullPipeline(t *testing.T) {
	reg := &fakeRegistry{ext: fixture()}
	engine := New(reg)

	entries := []types.RawEntry{
		{
			Text:   `S. Zafar, A. Rafiq, M. Sindhu, Computing the edge metric dimension of convex polytopes related graphs, Journal of Mathematics and Computer Science, 25(3), (2020), 123-145, doi: 10.22436/jmcs.022.02.08`,
			Format: types.FormatBibitem,
		},
		{
			Text:   `K. Patel, A completely fabricated study that does not exist, Journal of Medicine, (2015)`,
			Format: types.FormatBibitem,
		},
	}

	var buf strings.Builder
	res := engine.Run(context.Background(), entries, types.DefaultValidationConfig(), &buf)

	require.Len(t, res.Records, 1)
	require.Len(t, res.Rejected, 1)

	verified := res.Records[0]
	assert.Equal(t, types.VerifiedByDOI, verified.Provenance)
	assert.Equal(t, "ZaRaSi20", verified.CitationKey)
	assert.Equal(t, "25", verified.Volume)

	rejected := res.Rejected[0]
	assert.Equal(t, types.Rejected, rejected.Provenance)
	assert.Equal(t, "not found", rejected.RejectReason)
	assert.Empty(t, rejected.CitationKey, "rejected entries get no citation key")

	assert.NotEmpty(t, res.Log)
	assert.Contains(t, buf.String(), "parsed 2 entries")
	assert.Contains(t, buf.String(), "done: 1 corrected, 1 rejected")
}

func TestRunVerificationDisabled(t *testing.T) {
	reg := &fakeRegistry{ext: fixture()}
	engine := New(reg)

	cfg := types.DefaultValidationConfig()
	cfg.VerifyPapers = false

	entries := []types.RawEntry{
		{Text: "S. Zafar, Some graph theory result, Journal of Mathematics, (2020)", Format: types.FormatBibitem},
	}
	res := engine.Run(context.Background(), entries, cfg, io.Discard)

	require.Len(t, res.Records, 1)
	assert.Equal(t, types.Unverified, res.Records[0].Provenance)
	assert.Empty(t, res.Rejected)
	assert.Zero(t, reg.lookups)
	assert.Zero(t, reg.searches)
	assert.Equal(t, "Za20", res.Records[0].CitationKey, "keys are assigned even without verification")
}

func TestRunDeduplicates(t *testing.T) {
	engine := New(nil)

	cfg := types.DefaultValidationConfig()
	cfg.VerifyPapers = false

	entry := types.RawEntry{
		Text:   "S. Zafar, A. Rafiq, Computing the edge metric dimension of convex polytopes, Journal of Mathematics and Computer Science, (2020)",
		Format: types.FormatBibitem,
	}
	res := engine.Run(context.Background(), []types.RawEntry{entry, entry}, cfg, io.Discard)

	assert.Len(t, res.Records, 1)
	require.Len(t, res.Duplicates, 1)
	assert.GreaterOrEqual(t, res.Duplicates[0].Score, 0.85)
}

func TestRunDedupDisabled(t *testing.T) {
	engine := New(nil)

	cfg := types.DefaultValidationConfig()
	cfg.VerifyPapers = false
	cfg.CheckDuplicates = false

	entry := types.RawEntry{
		Text:   "S. Zafar, Computing the edge metric dimension, Journal of Mathematics, (2020)",
		Format: types.FormatBibitem,
	}
	res := engine.Run(context.Background(), []types.RawEntry{entry, entry}, cfg, io.Discard)

	assert.Len(t, res.Records, 2)
	assert.Empty(t, res.Duplicates)
	assert.NotEqual(t, res.Records[0].CitationKey, res.Records[1].CitationKey, "collision suffix keeps keys unique")
}

func TestRunLocalCorrectionsReported(t *testing.T) {
	engine := New(nil)

	cfg := types.DefaultValidationConfig()
	cfg.VerifyPapers = false
	cfg.CheckDuplicates = false

	entries := []types.RawEntry{
		{Text: "S. Zafar, Machien learing on graphs, Journal of Mathematics, (2020)", Format: types.FormatBibitem},
	}
	res := engine.Run(context.Background(), entries, cfg, io.Discard)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "Machine learning on graphs", res.Records[0].Title)
	require.NotEmpty(t, res.Corrections)
	assert.Equal(t, "title", res.Corrections[0].Field)
	assert.Equal(t, res.Records[0].Key, res.Corrections[0].Key)
}

func TestRunFileSplitsBibitems(t *testing.T) {
	engine := New(nil)

	cfg := types.DefaultValidationConfig()
	cfg.VerifyPapers = false

	content := `\bibitem{zafar2020} S. Zafar, A. Rafiq, Computing the edge metric dimension, Journal of Mathematics, (2020)
\bibitem{patel2015} K. Patel, Renal outcomes in diabetic patients, Journal of Medicine, (2015)`

	res := engine.RunFile(context.Background(), content, types.FormatBibitem, cfg, io.Discard)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "zafar2020", res.Records[0].Key)
	assert.Equal(t, "patel2015", res.Records[1].Key)
}

func TestFormatReport(t *testing.T) {
	res := &Result{
		Records: []*types.Record{
			{Key: "a", CitationKey: "Za20", Provenance: types.VerifiedByDOI},
			{Key: "b", CitationKey: "Pa15", Provenance: types.Unverified},
		},
		Rejected: []*types.Record{
			{Key: "c", Provenance: types.Rejected, RejectReason: "not found"},
		},
		Corrections: []CorrectionEntry{
			{Key: "a", Correction: types.Correction{Field: "venue", Before: "J. Math", After: "Journal of Mathematics"}},
			{Key: "a", Correction: types.Correction{Field: "volume", Before: "", After: "25"}},
		},
	}

	var buf strings.Builder
	FormatReport(res, &buf)
	out := buf.String()

	assert.Contains(t, out, "corrected:          2")
	assert.Contains(t, out, "verified by doi:   1")
	assert.Contains(t, out, "rejected:           1")
	assert.Contains(t, out, `a: venue: "J. Math" -> "Journal of Mathematics"`)
	assert.Contains(t, out, `a: volume added: "25"`)
	assert.Contains(t, out, "c: not found")
}

func TestFormatCSL(t *testing.T) {
	records := []*types.Record{
		{
			Key:         "zafar2020",
			CitationKey: "ZaRa20",
			Authors:     []string{"S. Zafar", "A. Rafiq"},
			Title:       "Computing the edge metric dimension",
			Venue:       "Journal of Mathematics and Computer Science",
			Volume:      "25",
			Issue:       "3",
			Pages:       "123-145",
			Year:        2020,
			DOI:         "10.22436/jmcs.022.02.08",
		},
	}

	var buf strings.Builder
	require.NoError(t, FormatCSL(records, &buf))

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal([]byte(buf.String()), &items))
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "ZaRa20", item.ID)
	assert.Equal(t, "article-journal", item.Type)
	require.Len(t, item.Author, 2)
	assert.Equal(t, "Zafar", item.Author[0].Family)
	assert.Equal(t, "S.", item.Author[0].Given)
	assert.Equal(t, [][]int{{2020}}, item.Issued.DateParts)
	assert.Equal(t, "10.22436/jmcs.022.02.08", item.DOI)
}
