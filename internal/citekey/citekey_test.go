// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citekey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/reference-engine/pkg/types"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		rec  types.Record
		want string
	}{
		{
			"three authors",
			types.Record{Authors: []string{"S. Zafar", "A. Rafiq", "M. Sindhu"}, Year: 2020},
			"ZaRaSi20",
		},
		{
			"four authors trims to three",
			types.Record{Authors: []string{"S. Zafar", "A. Rafiq", "M. Sindhu", "K. Umar"}, Year: 2020},
			"ZaRaSi20",
		},
		{
			"single author",
			types.Record{Authors: []string{"S. Zafar"}, Year: 1999},
			"Za99",
		},
		{
			"two authors",
			types.Record{Authors: []string{"Y. Saad", "M.H. Schultz"}, Year: 1986},
			"SaSc86",
		},
		{
			"single-letter surname repeats",
			types.Record{Authors: []string{"X. O"}, Year: 2021},
			"Oo21",
		},
		{
			"missing year",
			types.Record{Authors: []string{"S. Zafar"}},
			"Za00",
		},
		{
			"no authors",
			types.Record{Year: 2020},
			"Unknown20",
		},
		{
			"lowercase surname normalized",
			types.Record{Authors: []string{"L. van Der Berg"}, Year: 2005},
			"Be05",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(&tt.rec))
		})
	}
}

func TestGenerateKeyLength(t *testing.T) {
	rec := &types.Record{Authors: []string{"S. Zafar", "A. Rafiq", "M. Sindhu"}, Year: 2020}
	assert.Len(t, Generate(rec), 8)
}

func TestAssignCollisions(t *testing.T) {
	a := &types.Record{Key: "a", Authors: []string{"S. Zafar"}, Year: 2020}
	b := &types.Record{Key: "b", Authors: []string{"T. Zafir"}, Year: 2020}
	c := &types.Record{Key: "c", Authors: []string{"U. Zakir"}, Year: 2020}

	Assign([]*types.Record{a, b, c})

	assert.Equal(t, "Za20", a.CitationKey, "first occurrence keeps the bare key")
	assert.Equal(t, "Za20a", b.CitationKey)
	assert.Equal(t, "Za20b", c.CitationKey)
}

func TestAssignNoCollision(t *testing.T) {
	a := &types.Record{Authors: []string{"S. Zafar"}, Year: 2020}
	b := &types.Record{Authors: []string{"K. Patel"}, Year: 2015}

	Assign([]*types.Record{a, b})

	assert.Equal(t, "Za20", a.CitationKey)
	assert.Equal(t, "Pa15", b.CitationKey)
}
