// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language)
// format. Field names follow the CSL-JSON/CSL-YAML schema so output is
// consumable by Pandoc and external citation formatters.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Volume         string    `yaml:"volume,omitempty"`
	Issue          string    `yaml:"issue,omitempty"`
	Page           string    `yaml:"page,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
}

// CSLName is a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes records as a CSL-YAML list to w.
func FormatCSL(records []*types.Record, w io.Writer) error {
	items := make([]CSLItem, len(records))
	for i, rec := range records {
		items[i] = toCSLItem(rec)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a record to a CSLItem. The citation key becomes the
// item ID, falling back to the entry key before key assignment.
func toCSLItem(rec *types.Record) CSLItem {
	item := CSLItem{
		ID:             rec.CitationKey,
		Type:           "article-journal",
		Title:          rec.Title,
		ContainerTitle: rec.Venue,
		Volume:         rec.Volume,
		Issue:          rec.Issue,
		Page:           rec.Pages,
		DOI:            rec.DOI,
	}
	if item.ID == "" {
		item.ID = rec.Key
	}
	for _, a := range rec.Authors {
		item.Author = append(item.Author, splitAuthorName(a))
	}
	if rec.Year != 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{rec.Year}}}
	}
	return item
}

// splitAuthorName splits "F.M. Surname" into CSL given/family parts.
// Single-token names use the literal field.
func splitAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
