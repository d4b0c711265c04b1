package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reference-engine/internal/parse"
	"github.com/pdiddy/reference-engine/internal/validate"
	"github.com/pdiddy/reference-engine/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a bibliography file into structured records",
	Long: `Parse splits the input file into entries and extracts structured fields
(authors, title, venue, volume, issue, pages, year, DOI) from each. No
network calls are made; fields the parser cannot identify stay empty.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", "bibitem", "input format: bibitem, bibtex, or plain")
	parseCmd.Flags().Bool("csl", false, "emit CSL-YAML instead of JSON")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	parsed := parse.File(string(data), formatFromFlag(cmd))
	recs := make([]*types.Record, len(parsed))
	for i := range parsed {
		recs[i] = &parsed[i]
	}
	fmt.Fprintf(os.Stderr, "parsed %d entries\n", len(recs))

	if csl, _ := cmd.Flags().GetBool("csl"); csl {
		return validate.FormatCSL(recs, os.Stdout)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
