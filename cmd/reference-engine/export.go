package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reference-engine/internal/validate"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Validate a bibliography and export it as CSL-YAML",
	Long: `Export runs the validation pipeline and writes the corrected records as
CSL-YAML to stdout, for consumption by Pandoc or external citation
formatters. Rejected entries are listed on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "bibitem", "input format: bibitem, bibtex, or plain")
	exportCmd.Flags().Bool("no-verify", false, "skip registry verification")
	exportCmd.Flags().Bool("no-dedupe", false, "skip duplicate removal")
	exportCmd.Flags().Bool("no-spelling", false, "skip the spelling correction pass")
	exportCmd.Flags().Bool("no-format", false, "skip author/journal format normalization")
	exportCmd.Flags().Int("workers", 0, "concurrent verifications (default 4)")
	exportCmd.Flags().Duration("timeout", 0, "overall batch deadline (default none)")
	exportCmd.Flags().String("cache", "", "path to a SQLite registry lookup cache")
	exportCmd.Flags().String("mailto", "", "email for CrossRef polite-pool access")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	cfg := configFromFlags(cmd)
	engine, cleanup, err := buildEngine(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res := engine.RunFile(cmd.Context(), string(data), formatFromFlag(cmd), cfg, os.Stderr)
	for _, rec := range res.Rejected {
		fmt.Fprintf(os.Stderr, "rejected %s: %s\n", rec.Key, rec.RejectReason)
	}
	return validate.FormatCSL(res.Records, os.Stdout)
}
