package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/reference-engine/internal/cache"
	"github.com/pdiddy/reference-engine/internal/registry"
	"github.com/pdiddy/reference-engine/internal/validate"
	"github.com/pdiddy/reference-engine/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate and correct a bibliography file",
	Long: `Validate parses every entry in the input file, verifies each against the
CrossRef registry (DOI first, title search as fallback), corrects fields
from the matched registry record, removes duplicates, and assigns
citation keys. Unverifiable entries are reported with a reason, never
silently dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("format", "bibitem", "input format: bibitem, bibtex, or plain")
	validateCmd.Flags().Bool("no-verify", false, "skip registry verification")
	validateCmd.Flags().Bool("no-dedupe", false, "skip duplicate removal")
	validateCmd.Flags().Bool("no-spelling", false, "skip the spelling correction pass")
	validateCmd.Flags().Bool("no-format", false, "skip author/journal format normalization")
	validateCmd.Flags().Int("workers", 0, "concurrent verifications (default 4)")
	validateCmd.Flags().Duration("timeout", 0, "overall batch deadline (default none)")
	validateCmd.Flags().Bool("json", false, "emit the full result as JSON instead of a report")
	validateCmd.Flags().String("report", "", "write the plain-text report to a file")
	validateCmd.Flags().String("cache", "", "path to a SQLite registry lookup cache")
	validateCmd.Flags().String("mailto", "", "email for CrossRef polite-pool access")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	cfg := configFromFlags(cmd)
	format := formatFromFlag(cmd)

	engine, cleanup, err := buildEngine(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res := engine.RunFile(cmd.Context(), string(data), format, cfg, os.Stderr)

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		validate.FormatReport(res, os.Stdout)
	}

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		f, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		validate.FormatReport(res, f)
	}
	return nil
}

// configFromFlags builds the job config from defaults, the viper config
// file, and command flags, in increasing precedence.
func configFromFlags(cmd *cobra.Command) types.ValidationConfig {
	cfg := types.DefaultValidationConfig()

	if viper.IsSet("workers") {
		cfg.Workers = viper.GetInt("workers")
	}
	if viper.IsSet("registry.min_interval") {
		cfg.Registry.MinInterval = viper.GetDuration("registry.min_interval")
	}
	if viper.IsSet("registry.timeout") {
		cfg.Registry.Timeout = viper.GetDuration("registry.timeout")
	}

	if v, _ := cmd.Flags().GetBool("no-verify"); v {
		cfg.VerifyPapers = false
	}
	if v, _ := cmd.Flags().GetBool("no-dedupe"); v {
		cfg.CheckDuplicates = false
	}
	if v, _ := cmd.Flags().GetBool("no-spelling"); v {
		cfg.CheckSpelling = false
	}
	if v, _ := cmd.Flags().GetBool("no-format"); v {
		cfg.CheckFormat = false
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Workers = workers
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	if path, _ := cmd.Flags().GetString("cache"); path != "" {
		cfg.Registry.CachePath = path
	}

	mailto, _ := cmd.Flags().GetString("mailto")
	cfg.Registry.Mailto = secretDefault("crossref-mailto", mailto)
	cfg.Registry.PlusToken = secretDefault("crossref-plus-token", "")

	return cfg
}

func formatFromFlag(cmd *cobra.Command) types.EntryFormat {
	switch f, _ := cmd.Flags().GetString("format"); f {
	case "bibtex":
		return types.FormatBibTeX
	case "plain":
		return types.FormatPlain
	default:
		return types.FormatBibitem
	}
}

// buildEngine wires the registry client (and optional lookup cache) into
// a validation engine. The cleanup func closes the cache.
func buildEngine(cmd *cobra.Command, cfg types.ValidationConfig) (*validate.Engine, func(), error) {
	cleanup := func() {}
	if noVerify, _ := cmd.Flags().GetBool("no-verify"); noVerify {
		return validate.New(nil), cleanup, nil
	}

	opts := []registry.Option{}
	if cfg.Registry.CachePath != "" {
		store, err := cache.Open(cfg.Registry.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening lookup cache: %w", err)
		}
		opts = append(opts, registry.WithCache(store))
		cleanup = func() { store.Close() }
	}

	client := registry.NewClient(cfg.Registry, opts...)
	return validate.New(client), cleanup, nil
}
