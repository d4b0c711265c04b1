// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"io"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// FormatReport renders the plain-text validation report: summary counts,
// verification method breakdown, duplicates removed, corrections,
// rejected entries with reasons, and the processing log.
func FormatReport(res *Result, w io.Writer) {
	byDOI, byTitle, unverified := 0, 0, 0
	for _, rec := range res.Records {
		switch rec.Provenance {
		case types.VerifiedByDOI:
			byDOI++
		case types.VerifiedByTitle:
			byTitle++
		default:
			unverified++
		}
	}

	fmt.Fprintf(w, "reference validation report\n")
	fmt.Fprintf(w, "===========================\n\n")
	fmt.Fprintf(w, "entries:            %d\n", len(res.Records)+len(res.Rejected)+len(res.Duplicates))
	fmt.Fprintf(w, "corrected:          %d\n", len(res.Records))
	fmt.Fprintf(w, "  verified by doi:   %d\n", byDOI)
	fmt.Fprintf(w, "  verified by title: %d\n", byTitle)
	fmt.Fprintf(w, "  unverified:        %d\n", unverified)
	fmt.Fprintf(w, "rejected:           %d\n", len(res.Rejected))
	fmt.Fprintf(w, "duplicates removed: %d\n", len(res.Duplicates))
	fmt.Fprintf(w, "field corrections:  %d\n", len(res.Corrections))

	if len(res.Duplicates) > 0 {
		fmt.Fprintf(w, "\nduplicates:\n")
		for _, d := range res.Duplicates {
			fmt.Fprintf(w, "  dropped %s, kept %s (score %.2f, %s)\n", d.DroppedKey, d.KeptKey, d.Score, d.Reason)
		}
	}

	if len(res.Corrections) > 0 {
		fmt.Fprintf(w, "\ncorrections:\n")
		for _, c := range res.Corrections {
			if c.Before == "" {
				fmt.Fprintf(w, "  %s: %s added: %q\n", c.Key, c.Field, c.After)
			} else {
				fmt.Fprintf(w, "  %s: %s: %q -> %q\n", c.Key, c.Field, c.Before, c.After)
			}
		}
	}

	if len(res.Rejected) > 0 {
		fmt.Fprintf(w, "\nrejected:\n")
		for _, rec := range res.Rejected {
			fmt.Fprintf(w, "  %s: %s\n", rec.Key, rec.RejectReason)
		}
	}

	if len(res.Log) > 0 {
		fmt.Fprintf(w, "\nprocessing log:\n")
		for _, line := range res.Log {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
