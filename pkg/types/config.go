// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "reference-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RegistryConfig holds settings for the bibliographic registry client.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline"`

	// Mailto is an email address sent with registry requests for polite-pool
	// access. Optional.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`

	// PlusToken is a Crossref Plus API token for subscriber access.
	// Optional.
	PlusToken string `json:"plus_token,omitempty" yaml:"plus_token,omitempty"`

	// MinInterval is the minimum spacing between consecutive registry calls.
	// All lookups and searches in a job share one limiter enforcing this
	// interval (default 200ms).
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// MaxRetries bounds retry attempts for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// SearchRows is the number of candidates requested per title search
	// (default 10).
	SearchRows int `json:"search_rows" yaml:"search_rows"`

	// CachePath is the path of the SQLite lookup cache. Empty disables
	// caching.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty"`
}

// ValidationConfig holds the caller-facing options for a validation job.
type ValidationConfig struct {
	// CheckFormat enables local author/journal format normalization before
	// verification.
	CheckFormat bool `json:"check_format" yaml:"check_format"`

	// CheckSpelling enables the academic misspelling correction pass on
	// titles.
	CheckSpelling bool `json:"check_spelling" yaml:"check_spelling"`

	// CheckDuplicates enables the pairwise dedup pass over the batch.
	CheckDuplicates bool `json:"check_duplicates" yaml:"check_duplicates"`

	// VerifyPapers enables registry verification and correction.
	VerifyPapers bool `json:"verify_papers" yaml:"verify_papers"`

	// Workers bounds concurrent verifications (default 4). All workers
	// share the registry rate limiter, so external throughput stays capped
	// regardless of this value.
	Workers int `json:"workers" yaml:"workers"`

	// Timeout bounds the whole batch job. Zero means no limit. On expiry,
	// in-flight entries are rejected with reason "timeout" and completed
	// entries are kept.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	Registry RegistryConfig `json:"registry" yaml:"registry"`
}

// DefaultValidationConfig returns a ValidationConfig with every check
// enabled and conservative registry settings.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		CheckFormat:     true,
		CheckSpelling:   true,
		CheckDuplicates: true,
		VerifyPapers:    true,
		Workers:         4,
		Registry: RegistryConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: "reference-engine/0.1",
			},
			MinInterval: 200 * time.Millisecond,
			MaxRetries:  3,
			SearchRows:  10,
		},
	}
}
