package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubmed-expand/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EntrezConfig holds settings for the NCBI E-utilities clients.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI API key for a higher request budget.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email identifies the caller to NCBI per E-utilities usage policy.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// Tool is the tool name reported to NCBI (default "pubmed-expand").
	Tool string `json:"tool,omitempty" yaml:"tool,omitempty"`

	// RequestDelay is the minimum delay between consecutive E-utility
	// requests, shared across elink and efetch calls (default 500ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// FilterConfig holds content-classification settings. Pattern fields are
// regular expressions matched case-insensitively against title+abstract
// text; an empty pattern disables its rule.
type FilterConfig struct {
	// RequirePositive rejects candidates whose content does not match
	// PositivePattern.
	RequirePositive bool `json:"require_positive" yaml:"require_positive"`

	// AssemblyOnlyExclude rejects candidates matching AssemblyPattern
	// unless they also carry comparative evidence.
	AssemblyOnlyExclude bool `json:"assembly_only_exclude" yaml:"assembly_only_exclude"`

	// PositivePattern is the required on-topic pattern.
	PositivePattern string `json:"positive_pattern" yaml:"positive_pattern"`

	// NegativePattern rejects off-topic methods and platforms.
	NegativePattern string `json:"negative_pattern" yaml:"negative_pattern"`

	// ComparativePattern tags comparative-evidence candidates for the
	// scoring boost and the assembly-only exemption.
	ComparativePattern string `json:"comparative_pattern" yaml:"comparative_pattern"`

	// AssemblyPattern identifies assembly-focused work.
	AssemblyPattern string `json:"assembly_pattern" yaml:"assembly_pattern"`

	// ExcludedTypesPattern rejects by PubMed publication type
	// (e.g. reviews, editorials).
	ExcludedTypesPattern string `json:"excluded_types_pattern" yaml:"excluded_types_pattern"`

	// BatchSize is the number of candidates per metadata fetch (default 200).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// ScoringConfig holds the age-weighting and boost parameters.
type ScoringConfig struct {
	// AgeBeta is the maximum age penalty in [0,1] (default 0.4).
	AgeBeta float64 `json:"age_beta" yaml:"age_beta"`

	// AgeGamma is the age curve exponent (default 0.7).
	AgeGamma float64 `json:"age_gamma" yaml:"age_gamma"`

	// ComparativeBoost is the multiplier for comparative studies (default 1.15).
	ComparativeBoost float64 `json:"comparative_boost" yaml:"comparative_boost"`
}

// ExpandConfig groups all settings for one expansion run.
type ExpandConfig struct {
	Entrez  EntrezConfig  `json:"entrez" yaml:"entrez"`
	Filter  FilterConfig  `json:"filter" yaml:"filter"`
	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`

	// MinPMID excludes candidates older than this identifier (0 = no cutoff).
	MinPMID int64 `json:"min_pmid" yaml:"min_pmid"`

	// MaxSeeds limits how many seeds are expanded (0 = all); used for
	// bounded test runs.
	MaxSeeds int `json:"max_seeds" yaml:"max_seeds"`

	// Strict makes secondary anomalies (e.g. a candidate missing from a
	// successful metadata response) fatal instead of logged.
	Strict bool `json:"strict" yaml:"strict"`

	// OutputDir is the directory for threshold lists and the ranked table.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// CacheDir is the directory for the elink result cache ("" disables it).
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
}
