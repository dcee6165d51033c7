// Copyright Peter L. Morrell, 2026. All rights reserved.

package expand

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pmorrell/Plant-Selection/pkg/types"
)

// RunFile is the on-disk description of one expansion run: the curated seed
// list, the exclude list, the minimum-PMID cutoff, and optional filter and
// scoring overrides.
type RunFile struct {
	Seeds   []int64 `yaml:"seeds"`
	Exclude []int64 `yaml:"exclude,omitempty"`
	MinPMID int64   `yaml:"min_pmid,omitempty"`

	Filter  *FilterOverrides  `yaml:"filter,omitempty"`
	Scoring *ScoringOverrides `yaml:"scoring,omitempty"`
}

// FilterOverrides carries per-run filter settings. Pointer fields
// distinguish "unset" from an explicit false/zero.
type FilterOverrides struct {
	RequirePositive      *bool  `yaml:"require_positive,omitempty"`
	AssemblyOnlyExclude  *bool  `yaml:"assembly_only_exclude,omitempty"`
	PositivePattern      string `yaml:"positive_pattern,omitempty"`
	NegativePattern      string `yaml:"negative_pattern,omitempty"`
	ComparativePattern   string `yaml:"comparative_pattern,omitempty"`
	AssemblyPattern      string `yaml:"assembly_pattern,omitempty"`
	ExcludedTypesPattern string `yaml:"excluded_types_pattern,omitempty"`
	BatchSize            int    `yaml:"batch_size,omitempty"`
}

// Apply overlays the set fields onto cfg.
func (o *FilterOverrides) Apply(cfg *types.FilterConfig) {
	if o == nil {
		return
	}
	if o.RequirePositive != nil {
		cfg.RequirePositive = *o.RequirePositive
	}
	if o.AssemblyOnlyExclude != nil {
		cfg.AssemblyOnlyExclude = *o.AssemblyOnlyExclude
	}
	if o.PositivePattern != "" {
		cfg.PositivePattern = o.PositivePattern
	}
	if o.NegativePattern != "" {
		cfg.NegativePattern = o.NegativePattern
	}
	if o.ComparativePattern != "" {
		cfg.ComparativePattern = o.ComparativePattern
	}
	if o.AssemblyPattern != "" {
		cfg.AssemblyPattern = o.AssemblyPattern
	}
	if o.ExcludedTypesPattern != "" {
		cfg.ExcludedTypesPattern = o.ExcludedTypesPattern
	}
	if o.BatchSize > 0 {
		cfg.BatchSize = o.BatchSize
	}
}

// ScoringOverrides carries per-run scoring parameters.
type ScoringOverrides struct {
	AgeBeta          *float64 `yaml:"age_beta,omitempty"`
	AgeGamma         *float64 `yaml:"age_gamma,omitempty"`
	ComparativeBoost *float64 `yaml:"comparative_boost,omitempty"`
}

// Apply overlays the set fields onto cfg.
func (o *ScoringOverrides) Apply(cfg *types.ScoringConfig) {
	if o == nil {
		return
	}
	if o.AgeBeta != nil {
		cfg.AgeBeta = *o.AgeBeta
	}
	if o.AgeGamma != nil {
		cfg.AgeGamma = *o.AgeGamma
	}
	if o.ComparativeBoost != nil {
		cfg.ComparativeBoost = *o.ComparativeBoost
	}
}

// ReadRunFile loads and validates a run file. An empty seed list is a
// configuration error. Seeds and excludes are deduplicated preserving
// order; a PMID appearing in both lists is a configuration error.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}

	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file %s: %w", path, err)
	}

	rf.Seeds = dedupe(rf.Seeds)
	rf.Exclude = dedupe(rf.Exclude)

	if len(rf.Seeds) == 0 {
		return nil, fmt.Errorf("run file %s: seed list is empty", path)
	}
	excluded := make(map[int64]struct{}, len(rf.Exclude))
	for _, id := range rf.Exclude {
		excluded[id] = struct{}{}
	}
	for _, id := range rf.Seeds {
		if _, both := excluded[id]; both {
			return nil, fmt.Errorf("run file %s: PMID %d is both a seed and excluded", path, id)
		}
	}
	return &rf, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ResultFile records a completed run's parameters and tier summary next to
// the output files, so a results directory is self-describing.
type ResultFile struct {
	Timestamp      time.Time           `yaml:"timestamp"`
	SeedsProcessed int                 `yaml:"seeds_processed"`
	MinPMID        int64               `yaml:"min_pmid"`
	Scoring        types.ScoringConfig `yaml:"scoring"`
	Filter         resultFilter        `yaml:"filter"`
	Summary        Summary             `yaml:"summary"`
}

type resultFilter struct {
	RequirePositive     bool `yaml:"require_positive"`
	AssemblyOnlyExclude bool `yaml:"assembly_only_exclude"`
	BatchSize           int  `yaml:"batch_size"`
	DroppedBatches      int  `yaml:"dropped_batches"`
	Rejected            int  `yaml:"rejected"`
}

// WriteResultFile saves the run record as YAML.
func WriteResultFile(path string, cfg types.ExpandConfig, res *Result) error {
	rf := ResultFile{
		Timestamp:      time.Now(),
		SeedsProcessed: res.SeedsProcessed,
		MinPMID:        cfg.MinPMID,
		Scoring:        cfg.Scoring,
		Filter: resultFilter{
			RequirePositive:     cfg.Filter.RequirePositive,
			AssemblyOnlyExclude: cfg.Filter.AssemblyOnlyExclude,
			BatchSize:           cfg.Filter.BatchSize,
			DroppedBatches:      res.Classification.DroppedBatches,
			Rejected:            res.Classification.Rejected,
		},
		Summary: res.Summary,
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
