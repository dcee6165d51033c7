// Copyright Peter L. Morrell, 2026. All rights reserved.

package expand

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/pmorrell/Plant-Selection/pkg/types"
)

// Default classification patterns, tuned for whole-genome resequencing
// studies in plant genetics. All are matched case-insensitively against
// title+abstract text (publication types for the excluded-types pattern).
const (
	DefaultPositivePattern = `whole[\s\-]?genome|WGS|resequenc`

	DefaultNegativePattern = `0K-exome|targeted|amplicon|panel|GBS|genotyping(\s+by\s+sequencing)?|GenomeStudio|SNP([\s\-]?array)?|microarray|Infinium|Axiom|expression|transcriptome|RNA[\s\-]?seq|mRNA|SSR(s)?|microsatellite|RAD[\s\-]?seq|ddRAD|SLAF|reduced\s+representation|capture|hybrid[\s\-]?capture|chloroplast|mitochondri|mitochondrial\s+genome|plastid|plastome|mitogenome`

	DefaultComparativePattern = `variant|polymorphism|SNP|indel|SV|structural\s+variant|copy\s+number|CNV|haplotype|diversity|population|comparative|resequenc|association|GWAS|selection|adaptation|introgression|domestication|pangenome|pan[\s\-]?genome|phylogeny|evolution`

	DefaultAssemblyPattern = `(de[\s\-]?novo\s+)?assembly|genome\s+assembly`

	DefaultExcludedTypesPattern = `Review|Editorial|Letter|Meta-Analysis|News|Comment`
)

const defaultBatchSize = 200

// DefaultFilterConfig returns the stock filter settings.
func DefaultFilterConfig() types.FilterConfig {
	return types.FilterConfig{
		RequirePositive:      true,
		AssemblyOnlyExclude:  true,
		PositivePattern:      DefaultPositivePattern,
		NegativePattern:      DefaultNegativePattern,
		ComparativePattern:   DefaultComparativePattern,
		AssemblyPattern:      DefaultAssemblyPattern,
		ExcludedTypesPattern: DefaultExcludedTypesPattern,
		BatchSize:            defaultBatchSize,
	}
}

// Classifier applies the content rules to candidates using fetched article
// metadata. Build one with NewClassifier; pattern compilation errors are
// configuration errors and surface before any network call.
type Classifier struct {
	requirePositive bool
	assemblyOnly    bool
	batchSize       int

	positive    *regexp.Regexp
	negative    *regexp.Regexp
	comparative *regexp.Regexp
	assembly    *regexp.Regexp
	exclTypes   *regexp.Regexp
}

// ClassifyStats records what classification did to the candidate map.
type ClassifyStats struct {
	// Fetched is the number of candidates with a metadata record.
	Fetched int

	// Rejected is the number of candidates removed by a content rule.
	Rejected int

	// DroppedBatches counts whole batches lost to fetch failures.
	DroppedBatches int

	// DroppedCandidates counts candidates lost with those batches.
	DroppedCandidates int

	// Unclassified counts candidates kept without a metadata record.
	Unclassified int

	// Comparative counts candidates tagged with comparative evidence,
	// including ones later rejected.
	Comparative int

	// ByReason breaks Rejected down by rule name.
	ByReason map[string]int
}

// NewClassifier compiles the configured patterns. An empty pattern disables
// its rule; a malformed one is a fatal configuration error.
func NewClassifier(cfg types.FilterConfig) (*Classifier, error) {
	cl := &Classifier{
		requirePositive: cfg.RequirePositive,
		assemblyOnly:    cfg.AssemblyOnlyExclude,
		batchSize:       cfg.BatchSize,
	}
	if cl.batchSize <= 0 {
		cl.batchSize = defaultBatchSize
	}

	for _, p := range []struct {
		name    string
		pattern string
		dst     **regexp.Regexp
	}{
		{"positive", cfg.PositivePattern, &cl.positive},
		{"negative", cfg.NegativePattern, &cl.negative},
		{"comparative", cfg.ComparativePattern, &cl.comparative},
		{"assembly", cfg.AssemblyPattern, &cl.assembly},
		{"excluded types", cfg.ExcludedTypesPattern, &cl.exclTypes},
	} {
		if p.pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p.pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern: %w", p.name, err)
		}
		*p.dst = re
	}
	return cl, nil
}

// Apply fetches metadata for all candidates in fixed-size batches and
// deletes rejected candidates from the map. A batch whose fetch fails or
// returns no data is dropped entirely: every candidate in it is removed and
// a warning logged, but the run continues. A candidate missing from an
// otherwise successful response is kept unclassified, or is an error when
// strict is set.
func (cl *Classifier) Apply(ctx context.Context, candidates map[int64]*types.Candidate, svc MetadataService, strict bool, w io.Writer) (ClassifyStats, error) {
	stats := ClassifyStats{ByReason: make(map[string]int)}

	pmids := make([]int64, 0, len(candidates))
	for pmid := range candidates {
		pmids = append(pmids, pmid)
	}
	sort.Slice(pmids, func(i, j int) bool { return pmids[i] < pmids[j] })

	for start := 0; start < len(pmids); start += cl.batchSize {
		end := start + cl.batchSize
		if end > len(pmids) {
			end = len(pmids)
		}
		batch := pmids[start:end]
		batchNo := start/cl.batchSize + 1

		records, err := svc.FetchBatch(ctx, batch)
		if err != nil || len(records) == 0 {
			for _, pmid := range batch {
				delete(candidates, pmid)
			}
			stats.DroppedBatches++
			stats.DroppedCandidates += len(batch)
			if err != nil {
				fmt.Fprintf(w, "warning: metadata fetch failed for batch %d (%d candidates dropped): %v\n",
					batchNo, len(batch), err)
			} else {
				fmt.Fprintf(w, "warning: metadata fetch returned no data for batch %d (%d candidates dropped)\n",
					batchNo, len(batch))
			}
			continue
		}

		for _, pmid := range batch {
			rec, ok := records[pmid]
			if !ok {
				if strict {
					return stats, fmt.Errorf("no metadata record for candidate %d in batch %d", pmid, batchNo)
				}
				fmt.Fprintf(w, "warning: no metadata record for candidate %d, kept unclassified\n", pmid)
				stats.Unclassified++
				continue
			}
			stats.Fetched++

			c := candidates[pmid]

			// The comparative flag is recorded before any rejection so the
			// assembly-only rule can consult it.
			if cl.comparative != nil && cl.comparative.MatchString(rec.Content()) {
				c.Comparative = true
				stats.Comparative++
			}

			if reason := cl.rejectReason(rec, c.Comparative); reason != "" {
				delete(candidates, pmid)
				stats.Rejected++
				stats.ByReason[reason]++
			}
		}
	}
	return stats, nil
}

// rejectReason evaluates the rejection rules in priority order and returns
// the name of the first that fires, or "" when the candidate is accepted.
func (cl *Classifier) rejectReason(rec types.ArticleSummary, comparative bool) string {
	content := rec.Content()

	if cl.assemblyOnly && cl.assembly != nil && cl.assembly.MatchString(content) && !comparative {
		return "assembly-only"
	}
	if cl.exclTypes != nil && len(rec.PubTypes) > 0 &&
		cl.exclTypes.MatchString(strings.Join(rec.PubTypes, ";")) {
		return "publication type"
	}
	if cl.negative != nil && cl.negative.MatchString(content) {
		return "negative keyword"
	}
	if cl.requirePositive && cl.positive != nil && !cl.positive.MatchString(content) {
		return "missing positive keyword"
	}
	return ""
}
