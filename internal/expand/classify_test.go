// Copyright Peter L. Morrell, 2026. All rights reserved.

package expand

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pmorrell/Plant-Selection/pkg/types"
)

// fixedMetadata serves a fixed record set; PMIDs not in the map are simply
// absent from the response.
type fixedMetadata struct {
	records map[int64]types.ArticleSummary
}

func (f *fixedMetadata) FetchBatch(_ context.Context, pmids []int64) (map[int64]types.ArticleSummary, error) {
	out := make(map[int64]types.ArticleSummary)
	for _, pmid := range pmids {
		if rec, ok := f.records[pmid]; ok {
			out[pmid] = rec
		}
	}
	return out, nil
}

func candidateMap(pmids ...int64) map[int64]*types.Candidate {
	m := make(map[int64]*types.Candidate)
	for _, pmid := range pmids {
		c := types.NewCandidate(pmid)
		c.AddSeed(1)
		m[pmid] = c
	}
	return m
}

func mustClassifier(t *testing.T, cfg types.FilterConfig) *Classifier {
	t.Helper()
	cl, err := NewClassifier(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return cl
}

// --- rejection rules ---

func TestRejectReasonPriorityOrder(t *testing.T) {
	cl := mustClassifier(t, DefaultFilterConfig())

	tests := []struct {
		name string
		rec  types.ArticleSummary
		want string
	}{
		{
			name: "accepted on-topic paper",
			rec: types.ArticleSummary{
				Title:    "Whole-genome resequencing reveals variants",
				Abstract: "Population diversity in barley.",
				PubTypes: []string{"Journal Article"},
			},
			want: "",
		},
		{
			name: "assembly without comparative evidence",
			rec: types.ArticleSummary{
				Title:    "A chromosome-level genome assembly of wheat",
				Abstract: "We present a de novo assembly using whole-genome sequencing.",
				PubTypes: []string{"Journal Article"},
			},
			want: "assembly-only",
		},
		{
			name: "review publication type",
			rec: types.ArticleSummary{
				Title:    "Whole-genome resequencing approaches",
				Abstract: "Variant discovery in populations.",
				PubTypes: []string{"Review", "Journal Article"},
			},
			want: "publication type",
		},
		{
			name: "negative keyword",
			rec: types.ArticleSummary{
				Title:    "Whole-genome diversity from a SNP array",
				Abstract: "Population variants genotyped on microarray.",
				PubTypes: []string{"Journal Article"},
			},
			want: "negative keyword",
		},
		{
			name: "missing positive keyword",
			rec: types.ArticleSummary{
				Title:    "Phenotypic variation in landraces",
				Abstract: "Population diversity surveyed in the field.",
				PubTypes: []string{"Journal Article"},
			},
			want: "missing positive keyword",
		},
		{
			name: "case-insensitive matching",
			rec: types.ArticleSummary{
				Title:    "WHOLE-GENOME RESEQUENCING of maize VARIANTS",
				Abstract: "POPULATION analysis.",
				PubTypes: []string{"Journal Article"},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comparative := cl.comparative.MatchString(tt.rec.Content())
			if got := cl.rejectReason(tt.rec, comparative); got != tt.want {
				t.Errorf("rejectReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssemblyWithComparativeEvidenceKept(t *testing.T) {
	cl := mustClassifier(t, DefaultFilterConfig())

	rec := types.ArticleSummary{
		Title:    "Genome assembly and whole-genome resequencing of a pangenome",
		Abstract: "Structural variants across a diverse population.",
		PubTypes: []string{"Journal Article"},
	}
	if got := cl.rejectReason(rec, true); got != "" {
		t.Errorf("rejectReason() = %q, want accepted", got)
	}
}

func TestAssemblyRuleDisabled(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.AssemblyOnlyExclude = false
	cl := mustClassifier(t, cfg)

	rec := types.ArticleSummary{
		Title:    "A de novo genome assembly from whole-genome sequencing",
		Abstract: "",
		PubTypes: []string{"Journal Article"},
	}
	if got := cl.rejectReason(rec, false); got != "" {
		t.Errorf("rejectReason() = %q, want accepted with assembly rule disabled", got)
	}
}

func TestRequirePositiveDisabled(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.RequirePositive = false
	cl := mustClassifier(t, cfg)

	rec := types.ArticleSummary{
		Title:    "Population diversity in wild barley",
		Abstract: "Variant analysis.",
		PubTypes: []string{"Journal Article"},
	}
	if got := cl.rejectReason(rec, true); got != "" {
		t.Errorf("rejectReason() = %q, want accepted without positive requirement", got)
	}
}

func TestEmptyPatternDisablesRule(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.NegativePattern = ""
	cl := mustClassifier(t, cfg)

	rec := types.ArticleSummary{
		Title:    "Whole-genome resequencing with a transcriptome companion",
		Abstract: "RNA-seq alongside variants in a population.",
		PubTypes: []string{"Journal Article"},
	}
	if got := cl.rejectReason(rec, true); got != "" {
		t.Errorf("rejectReason() = %q, want accepted with negative rule disabled", got)
	}
}

func TestNewClassifierBadPattern(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.PositivePattern = "[unclosed"
	if _, err := NewClassifier(cfg); err == nil {
		t.Fatal("expected compile error for malformed pattern")
	}
}

// --- Apply ---

func TestApplyTagsComparativeBeforeRejection(t *testing.T) {
	// The paper is rejected (review) but carries comparative evidence; the
	// flag is still counted even though the candidate is discarded.
	cl := mustClassifier(t, DefaultFilterConfig())
	cands := candidateMap(100)
	meta := &fixedMetadata{records: map[int64]types.ArticleSummary{
		100: {
			PMID:     100,
			Title:    "Whole-genome resequencing and population variants reviewed",
			Abstract: "Diversity across accessions.",
			PubTypes: []string{"Review"},
		},
	}}

	stats, err := cl.Apply(context.Background(), cands, meta, false, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(cands) != 0 {
		t.Error("review candidate should have been rejected")
	}
	if stats.Comparative != 1 {
		t.Errorf("Comparative = %d, want 1 (recorded before rejection)", stats.Comparative)
	}
	if stats.ByReason["publication type"] != 1 {
		t.Errorf("ByReason = %v, want publication type rejection", stats.ByReason)
	}
}

func TestApplyRejectionDeletesCandidate(t *testing.T) {
	cl := mustClassifier(t, DefaultFilterConfig())
	cands := candidateMap(100, 200)
	meta := &fixedMetadata{records: map[int64]types.ArticleSummary{
		100: {
			PMID:     100,
			Title:    "Whole-genome resequencing of landraces",
			Abstract: "Population variants.",
			PubTypes: []string{"Journal Article"},
		},
		200: {
			PMID:     200,
			Title:    "Microsatellite survey",
			Abstract: "SSR markers only.",
			PubTypes: []string{"Journal Article"},
		},
	}}

	stats, err := cl.Apply(context.Background(), cands, meta, false, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if _, ok := cands[200]; ok {
		t.Error("candidate 200 should be deleted, not flagged")
	}
	if _, ok := cands[100]; !ok {
		t.Error("candidate 100 should survive")
	}
	if stats.Rejected != 1 || stats.Fetched != 2 {
		t.Errorf("stats = %+v, want Rejected=1 Fetched=2", stats)
	}
}

func TestApplyMissingRecordRelaxed(t *testing.T) {
	cl := mustClassifier(t, DefaultFilterConfig())
	cands := candidateMap(100, 200)
	meta := &fixedMetadata{records: map[int64]types.ArticleSummary{
		100: {
			PMID:     100,
			Title:    "Whole-genome resequencing of landraces",
			Abstract: "Population variants.",
			PubTypes: []string{"Journal Article"},
		},
	}}

	var log bytes.Buffer
	stats, err := cl.Apply(context.Background(), cands, meta, false, &log)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if _, ok := cands[200]; !ok {
		t.Error("candidate without a record should be kept unclassified in relaxed mode")
	}
	if stats.Unclassified != 1 {
		t.Errorf("Unclassified = %d, want 1", stats.Unclassified)
	}
	if !strings.Contains(log.String(), "no metadata record for candidate 200") {
		t.Errorf("expected warning, got:\n%s", log.String())
	}
}

func TestApplyMissingRecordStrict(t *testing.T) {
	cl := mustClassifier(t, DefaultFilterConfig())
	cands := candidateMap(100, 200)
	meta := &fixedMetadata{records: map[int64]types.ArticleSummary{
		100: {
			PMID:     100,
			Title:    "Whole-genome resequencing of landraces",
			Abstract: "Population variants.",
			PubTypes: []string{"Journal Article"},
		},
	}}

	_, err := cl.Apply(context.Background(), cands, meta, true, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "candidate 200") {
		t.Fatalf("expected strict-mode error naming candidate 200, got %v", err)
	}
}

func TestApplyEmptyResponseDropsBatch(t *testing.T) {
	cl := mustClassifier(t, DefaultFilterConfig())
	cands := candidateMap(100, 200)
	meta := &fixedMetadata{records: map[int64]types.ArticleSummary{}}

	var log bytes.Buffer
	stats, err := cl.Apply(context.Background(), cands, meta, false, &log)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(cands) != 0 {
		t.Error("an empty response should drop the whole batch")
	}
	if stats.DroppedBatches != 1 || stats.DroppedCandidates != 2 {
		t.Errorf("stats = %+v, want one dropped batch of 2", stats)
	}
	if !strings.Contains(log.String(), "returned no data") {
		t.Errorf("expected no-data warning, got:\n%s", log.String())
	}
}
