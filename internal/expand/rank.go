// Copyright Peter L. Morrell, 2026. All rights reserved.

package expand

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmorrell/Plant-Selection/pkg/types"
)

// Summary holds the confidence-tier breakdown of one run.
type Summary struct {
	// Total is the number of accepted candidates.
	Total int `yaml:"total"`

	// MaxRawScore is the highest raw score observed (0 when empty).
	MaxRawScore int `yaml:"max_raw_score"`

	// RecommendedThreshold is the heuristic high-confidence cutoff:
	// max(2, maxRawScore/10).
	RecommendedThreshold int `yaml:"recommended_threshold"`

	// Distribution maps raw score to candidate count.
	Distribution map[int]int `yaml:"distribution"`

	// High counts candidates with rawScore >= RecommendedThreshold.
	High int `yaml:"high_confidence"`

	// Medium counts candidates with 3 <= rawScore < RecommendedThreshold.
	Medium int `yaml:"medium_confidence"`

	// Low counts candidates with rawScore of 1 or 2.
	Low int `yaml:"low_confidence"`
}

// MaxRawScore returns the highest raw score among candidates, 0 when empty.
func MaxRawScore(candidates map[int64]*types.Candidate) int {
	max := 0
	for _, c := range candidates {
		if c.RawScore() > max {
			max = c.RawScore()
		}
	}
	return max
}

// RecommendedThreshold derives the high-confidence cutoff from the score
// distribution: a tenth of the maximum raw score, floored, never below 2.
func RecommendedThreshold(maxRawScore int) int {
	t := maxRawScore / 10
	if t < 2 {
		t = 2
	}
	return t
}

// Thresholds returns the distinct threshold values to emit list files for:
// {2, 3, 5, 10, recommended}, keeping only values not exceeding maxRawScore,
// in ascending order.
func Thresholds(maxRawScore int) []int {
	set := map[int]struct{}{}
	for _, t := range []int{2, 3, 5, 10, RecommendedThreshold(maxRawScore)} {
		if t <= maxRawScore {
			set[t] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// AtThreshold returns the PMIDs of candidates with rawScore >= threshold, in
// ascending numeric order.
func AtThreshold(candidates map[int64]*types.Candidate, threshold int) []int64 {
	var pmids []int64
	for pmid, c := range candidates {
		if c.RawScore() >= threshold {
			pmids = append(pmids, pmid)
		}
	}
	sort.Slice(pmids, func(i, j int) bool { return pmids[i] < pmids[j] })
	return pmids
}

// Rank returns all candidates sorted by weighted score descending, ties
// broken by raw score descending, then PMID ascending.
func Rank(candidates map[int64]*types.Candidate) []*types.Candidate {
	ranked := make([]*types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		if a.RawScore() != b.RawScore() {
			return a.RawScore() > b.RawScore()
		}
		return a.PMID < b.PMID
	})
	return ranked
}

// BuildSummary computes the confidence tiers and score distribution.
func BuildSummary(candidates map[int64]*types.Candidate) Summary {
	s := Summary{
		Total:        len(candidates),
		Distribution: make(map[int]int),
	}
	s.MaxRawScore = MaxRawScore(candidates)
	s.RecommendedThreshold = RecommendedThreshold(s.MaxRawScore)

	for _, c := range candidates {
		raw := c.RawScore()
		s.Distribution[raw]++
		switch {
		case raw >= s.RecommendedThreshold:
			s.High++
		case raw >= 3:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}

// Write renders the summary as the run's console report.
func (s Summary) Write(w io.Writer) {
	fmt.Fprintln(w, "=== RESULTS ===")
	fmt.Fprintf(w, "Total unique candidate papers: %d\n", s.Total)
	fmt.Fprintln(w, "Score distribution (seeds per candidate):")

	scores := make([]int, 0, len(s.Distribution))
	for score := range s.Distribution {
		scores = append(scores, score)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))
	for _, score := range scores {
		fmt.Fprintf(w, "  %3d seeds: %4d candidates\n", score, s.Distribution[score])
	}

	fmt.Fprintf(w, "Maximum score: %d\n", s.MaxRawScore)
	fmt.Fprintf(w, "Recommended threshold: >=%d\n", s.RecommendedThreshold)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== RECOMMENDATIONS ===")
	fmt.Fprintf(w, "High confidence (>=%d seeds): %d papers\n", s.RecommendedThreshold, s.High)
	fmt.Fprintf(w, "Medium confidence (3-%d seeds): %d papers\n", s.RecommendedThreshold-1, s.Medium)
	fmt.Fprintf(w, "Low confidence (1-2 seeds): %d papers\n", s.Low)
}

// WriteThresholdFiles writes candidates_min<N>_seeds.txt for each threshold
// in the generated set: one ascending PMID per line. It returns the paths
// written.
func WriteThresholdFiles(dir string, candidates map[int64]*types.Candidate, w io.Writer) ([]string, error) {
	maxRaw := MaxRawScore(candidates)

	var paths []string
	for _, threshold := range Thresholds(maxRaw) {
		pmids := AtThreshold(candidates, threshold)

		var b strings.Builder
		for _, pmid := range pmids {
			fmt.Fprintf(&b, "%d\n", pmid)
		}

		name := fmt.Sprintf("candidates_min%d_seeds.txt", threshold)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", name, err)
		}
		paths = append(paths, path)
		fmt.Fprintf(w, "  %s: %d candidates (>=%d seeds)\n", name, len(pmids), threshold)
	}
	return paths, nil
}

// WriteRankedTable writes the full ranked table: a tab-separated header row
// then one row per candidate with PMID, raw score, weighted score (six
// decimal places), and comma-joined contributing seeds.
func WriteRankedTable(path string, ranked []*types.Candidate) error {
	var b strings.Builder
	b.WriteString("PMID\tScore\tWeightedScore\tSeeds\n")

	for _, c := range ranked {
		seeds := c.SeedList()
		parts := make([]string, len(seeds))
		for i, s := range seeds {
			parts[i] = fmt.Sprintf("%d", s)
		}
		fmt.Fprintf(&b, "%d\t%d\t%.6f\t%s\n", c.PMID, c.RawScore(), c.WeightedScore, strings.Join(parts, ","))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing ranked table: %w", err)
	}
	return nil
}

// WriteOutputs writes all run artifacts into dir: the threshold list files,
// the ranked table, and a YAML result summary.
func WriteOutputs(dir string, res *Result, cfg types.ExpandConfig, w io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	fmt.Fprintln(w, "=== OUTPUT FILES ===")
	if _, err := WriteThresholdFiles(dir, res.Candidates, w); err != nil {
		return err
	}

	ranked := Rank(res.Candidates)
	tablePath := filepath.Join(dir, "candidates_ranked.txt")
	if err := WriteRankedTable(tablePath, ranked); err != nil {
		return err
	}
	fmt.Fprintf(w, "  candidates_ranked.txt: all %d candidates with weighted and raw scores\n", len(ranked))

	if err := WriteResultFile(filepath.Join(dir, "expansion.yaml"), cfg, res); err != nil {
		return err
	}
	return nil
}
