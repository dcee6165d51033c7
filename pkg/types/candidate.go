// Copyright Peter L. Morrell, 2026. All rights reserved.

// Package types defines shared data structures for the pubmed-expand pipeline.
package types

import "sort"

// ArticleSummary holds the metadata fetched for one PubMed article: title,
// abstract, and publication types. This is the input to content filtering.
type ArticleSummary struct {
	// PMID is the PubMed identifier of the article.
	PMID int64 `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the article abstract, with multiple sections joined by spaces.
	Abstract string `json:"abstract" yaml:"abstract"`

	// PubTypes lists the PubMed publication types (e.g. "Journal Article", "Review").
	PubTypes []string `json:"pub_types" yaml:"pub_types"`
}

// Content returns the text the content filters match against: title and
// abstract joined by a single space.
func (a ArticleSummary) Content() string {
	return a.Title + " " + a.Abstract
}

// Candidate is an article discovered through related-article expansion.
// It records which seed PMIDs referenced it; the raw score is the size of
// that set and only grows during aggregation.
type Candidate struct {
	// PMID is the candidate's PubMed identifier.
	PMID int64

	// Seeds is the set of seed PMIDs whose related-article lists include
	// this candidate. Re-adding a present seed is a no-op, so duplicate
	// entries within one relatedness response are counted once.
	Seeds map[int64]struct{}

	// WeightedScore is the age-adjusted score. Zero until scoring runs.
	WeightedScore float64

	// Comparative is true when the title/abstract matched the
	// comparative-evidence pattern (population, variant, or diversity work).
	Comparative bool
}

// NewCandidate returns a Candidate with an empty seed set.
func NewCandidate(pmid int64) *Candidate {
	return &Candidate{PMID: pmid, Seeds: make(map[int64]struct{})}
}

// AddSeed records that seed's related-article list includes this candidate.
func (c *Candidate) AddSeed(seed int64) {
	c.Seeds[seed] = struct{}{}
}

// RawScore is the number of distinct seeds referencing this candidate.
func (c *Candidate) RawScore() int {
	return len(c.Seeds)
}

// SeedList returns the referencing seeds in ascending PMID order.
func (c *Candidate) SeedList() []int64 {
	seeds := make([]int64, 0, len(c.Seeds))
	for s := range c.Seeds {
		seeds = append(seeds, s)
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
	return seeds
}
