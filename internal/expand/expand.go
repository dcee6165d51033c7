// Copyright Peter L. Morrell, 2026. All rights reserved.

// Package expand implements the candidate discovery, filtering, and ranking
// pipeline: seed-driven related-article expansion, set-based exclusion,
// batched content classification, and weighted scoring with threshold
// outputs.
package expand

import (
	"context"
	"fmt"
	"io"

	"github.com/pmorrell/Plant-Selection/pkg/types"
)

// RelatednessService looks up the articles related to one PMID. A lookup
// failure is degraded by the pipeline to an empty result for that seed.
type RelatednessService interface {
	Related(ctx context.Context, pmid int64) ([]int64, error)
}

// MetadataService fetches title/abstract/publication-type records for a
// batch of PMIDs. A failure drops the whole batch.
type MetadataService interface {
	FetchBatch(ctx context.Context, pmids []int64) (map[int64]types.ArticleSummary, error)
}

// RelatedCache stores relatedness lookups across runs. Implemented by the
// cache package; nil disables caching.
type RelatedCache interface {
	Get(seed int64) ([]int64, bool, error)
	Put(seed int64, pmids []int64) error
}

// Pipeline runs one expansion end to end. The candidate map is owned by the
// pipeline for the run's duration; stages mutate it in sequence and the
// Result exposes it read-only.
type Pipeline struct {
	Related  RelatednessService
	Metadata MetadataService
	Cache    RelatedCache

	Seeds   []int64
	Exclude []int64
	Config  types.ExpandConfig

	// Log receives progress and warnings.
	Log io.Writer
}

// Result holds the surviving candidates and run statistics.
type Result struct {
	Candidates     map[int64]*types.Candidate
	SeedsProcessed int
	Classification ClassifyStats
	Summary        Summary
}

// Run executes discovery, classification, scoring, and summary building.
// Configuration problems (no seeds, malformed patterns) fail before any
// external call; a completely empty discovery result is the one fatal
// runtime failure.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if len(p.Seeds) == 0 {
		return nil, fmt.Errorf("seed list is empty")
	}

	classifier, err := NewClassifier(p.Config.Filter)
	if err != nil {
		return nil, err
	}

	candidates, processed, err := p.discover(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(p.Log, "Found %d unique candidates before content filtering\n", len(candidates))

	stats, err := classifier.Apply(ctx, candidates, p.Metadata, p.Config.Strict, p.Log)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.Log, "Content filter removed %d candidates; %d batches dropped\n",
		stats.Rejected, stats.DroppedBatches)

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates survived content filtering")
	}

	Weight(candidates, p.Config.Scoring)

	return &Result{
		Candidates:     candidates,
		SeedsProcessed: processed,
		Classification: stats,
		Summary:        BuildSummary(candidates),
	}, nil
}

// discover expands every seed through the relatedness service and
// aggregates candidates, applying the seed-set, exclude-set, and minimum-ID
// rules. Per-seed lookup failures are logged and skipped; only an entirely
// empty candidate map is fatal.
func (p *Pipeline) discover(ctx context.Context) (map[int64]*types.Candidate, int, error) {
	seeds := p.Seeds
	if p.Config.MaxSeeds > 0 && len(seeds) > p.Config.MaxSeeds {
		seeds = seeds[:p.Config.MaxSeeds]
	}

	seedSet := toSet(p.Seeds)
	excludeSet := toSet(p.Exclude)

	fmt.Fprintf(p.Log, "Expanding %d seeds\n", len(seeds))

	candidates := make(map[int64]*types.Candidate)
	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if (i+1)%10 == 0 {
			fmt.Fprintf(p.Log, "  Progress: %d/%d (%d%%)\n", i+1, len(seeds), (i+1)*100/len(seeds))
		}

		for _, r := range p.relatedFor(ctx, seed) {
			if _, isSeed := seedSet[r]; isSeed {
				continue
			}
			if _, excluded := excludeSet[r]; excluded {
				continue
			}
			if r < p.Config.MinPMID {
				continue
			}
			c, ok := candidates[r]
			if !ok {
				c = types.NewCandidate(r)
				candidates[r] = c
			}
			c.AddSeed(seed)
		}
	}

	if len(candidates) == 0 {
		return nil, 0, fmt.Errorf(
			"no related articles found for any of %d seeds: check network connectivity and seed PMIDs",
			len(seeds))
	}
	return candidates, len(seeds), nil
}

// relatedFor resolves one seed's related articles, through the cache when
// one is configured. Lookup failures degrade to an empty result.
func (p *Pipeline) relatedFor(ctx context.Context, seed int64) []int64 {
	if p.Cache != nil {
		ids, ok, err := p.Cache.Get(seed)
		if err != nil {
			fmt.Fprintf(p.Log, "warning: cache read for seed %d: %v\n", seed, err)
		} else if ok {
			return ids
		}
	}

	ids, err := p.Related.Related(ctx, seed)
	if err != nil {
		fmt.Fprintf(p.Log, "warning: related lookup failed for seed %d: %v\n", seed, err)
		return nil
	}

	if p.Cache != nil {
		if err := p.Cache.Put(seed, ids); err != nil {
			fmt.Fprintf(p.Log, "warning: cache write for seed %d: %v\n", seed, err)
		}
	}
	return ids
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
