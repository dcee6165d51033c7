// Copyright Peter L. Morrell, 2026. All rights reserved.

package expand

import (
	"math"

	"github.com/pmorrell/Plant-Selection/pkg/types"
)

// DefaultScoringConfig returns the stock age-weighting parameters.
func DefaultScoringConfig() types.ScoringConfig {
	return types.ScoringConfig{
		AgeBeta:          0.4,
		AgeGamma:         0.7,
		ComparativeBoost: 1.15,
	}
}

// Weight assigns each candidate a weighted score derived from its raw score,
// a PMID-age penalty, and a comparative-evidence boost.
//
// With minID/maxID the extremes of the accepted candidates, a candidate's
// normalized age is (maxID-id)/(maxID-minID): 0 for the most recent paper,
// 1 for the oldest. The weighted score is raw * (1 - beta*age^gamma), times
// the boost when comparative evidence was found. When all candidates share
// one PMID the age term is undefined and the raw score is used as-is.
func Weight(candidates map[int64]*types.Candidate, cfg types.ScoringConfig) {
	if len(candidates) == 0 {
		return
	}

	minID, maxID := pmidRange(candidates)

	for _, c := range candidates {
		weighted := float64(c.RawScore())
		if maxID != minID {
			ageNorm := float64(maxID-c.PMID) / float64(maxID-minID)
			weighted *= 1 - cfg.AgeBeta*math.Pow(ageNorm, cfg.AgeGamma)
		}
		if c.Comparative {
			weighted *= cfg.ComparativeBoost
		}
		c.WeightedScore = weighted
	}
}

func pmidRange(candidates map[int64]*types.Candidate) (minID, maxID int64) {
	first := true
	for pmid := range candidates {
		if first {
			minID, maxID = pmid, pmid
			first = false
			continue
		}
		if pmid < minID {
			minID = pmid
		}
		if pmid > maxID {
			maxID = pmid
		}
	}
	return minID, maxID
}
