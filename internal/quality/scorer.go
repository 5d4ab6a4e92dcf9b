// Package quality scores the match store's data quality from grouped
// aggregates: field completeness, delivery coverage, winner consistency,
// duplicate detection, and per-season volume checks.
package quality

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pitchside/analytics/internal/database"
)

// Component names
const (
	ComponentCompleteness = "completeness"
	ComponentCoverage     = "coverage"
	ComponentConsistency  = "consistency"
	ComponentUniqueness   = "uniqueness"
	ComponentSeasonVolume = "season_volume"
)

// WeightPolicy controls how component scores combine into the overall
// score. Weights are normalized before use, so callers can supply any
// positive values.
type WeightPolicy struct {
	Weights map[string]float64 `json:"weights"`

	// Per-season match counts outside this range count against the
	// season volume component.
	ExpectedSeasonMin int `json:"expected_season_min"`
	ExpectedSeasonMax int `json:"expected_season_max"`
}

// DefaultPolicy returns the weighting used when the caller supplies none
func DefaultPolicy() WeightPolicy {
	return WeightPolicy{
		Weights: map[string]float64{
			ComponentCompleteness: 0.25,
			ComponentCoverage:     0.25,
			ComponentConsistency:  0.20,
			ComponentUniqueness:   0.15,
			ComponentSeasonVolume: 0.15,
		},
		ExpectedSeasonMin: 56,
		ExpectedSeasonMax: 76,
	}
}

// Validate rejects unusable policies
func (p WeightPolicy) Validate() error {
	if len(p.Weights) == 0 {
		return fmt.Errorf("weight policy has no weights")
	}
	var total float64
	for name, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %q is negative", name)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("weights sum to zero")
	}
	if p.ExpectedSeasonMin < 0 || p.ExpectedSeasonMax < p.ExpectedSeasonMin {
		return fmt.Errorf("expected season range is inverted")
	}
	return nil
}

// Component is one scored dimension of the report
type Component struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
	Detail string  `json:"detail"`
}

// Report is the full quality assessment
type Report struct {
	ReportID     string      `json:"report_id"`
	GeneratedAt  time.Time   `json:"generated_at"`
	Score        float64     `json:"score"`
	Components   []Component `json:"components"`
	TotalMatches int         `json:"total_matches"`
	DateRange    string      `json:"date_range,omitempty"`
	Insufficient bool        `json:"insufficient_data,omitempty"`
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Score folds store aggregates into a 0-100 quality score under the policy.
// Each additional defect can only lower the result, never raise it.
func Score(agg database.QualityAggregates, policy WeightPolicy) Report {
	report := Report{TotalMatches: agg.TotalMatches}
	if agg.MinDate.Valid && agg.MaxDate.Valid {
		report.DateRange = agg.MinDate.String + " to " + agg.MaxDate.String
	}

	if agg.TotalMatches == 0 {
		report.Insufficient = true
		return report
	}

	total := float64(agg.TotalMatches)
	scores := map[string]Component{
		ComponentCompleteness: {
			Score: clamp01(1 - float64(agg.NullVenues+agg.NullWinners)/(2*total)),
			Detail: fmt.Sprintf("%d null venues, %d missing winners",
				agg.NullVenues, agg.NullWinners),
		},
		ComponentCoverage: {
			Score:  clamp01(float64(agg.MatchesWithDeliveries) / total),
			Detail: fmt.Sprintf("%d of %d matches have deliveries", agg.MatchesWithDeliveries, agg.TotalMatches),
		},
		ComponentConsistency: {
			Score:  clamp01(1 - float64(agg.InvalidWinners)/total),
			Detail: fmt.Sprintf("%d winners not among the match's teams", agg.InvalidWinners),
		},
		ComponentUniqueness: {
			Score:  clamp01(1 - float64(agg.DuplicateSignatures)/total),
			Detail: fmt.Sprintf("%d duplicate date/team signatures", agg.DuplicateSignatures),
		},
		ComponentSeasonVolume: seasonVolume(agg.SeasonCounts, policy),
	}

	var weightTotal float64
	for _, w := range policy.Weights {
		weightTotal += w
	}

	var overall float64
	for name, weight := range policy.Weights {
		comp, ok := scores[name]
		if !ok {
			continue
		}
		comp.Name = name
		comp.Weight = weight / weightTotal
		overall += comp.Score * comp.Weight
		report.Components = append(report.Components, comp)
	}
	sortComponents(report.Components)

	report.Score = math.Max(0, math.Min(100, overall*100))
	return report
}

func seasonVolume(counts []database.SeasonCount, policy WeightPolicy) Component {
	if len(counts) == 0 {
		return Component{Score: 0, Detail: "no seasons present"}
	}

	inRange := 0
	for _, sc := range counts {
		if sc.Matches >= policy.ExpectedSeasonMin && sc.Matches <= policy.ExpectedSeasonMax {
			inRange++
		}
	}
	return Component{
		Score: clamp01(float64(inRange) / float64(len(counts))),
		Detail: fmt.Sprintf("%d of %d seasons within the expected %d-%d match range",
			inRange, len(counts), policy.ExpectedSeasonMin, policy.ExpectedSeasonMax),
	}
}

func sortComponents(components []Component) {
	sort.Slice(components, func(i, j int) bool {
		return components[i].Name < components[j].Name
	})
}
