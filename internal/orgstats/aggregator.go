package orgstats

import (
	"math"
	"sort"

	"github.com/hseg-analytics/riskmeter/internal/artifacts"
	apperrors "github.com/hseg-analytics/riskmeter/internal/errors"
	"github.com/hseg-analytics/riskmeter/internal/scoring"
	"github.com/hseg-analytics/riskmeter/internal/types"
)

// Organization classification thresholds, fixed policy constants.
const (
	crisisPctHigh       = 8.0  // percent of respondents in Crisis tier
	atRiskPctHigh       = 25.0 // percent in At_Risk tier
	meanComposite100Low = 62.0 // mean composite on the 0-100 scale
)

// industryBaselines are domain psychological-safety baselines on the
// 28-point scale, used for the benchmark delta.
var industryBaselines = map[types.Domain]float64{
	types.DomainHealthcare: 16.5,
	types.DomainUniversity: 19.2,
	types.DomainBusiness:   18.0,
}

// GatePolicy is the size-tiered minimum-sample table protecting respondent
// anonymity and statistical validity. The canonical table resolves the
// conflicting documentation variants in favor of the stricter small-company
// threshold; overrides apply per deployment, never per request.
type GatePolicy struct {
	Micro  int // <= 10 employees
	Small  int // 11-50
	Medium int // 51-500
	Large  int // > 500
}

// DefaultGatePolicy returns the canonical thresholds.
func DefaultGatePolicy() GatePolicy {
	return GatePolicy{Micro: 8, Small: 5, Medium: 4, Large: 3}
}

// MinSampleFor returns the gate for an organization of the given size.
func (g GatePolicy) MinSampleFor(employeeCount int) int {
	switch {
	case employeeCount <= 10:
		return g.Micro
	case employeeCount <= 50:
		return g.Small
	case employeeCount <= 500:
		return g.Medium
	default:
		return g.Large
	}
}

// CategoryStats are aggregate statistics for one category on the 1-4 mean
// scale.
type CategoryStats struct {
	CategoryID int     `json:"category_id"`
	Name       string  `json:"name"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	P25        float64 `json:"p25"`
	P50        float64 `json:"p50"`
	P75        float64 `json:"p75"`
	RiskRate   float64 `json:"risk_rate"`
}

// OrganizationSnapshot is the full organization-level result. It is only
// emitted when the sample gate passes, and it carries no wall-clock fields
// so recomputation over an unchanged result set is byte-for-byte identical.
type OrganizationSnapshot struct {
	OrgID             string       `json:"org_id"`
	Domain            types.Domain `json:"domain"`
	SampleSize        int          `json:"sample_size"`
	MinSampleRequired int          `json:"min_sample_required"`

	MeanComposite    float64 `json:"mean_composite"`
	StdComposite     float64 `json:"std_composite"`
	MeanComposite100 float64 `json:"mean_composite_100"`

	CategoryStats    []CategoryStats    `json:"category_stats"`
	TierDistribution map[string]float64 `json:"tier_distribution"`
	CrisisPct        float64            `json:"crisis_pct"`
	AtRiskPct        float64            `json:"at_risk_pct"`

	OrgTier types.OrgTier `json:"org_risk_tier"`

	// Advisory regression output, deliberately separate from the
	// deterministic classification above.
	PredictedTurnoverRate float64 `json:"predicted_turnover_rate"`

	ConfidenceLevel          float64 `json:"confidence_level"`
	StatisticallySignificant bool    `json:"statistically_significant"`
	IndustryBaseline         float64 `json:"industry_baseline"`
	BaselineDelta            float64 `json:"baseline_delta"`
	ModelVersion             string  `json:"model_version"`
}

// Aggregator computes organization snapshots from individual result sets.
// Stateless; safe for concurrent use over immutable input copies.
type Aggregator struct {
	store *artifacts.Store
	cfg   scoring.Config
	gate  GatePolicy
}

// NewAggregator creates an aggregator sharing the scoring table with the
// individual pipeline.
func NewAggregator(store *artifacts.Store, cfg scoring.Config, gate GatePolicy) *Aggregator {
	return &Aggregator{store: store, cfg: cfg, gate: gate}
}

// Aggregate produces a snapshot, or an INSUFFICIENT_SAMPLE error when the
// size-tiered gate is not met. Never emits a partial snapshot.
func (a *Aggregator) Aggregate(meta types.OrgMetadata, assessments []types.Assessment) (*OrganizationSnapshot, error) {
	need := a.gate.MinSampleFor(meta.EmployeeCount)
	if len(assessments) < need {
		return nil, apperrors.NewInsufficientSampleError(len(assessments), need)
	}

	// Work on a sorted copy: aggregation must be independent of input order
	// and of concurrent appends to the caller's slice.
	ordered := make([]types.Assessment, len(assessments))
	copy(ordered, assessments)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Individual.ResponseID < ordered[j].Individual.ResponseID
	})

	n := len(ordered)
	composites := make([]float64, n)
	tierCounts := map[types.Tier]int{}
	for i, as := range ordered {
		composites[i] = float64(as.Individual.CompositeScore)
		tierCounts[as.Individual.Tier]++
	}

	meanComposite := mean(composites)
	stdComposite := std(composites, meanComposite)
	meanComposite100 := meanComposite / 28.0 * 100.0

	tierDistribution := make(map[string]float64, len(tierCounts))
	for _, tier := range []types.Tier{types.TierCrisis, types.TierAtRisk, types.TierMixed, types.TierSafe, types.TierThriving} {
		tierDistribution[string(tier)] = round4(float64(tierCounts[tier]) / float64(n))
	}
	crisisPct := tierDistribution[string(types.TierCrisis)] * 100
	atRiskPct := tierDistribution[string(types.TierAtRisk)] * 100

	categoryStats := a.categoryStats(ordered)

	orgTier := types.OrgTierLow
	if crisisPct > crisisPctHigh || atRiskPct > atRiskPctHigh || meanComposite100 < meanComposite100Low {
		orgTier = types.OrgTierHigh
	}

	features := buildFeatures(meta, meanComposite, stdComposite, crisisPct, atRiskPct, tierDistribution, categoryStats, n)

	modelVersion := "heuristic"
	var turnoverArtifact *artifacts.TurnoverArtifact
	if bundle := a.store.Current(); bundle != nil && bundle.Turnover != nil {
		turnoverArtifact = bundle.Turnover
		modelVersion = bundle.Turnover.Version
	}
	turnover := PredictTurnover(turnoverArtifact, features, meanComposite)

	baseline := industryBaselines[types.DomainBusiness]
	if b, ok := industryBaselines[meta.Domain]; ok {
		baseline = b
	}

	confidence := 0.5 + float64(n-need)*0.02
	if confidence > 0.95 {
		confidence = 0.95
	}

	return &OrganizationSnapshot{
		OrgID:                    meta.OrgID,
		Domain:                   meta.Domain,
		SampleSize:               n,
		MinSampleRequired:        need,
		MeanComposite:            round4(meanComposite),
		StdComposite:             round4(stdComposite),
		MeanComposite100:         round4(meanComposite100),
		CategoryStats:            categoryStats,
		TierDistribution:         tierDistribution,
		CrisisPct:                round4(crisisPct),
		AtRiskPct:                round4(atRiskPct),
		OrgTier:                  orgTier,
		PredictedTurnoverRate:    round4(turnover),
		ConfidenceLevel:          round4(confidence),
		StatisticallySignificant: n >= 30 && stdComposite > 0,
		IndustryBaseline:         baseline,
		BaselineDelta:            round4(meanComposite - baseline),
		ModelVersion:             modelVersion,
	}, nil
}

// categoryStats aggregates the 1-4 category means across respondents,
// iterating categories in table order for deterministic output.
func (a *Aggregator) categoryStats(ordered []types.Assessment) []CategoryStats {
	out := make([]CategoryStats, 0, len(a.cfg.Categories))

	for _, cat := range a.cfg.Categories {
		values := make([]float64, 0, len(ordered))
		for _, as := range ordered {
			for _, cs := range as.Individual.CategoryScores {
				if cs.CategoryID == cat.ID {
					values = append(values, cs.Mean)
					break
				}
			}
		}
		if len(values) == 0 {
			out = append(out, CategoryStats{CategoryID: cat.ID, Name: cat.Name})
			continue
		}

		m := mean(values)
		atRisk := 0
		for _, v := range values {
			if v <= 2.5 {
				atRisk++
			}
		}
		out = append(out, CategoryStats{
			CategoryID: cat.ID,
			Name:       cat.Name,
			Mean:       round4(m),
			Std:        round4(std(values, m)),
			P25:        round4(percentile(values, 0.25)),
			P50:        round4(percentile(values, 0.50)),
			P75:        round4(percentile(values, 0.75)),
			RiskRate:   round4(float64(atRisk) / float64(len(values))),
		})
	}
	return out
}

// buildFeatures assembles the named aggregate feature map the turnover
// regression consumes.
func buildFeatures(meta types.OrgMetadata, mean28, std28, crisisPct, atRiskPct float64, tiers map[string]float64, cats []CategoryStats, n int) map[string]float64 {
	features := map[string]float64{
		"mean_composite_28": mean28,
		"std_composite":     std28,
		"crisis_rate":       crisisPct / 100,
		"at_risk_rate":      atRiskPct / 100,
		"safe_rate":         tiers[string(types.TierSafe)] + tiers[string(types.TierThriving)],
		"sample_size":       float64(n),
	}

	for _, cs := range cats {
		features[categoryFeature("mean", cs.CategoryID)] = cs.Mean
		features[categoryFeature("std", cs.CategoryID)] = cs.Std
		features[categoryFeature("risk_rate", cs.CategoryID)] = cs.RiskRate
	}

	features["domain_healthcare"] = 0
	features["domain_university"] = 0
	features["domain_business"] = 0
	switch meta.Domain {
	case types.DomainHealthcare:
		features["domain_healthcare"] = 1
	case types.DomainUniversity:
		features["domain_university"] = 1
	default:
		features["domain_business"] = 1
	}

	count := meta.EmployeeCount
	if count < 1 {
		count = 1
	}
	features["log10_employee_count"] = math.Log10(float64(count))

	return features
}

func categoryFeature(stat string, id int) string {
	return "category_" + string(rune('0'+id)) + "_" + stat
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func std(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	acc := 0.0
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(values)))
}

// percentile uses linear interpolation between order statistics.
func percentile(values []float64, p float64) float64 {
	cp := append([]float64(nil), values...)
	sort.Float64s(cp)

	if len(cp) == 1 {
		return cp[0]
	}
	rank := p * float64(len(cp)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return cp[lo]
	}
	frac := rank - float64(lo)
	return cp[lo]*(1-frac) + cp[hi]*frac
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
