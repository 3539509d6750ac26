package orgstats

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hseg-analytics/riskmeter/internal/artifacts"
	apperrors "github.com/hseg-analytics/riskmeter/internal/errors"
	"github.com/hseg-analytics/riskmeter/internal/scoring"
	"github.com/hseg-analytics/riskmeter/internal/types"
)

func testAggregator(t *testing.T) *Aggregator {
	t.Helper()
	store, err := artifacts.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewAggregator(store, scoring.DefaultConfig(), DefaultGatePolicy())
}

// assessment builds a synthetic individual result with the given composite
// and a matching tier, with uniform category means.
func assessment(id string, composite int, mean float64) types.Assessment {
	cfg := scoring.DefaultConfig()
	scores := make([]types.CategoryScore, 0, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		scores = append(scores, types.CategoryScore{
			CategoryID: cat.ID,
			Name:       cat.Name,
			Mean:       mean,
			Weight:     cat.Weight,
		})
	}
	return types.Assessment{
		Individual: types.HSEGResult{
			ResultID:       "result-" + id,
			ResponseID:     id,
			OrgID:          "org-1",
			CompositeScore: composite,
			Tier:           cfg.TierFor(composite),
			CategoryScores: scores,
		},
	}
}

func healthySet(n int) []types.Assessment {
	out := make([]types.Assessment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, assessment(fmt.Sprintf("resp-%03d", i), 22, 3.2))
	}
	return out
}

func TestGatePolicy(t *testing.T) {
	gate := DefaultGatePolicy()

	tests := []struct {
		employees int
		need      int
	}{
		{1, 8},
		{10, 8},
		{11, 5},
		{50, 5},
		{51, 4},
		{500, 4},
		{501, 3},
		{100000, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.need, gate.MinSampleFor(tt.employees), "employees %d", tt.employees)
	}
}

func TestAggregateSampleGate(t *testing.T) {
	agg := testAggregator(t)
	meta := types.OrgMetadata{OrgID: "org-1", Domain: types.DomainBusiness, EmployeeCount: 30}

	t.Run("four responses fail for a small company", func(t *testing.T) {
		_, err := agg.Aggregate(meta, healthySet(4))
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInsufficientSample))
	})

	t.Run("five responses pass", func(t *testing.T) {
		snapshot, err := agg.Aggregate(meta, healthySet(5))
		require.NoError(t, err)
		assert.Equal(t, 5, snapshot.SampleSize)
		assert.Equal(t, 5, snapshot.MinSampleRequired)
	})
}

func TestAggregateOrgTierRules(t *testing.T) {
	agg := testAggregator(t)
	meta := types.OrgMetadata{OrgID: "org-1", Domain: types.DomainBusiness, EmployeeCount: 200}

	t.Run("healthy organization is Low_Risk", func(t *testing.T) {
		snapshot, err := agg.Aggregate(meta, healthySet(20))
		require.NoError(t, err)
		assert.Equal(t, types.OrgTierLow, snapshot.OrgTier)
		assert.Greater(t, snapshot.MeanComposite100, 62.0)
	})

	t.Run("crisis rate above eight percent flips High_Risk", func(t *testing.T) {
		set := healthySet(19)
		set = append(set, assessment("resp-crisis-1", 9, 1.2))
		set = append(set, assessment("resp-crisis-2", 10, 1.3))

		snapshot, err := agg.Aggregate(meta, set)
		require.NoError(t, err)
		assert.Greater(t, snapshot.CrisisPct, 8.0)
		assert.Equal(t, types.OrgTierHigh, snapshot.OrgTier)
	})

	t.Run("at-risk rate above a quarter flips High_Risk", func(t *testing.T) {
		set := healthySet(14)
		for i := 0; i < 6; i++ {
			set = append(set, assessment(fmt.Sprintf("resp-atrisk-%d", i), 15, 2.1))
		}

		snapshot, err := agg.Aggregate(meta, set)
		require.NoError(t, err)
		assert.Greater(t, snapshot.AtRiskPct, 25.0)
		assert.Equal(t, types.OrgTierHigh, snapshot.OrgTier)
	})

	t.Run("low mean composite flips High_Risk without rate breaches", func(t *testing.T) {
		// Everyone Mixed at 17: no Crisis, no At_Risk, but 17/28 = 60.7 < 62.
		set := make([]types.Assessment, 0, 20)
		for i := 0; i < 20; i++ {
			set = append(set, assessment(fmt.Sprintf("resp-%03d", i), 17, 2.4))
		}

		snapshot, err := agg.Aggregate(meta, set)
		require.NoError(t, err)
		assert.Zero(t, snapshot.CrisisPct)
		assert.Zero(t, snapshot.AtRiskPct)
		assert.Less(t, snapshot.MeanComposite100, 62.0)
		assert.Equal(t, types.OrgTierHigh, snapshot.OrgTier)
	})
}

func TestAggregateDeterministic(t *testing.T) {
	agg := testAggregator(t)
	meta := types.OrgMetadata{OrgID: "org-1", Domain: types.DomainHealthcare, EmployeeCount: 80}

	set := healthySet(10)
	set = append(set, assessment("resp-z", 12, 1.4), assessment("resp-a", 26, 3.8))

	first, err := agg.Aggregate(meta, set)
	require.NoError(t, err)

	// Reverse the input order; the snapshot must not change.
	reversed := make([]types.Assessment, 0, len(set))
	for i := len(set) - 1; i >= 0; i-- {
		reversed = append(reversed, set[i])
	}
	second, err := agg.Aggregate(meta, reversed)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestAggregateTurnoverBounds(t *testing.T) {
	agg := testAggregator(t)
	meta := types.OrgMetadata{OrgID: "org-1", Domain: types.DomainBusiness, EmployeeCount: 200}

	t.Run("healthy organization predicts a low rate", func(t *testing.T) {
		snapshot, err := agg.Aggregate(meta, healthySet(20))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, snapshot.PredictedTurnoverRate, 0.0)
		assert.LessOrEqual(t, snapshot.PredictedTurnoverRate, 0.3)
	})

	t.Run("crisis organization predicts a higher but bounded rate", func(t *testing.T) {
		set := make([]types.Assessment, 0, 20)
		for i := 0; i < 20; i++ {
			set = append(set, assessment(fmt.Sprintf("resp-%03d", i), 8, 1.1))
		}
		snapshot, err := agg.Aggregate(meta, set)
		require.NoError(t, err)
		assert.Greater(t, snapshot.PredictedTurnoverRate, 0.3)
		assert.LessOrEqual(t, snapshot.PredictedTurnoverRate, 1.0)
	})
}

func TestAggregateCategoryStats(t *testing.T) {
	agg := testAggregator(t)
	meta := types.OrgMetadata{OrgID: "org-1", Domain: types.DomainUniversity, EmployeeCount: 300}

	snapshot, err := agg.Aggregate(meta, healthySet(10))
	require.NoError(t, err)

	require.Len(t, snapshot.CategoryStats, scoring.NumCategories)
	for _, cs := range snapshot.CategoryStats {
		assert.InDelta(t, 3.2, cs.Mean, 1e-9)
		assert.Zero(t, cs.Std)
		assert.InDelta(t, cs.P25, cs.P75, 1e-9)
		assert.Zero(t, cs.RiskRate)
	}

	assert.InDelta(t, 19.2, snapshot.IndustryBaseline, 1e-9)
	assert.InDelta(t, 22.0-19.2, snapshot.BaselineDelta, 1e-6)
}

func TestAggregateConfidence(t *testing.T) {
	agg := testAggregator(t)
	meta := types.OrgMetadata{OrgID: "org-1", Domain: types.DomainBusiness, EmployeeCount: 200}

	small, err := agg.Aggregate(meta, healthySet(4))
	require.NoError(t, err)
	large, err := agg.Aggregate(meta, healthySet(60))
	require.NoError(t, err)

	assert.Greater(t, large.ConfidenceLevel, small.ConfidenceLevel)
	assert.LessOrEqual(t, large.ConfidenceLevel, 0.95)
	assert.False(t, small.StatisticallySignificant)
}

func TestPredictTurnoverFallback(t *testing.T) {
	t.Run("nil artifact uses the heuristic curve", func(t *testing.T) {
		rate := PredictTurnover(nil, nil, 18)
		assert.InDelta(t, 0.15, rate, 1e-9)
	})

	t.Run("missing feature uses the heuristic curve", func(t *testing.T) {
		a := &artifacts.TurnoverArtifact{
			FeatureNames: []string{"no_such_feature"},
			Weights:      []float64{1},
		}
		rate := PredictTurnover(a, map[string]float64{}, 18)
		assert.InDelta(t, 0.15, rate, 1e-9)
	})

	t.Run("output clamps to the unit interval", func(t *testing.T) {
		a := &artifacts.TurnoverArtifact{
			FeatureNames: []string{"crisis_rate"},
			Weights:      []float64{100},
			Intercept:    5,
		}
		assert.Equal(t, 1.0, PredictTurnover(a, map[string]float64{"crisis_rate": 1}, 18))

		a.Intercept = -50
		assert.Equal(t, 0.0, PredictTurnover(a, map[string]float64{"crisis_rate": 0.01}, 18))
	})
}
