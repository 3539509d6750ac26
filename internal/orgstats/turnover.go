package orgstats

import "github.com/hseg-analytics/riskmeter/internal/artifacts"

// PredictTurnover evaluates the linear turnover regression over named
// aggregate features. Missing artifact or unknown feature names degrade to
// the heuristic curve; output is always clamped to [0,1].
func PredictTurnover(a *artifacts.TurnoverArtifact, features map[string]float64, meanComposite float64) float64 {
	if a == nil || len(a.FeatureNames) == 0 || len(a.FeatureNames) != len(a.Weights) {
		return clampRate(heuristicTurnover(meanComposite))
	}

	acc := a.Intercept
	for i, name := range a.FeatureNames {
		v, ok := features[name]
		if !ok {
			return clampRate(heuristicTurnover(meanComposite))
		}
		acc += a.Weights[i] * v
	}
	return clampRate(acc)
}

// heuristicTurnover is the fallback curve: a healthy-organization base rate
// rising as the mean composite falls below the Mixed band.
func heuristicTurnover(meanComposite float64) float64 {
	const base = 0.15
	if meanComposite >= 18 {
		return base - (meanComposite-18)/28*0.1
	}
	return base + (18-meanComposite)/11*0.35
}

func clampRate(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
