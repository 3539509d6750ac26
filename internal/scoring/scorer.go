package scoring

import (
	"fmt"
	"math"

	apperrors "github.com/hseg-analytics/riskmeter/internal/errors"
	"github.com/hseg-analytics/riskmeter/internal/types"
)

// Result is the deterministic output of the category scorer.
type Result struct {
	CategoryScores []types.CategoryScore `json:"category_scores"`
	TotalPoints    float64               `json:"total_weighted_points"`
	Composite      int                   `json:"overall_hseg_score"`
	Tier           types.Tier            `json:"overall_risk_tier"`
	MissingAnswers int                   `json:"missing_answers"`
}

// Scorer turns 22 direction-normalized answers into weighted category scores
// and a bounded composite tier. Stateless; safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer over the given table.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config exposes the scoring table the scorer was built with.
func (s *Scorer) Config() Config {
	return s.cfg
}

// ScoreAnswers scores a q1..q22 answer map. Missing answers are imputed with
// the neutral value; more than MaxMissingAnswers missing rejects the whole
// submission rather than scoring it with false confidence.
func (s *Scorer) ScoreAnswers(answers map[string]float64) (*Result, error) {
	missing := 0
	for q := 1; q <= types.NumQuestions; q++ {
		v, ok := answers[questionKey(q)]
		if !ok {
			missing++
			continue
		}
		if v < 1.0 || v > 4.0 {
			return nil, apperrors.NewValidationError(
				"answer out of range",
				map[string]string{questionKey(q): fmt.Sprintf("value %.2f outside [1.0, 4.0]", v)},
			)
		}
	}
	if missing > s.cfg.MaxMissingAnswers {
		return nil, apperrors.NewInsufficientDataError(missing, s.cfg.MaxMissingAnswers)
	}

	means := [NumCategories]float64{}
	for i, cat := range s.cfg.Categories {
		sum := 0.0
		for _, q := range cat.Questions {
			v, ok := answers[questionKey(q)]
			if !ok {
				v = s.cfg.NeutralAnswer
			}
			sum += v
		}
		means[i] = sum / float64(len(cat.Questions))
	}

	res := s.scoreMeans(means)
	res.MissingAnswers = missing
	return res, nil
}

// ScoreCategoryMeans scores six pre-computed category means on the 1.0-4.0
// answer scale. Used by the ensemble predictor so model inference and raw
// self-report share one tier table. Means are clipped into domain first.
func (s *Scorer) ScoreCategoryMeans(means [NumCategories]float64) *Result {
	for i := range means {
		means[i] = clip(means[i], 1.0, 4.0)
	}
	return s.scoreMeans(means)
}

func (s *Scorer) scoreMeans(means [NumCategories]float64) *Result {
	scores := make([]types.CategoryScore, 0, NumCategories)
	points := 0.0

	for i, cat := range s.cfg.Categories {
		mean := means[i]
		scores = append(scores, types.CategoryScore{
			CategoryID: cat.ID,
			Name:       cat.Name,
			Mean:       round2(mean),
			Weight:     cat.Weight,
			Score:      round2(cat.Weight * mean),
			RiskLevel:  CategoryRiskLevel(mean),
		})
		// Weighted points on the documentation scale: answers contribute a
		// quarter point each at maximum, so the totals land on
		// [MinTotalPoints, MaxTotalPoints].
		points += cat.Weight * mean * float64(len(cat.Questions)) / 4.0
	}

	composite := int(math.Round(points / s.cfg.MaxTotalPoints * float64(s.cfg.NormalizedMax)))
	if composite < s.cfg.NormalizedMin {
		composite = s.cfg.NormalizedMin
	}
	if composite > s.cfg.NormalizedMax {
		composite = s.cfg.NormalizedMax
	}

	return &Result{
		CategoryScores: scores,
		TotalPoints:    points,
		Composite:      composite,
		Tier:           s.cfg.TierFor(composite),
	}
}

// Composite100 converts a 28-point composite to the 0-100 normalized scale
// used by the text classifier's secondary signal and the org thresholds.
func Composite100(composite int) float64 {
	return float64(composite) / 28.0 * 100.0
}

func questionKey(q int) string {
	return fmt.Sprintf("q%d", q)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
