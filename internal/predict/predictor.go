package predict

import (
	"time"

	"github.com/google/uuid"

	"github.com/hseg-analytics/riskmeter/internal/artifacts"
	apperrors "github.com/hseg-analytics/riskmeter/internal/errors"
	"github.com/hseg-analytics/riskmeter/internal/scoring"
	"github.com/hseg-analytics/riskmeter/internal/types"
)

// maxModelVariance is the largest population variance three predictions in
// the [1,4] answer domain can reach; used to normalize disagreement.
const maxModelVariance = 2.0

// Options tunes predictor policy. Zero value gives fail-closed behavior.
type Options struct {
	// ConfidenceFloor below which CALIBRATION_DRIFT_WARNING is attached.
	ConfidenceFloor float64
	// AllowHeuristicFallback permits survey-mean scoring when the ensemble
	// artifact is unavailable; such results always carry the fallback flag.
	AllowHeuristicFallback bool
}

// Predictor produces HSEGResults from survey responses by blending three
// regressors and tiering through the shared scoring table. Stateless apart
// from the read-only artifact snapshot taken per call.
type Predictor struct {
	store  *artifacts.Store
	scorer *scoring.Scorer
	opts   Options
}

// NewPredictor creates a predictor over the artifact store and scorer.
func NewPredictor(store *artifacts.Store, scorer *scoring.Scorer, opts Options) *Predictor {
	return &Predictor{store: store, scorer: scorer, opts: opts}
}

// Score runs the full individual pipeline: validation, feature extraction,
// ensemble inference, weighting and tiering. Errors are typed values.
func (p *Predictor) Score(resp *types.SurveyResponse) (*types.HSEGResult, error) {
	if resp == nil {
		return nil, apperrors.NewValidationError("nil survey response", nil)
	}

	// Validates answer count/range and doubles as the heuristic path.
	surveyResult, err := p.scorer.ScoreAnswers(resp.Answers)
	if err != nil {
		return nil, err
	}

	bundle := p.store.Current()
	if bundle == nil || bundle.Ensemble == nil {
		if !p.opts.AllowHeuristicFallback {
			return nil, apperrors.NewModelUnavailableError(artifacts.EnsembleFile, nil)
		}
		return p.assemble(resp, surveyResult, 0.5, true, "heuristic"), nil
	}

	features := ExtractFeatures(resp)
	if bundle.Ensemble.NumFeatures != 0 && bundle.Ensemble.NumFeatures != len(features) {
		if !p.opts.AllowHeuristicFallback {
			return nil, apperrors.NewModelUnavailableError(artifacts.EnsembleFile, nil)
		}
		return p.assemble(resp, surveyResult, 0.5, true, "heuristic"), nil
	}

	models := buildEnsemble(bundle.Ensemble)
	predictions := make([][scoring.NumCategories]float64, 0, len(models))
	for _, wm := range models {
		pred, err := wm.model.PredictCategories(features)
		if err != nil {
			if !p.opts.AllowHeuristicFallback {
				return nil, apperrors.NewModelUnavailableError(artifacts.EnsembleFile, err)
			}
			return p.assemble(resp, surveyResult, 0.5, true, "heuristic"), nil
		}
		predictions = append(predictions, pred)
	}

	var blended [scoring.NumCategories]float64
	for c := 0; c < scoring.NumCategories; c++ {
		acc := 0.0
		for i, wm := range models {
			acc += wm.weight * predictions[i][c]
		}
		blended[c] = acc
	}

	result := p.scorer.ScoreCategoryMeans(blended)
	confidence := ensembleConfidence(predictions)

	return p.assemble(resp, result, confidence, false, bundle.Ensemble.Version), nil
}

// ensembleConfidence maps inter-model disagreement to [0,1]: the mean
// per-category variance across sub-models, normalized by the domain maximum.
func ensembleConfidence(predictions [][scoring.NumCategories]float64) float64 {
	if len(predictions) < 2 {
		return 0.5
	}

	totalVar := 0.0
	for c := 0; c < scoring.NumCategories; c++ {
		mean := 0.0
		for _, pred := range predictions {
			mean += pred[c]
		}
		mean /= float64(len(predictions))

		v := 0.0
		for _, pred := range predictions {
			d := pred[c] - mean
			v += d * d
		}
		totalVar += v / float64(len(predictions))
	}

	avgVar := totalVar / scoring.NumCategories
	conf := 1 - avgVar/maxModelVariance
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

func (p *Predictor) assemble(resp *types.SurveyResponse, result *scoring.Result, confidence float64, fallback bool, version string) *types.HSEGResult {
	out := &types.HSEGResult{
		ResultID:            uuid.NewString(),
		ResponseID:          resp.ResponseID,
		OrgID:               resp.OrgID,
		CompositeScore:      result.Composite,
		Tier:                result.Tier,
		CategoryScores:      result.CategoryScores,
		Confidence:          confidence,
		IsHeuristicFallback: fallback,
		ContributingFactors: contributingFactors(resp, result),
		ModelVersion:        version,
		ScoredAt:            time.Now().UTC(),
	}

	if confidence < p.opts.ConfidenceFloor {
		out.Warnings = append(out.Warnings, apperrors.CalibrationDriftWarning)
	}
	return out
}

var riskFactorNames = map[int]string{
	scoring.CategoryPowerAbuse:     "Authority abuse and retaliation fears",
	scoring.CategoryDiscrimination: "Discrimination and exclusion experiences",
	scoring.CategoryManipulation:   "Emotional manipulation and boundary violations",
	scoring.CategoryAccountability: "System accountability failures",
	scoring.CategoryMentalHealth:   "Work-related mental health harm",
	scoring.CategoryVoiceAutonomy:  "Voice suppression and disempowerment",
}

// contributingFactors surfaces the strongest risk drivers for review, capped
// at five.
func contributingFactors(resp *types.SurveyResponse, result *scoring.Result) []string {
	factors := []string{}

	for _, cs := range result.CategoryScores {
		if cs.Mean < 2.0 {
			factors = append(factors, riskFactorNames[cs.CategoryID])
		}
	}
	if resp.TextSignals != nil {
		if resp.TextSignals.CrisisLanguage {
			factors = append(factors, "Crisis-level language in responses")
		}
		if resp.TextSignals.SpecificIncident {
			factors = append(factors, "Specific harmful incidents reported")
		}
	}
	if resp.Demographics.TenureRange == "<1_year" {
		factors = append(factors, "New employee vulnerability")
	}

	if len(factors) > 5 {
		factors = factors[:5]
	}
	return factors
}
