package predict

import (
	"fmt"
	"hash/fnv"

	"github.com/hseg-analytics/riskmeter/internal/types"
)

// NumFeatures is the engineered feature-vector width: 22 answers, 11
// demographic encodings, 5 response-quality scalars, 12 text-derived signals.
const NumFeatures = 50

// Population-mode defaults substituted for absent demographic fields.
// Missing demographics are non-fatal; the prediction continues.
var (
	ageOrdinal = map[string]float64{
		"18-24": 0, "25-34": 1, "35-44": 2, "45-54": 3, "55-64": 4, "65+": 5,
	}
	genderOrdinal = map[string]float64{
		"Man": 0, "Woman": 1, "Non-binary": 2, "Prefer_not_to_say": 3,
	}
	tenureOrdinal = map[string]float64{
		"<1_year": 0, "1-3_years": 1, "4-7_years": 2, "8+_years": 3,
	}
	positionOrdinal = map[string]float64{
		"Entry": 0, "Mid": 1, "Senior": 2, "Executive": 3,
	}
	locationOrdinal = map[string]float64{
		"On_Site": 0, "Remote": 1, "Hybrid": 2,
	}
	statusOrdinal = map[string]float64{
		"Full_Time": 0, "Part_Time": 1, "Contract": 2, "Intern": 3,
	}
	educationOrdinal = map[string]float64{
		"High_School": 0, "Some_College": 1, "Bachelors": 2, "Graduate": 3,
	}
	domainOrdinal = map[types.Domain]float64{
		types.DomainHealthcare: 0, types.DomainUniversity: 1, types.DomainBusiness: 2,
	}
)

func ordinal(m map[string]float64, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

// departmentBucket hashes free-form department names into a stable 0-9 bucket.
func departmentBucket(department string) float64 {
	h := fnv.New32a()
	h.Write([]byte(department))
	return float64(h.Sum32() % 10)
}

// ExtractFeatures builds the engineered feature vector for the ensemble.
// Missing answers are imputed with the neutral 2.5; absent demographic and
// quality blocks fall back to population modes.
func ExtractFeatures(resp *types.SurveyResponse) []float64 {
	features := make([]float64, 0, NumFeatures)

	// Quantitative answers (22).
	for q := 1; q <= types.NumQuestions; q++ {
		v, ok := resp.Answers[fmt.Sprintf("q%d", q)]
		if !ok {
			v = 2.5
		}
		features = append(features, v)
	}

	// Demographics (11).
	d := resp.Demographics
	features = append(features,
		ordinal(ageOrdinal, d.AgeRange, 1),
		ordinal(genderOrdinal, d.GenderIdentity, 3),
		ordinal(tenureOrdinal, d.TenureRange, 1),
		ordinal(positionOrdinal, d.PositionLevel, 1),
		departmentBucket(d.Department),
		boolFeature(d.SupervisesOthers),
		ordinal(locationOrdinal, d.WorkLocation, 0),
		ordinal(statusOrdinal, d.EmploymentStatus, 0),
		ordinal(educationOrdinal, d.EducationLevel, 2),
		diversityFlag(d.EthnicityGroup),
	)
	if v, ok := domainOrdinal[resp.Domain]; ok {
		features = append(features, v)
	} else {
		features = append(features, domainOrdinal[types.DomainBusiness])
	}

	// Response quality (5).
	q := resp.Quality
	if q == nil {
		q = &types.ResponseQuality{
			CompletionSeconds:    300,
			QualityScore:         0.8,
			AttentionCheckPassed: true,
			TextResponseQuality:  0.5,
		}
	}
	completion := (q.CompletionSeconds - 120) / 600 // normalize 2-10 minutes
	features = append(features,
		clipFeature(completion, 0, 1),
		q.QualityScore,
		boolFeature(q.AttentionCheckPassed),
		boolFeature(q.StraightLineResponse),
		q.TextResponseQuality,
	)

	// Text-derived signals (12).
	t := resp.TextSignals
	if t == nil {
		t = &types.TextSignals{SentimentVariance: 0.1}
	}
	features = append(features,
		t.SentimentMean,
		t.SentimentVariance,
		float64(t.RiskKeywordCount),
		boolFeature(t.CrisisLanguage),
		boolFeature(t.SpecificIncident),
		t.EmotionalIntensity,
	)
	for _, signal := range t.CategorySignals {
		features = append(features, signal)
	}

	return features
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func diversityFlag(ethnicity string) float64 {
	for _, r := range ethnicity {
		if r == ',' {
			return 1
		}
	}
	if ethnicity == "Multiracial" {
		return 1
	}
	return 0
}

func clipFeature(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
