package types

import "time"

// NumQuestions is the fixed length of the quantitative survey instrument.
const NumQuestions = 22

// MaxTextResponses is the number of free-text answers a submission may carry.
const MaxTextResponses = 3

// Domain identifies the survey context an organization belongs to.
type Domain string

const (
	DomainHealthcare Domain = "Healthcare"
	DomainUniversity Domain = "University"
	DomainBusiness   Domain = "Business"
)

// Tier is the five-level individual risk tier on the 28-point scale.
type Tier string

const (
	TierCrisis   Tier = "Crisis"
	TierAtRisk   Tier = "At_Risk"
	TierMixed    Tier = "Mixed"
	TierSafe     Tier = "Safe"
	TierThriving Tier = "Thriving"
)

// TextTier is the four-level risk tier produced by the text classifier.
type TextTier string

const (
	TextTierCrisis   TextTier = "Crisis"
	TextTierHigh     TextTier = "High_Risk"
	TextTierModerate TextTier = "Moderate_Risk"
	TextTierLow      TextTier = "Low_Risk"
)

// OrgTier is the binary organization-level classification.
type OrgTier string

const (
	OrgTierHigh OrgTier = "High_Risk"
	OrgTierLow  OrgTier = "Low_Risk"
)

// Demographics describes the respondent. Values arrive pre-validated by the
// intake collaborator against fixed enumerations; unknown values are replaced
// with population-mode defaults during feature extraction.
type Demographics struct {
	AgeRange         string `json:"age_range"`
	GenderIdentity   string `json:"gender_identity"`
	TenureRange      string `json:"tenure_range"`
	PositionLevel    string `json:"position_level"`
	Department       string `json:"department"`
	SupervisesOthers bool   `json:"supervises_others"`
	WorkLocation     string `json:"work_location"`
	EmploymentStatus string `json:"employment_status"`
	EducationLevel   string `json:"education_level"`
	EthnicityGroup   string `json:"ethnicity_group"`
}

// ResponseQuality carries intake-measured quality signals for a submission.
type ResponseQuality struct {
	CompletionSeconds    float64 `json:"completion_time_seconds"`
	QualityScore         float64 `json:"response_quality_score"`
	AttentionCheckPassed bool    `json:"attention_check_passed"`
	StraightLineResponse bool    `json:"straight_line_response"`
	TextResponseQuality  float64 `json:"text_response_quality"`
}

// TextSignals holds text-derived features computed upstream of the ensemble.
type TextSignals struct {
	SentimentMean      float64    `json:"sentiment_mean"`
	SentimentVariance  float64    `json:"sentiment_variance"`
	RiskKeywordCount   int        `json:"risk_keyword_count"`
	CrisisLanguage     bool       `json:"crisis_language_present"`
	SpecificIncident   bool       `json:"specific_incident_described"`
	EmotionalIntensity float64    `json:"emotional_intensity_score"`
	CategorySignals    [6]float64 `json:"category_signals"`
}

// SurveyResponse is one submission as delivered by the intake collaborator.
// Answers are keyed "q1".."q22" in [1.0, 4.0] with 0.5 increments, already
// direction-normalized so that 4.0 always means healthiest. A question absent
// from the map is a missing answer. Immutable once submitted.
type SurveyResponse struct {
	ResponseID    string             `json:"response_id"`
	OrgID         string             `json:"org_id"`
	Domain        Domain             `json:"domain"`
	Answers       map[string]float64 `json:"survey_responses"`
	TextResponses []string           `json:"text_responses,omitempty"`
	Demographics  Demographics       `json:"demographics"`
	Quality       *ResponseQuality   `json:"response_quality,omitempty"`
	TextSignals   *TextSignals       `json:"text_analysis,omitempty"`
	SubmittedAt   time.Time          `json:"submitted_at"`
}

// CategoryScore is one weighted category result.
type CategoryScore struct {
	CategoryID int     `json:"category_id"`
	Name       string  `json:"name"`
	Mean       float64 `json:"mean"`
	Weight     float64 `json:"weight"`
	Score      float64 `json:"score"`
	RiskLevel  Tier    `json:"risk_level"`
}

// HSEGResult is the individual risk assessment. Created once per
// SurveyResponse; re-scoring produces a new result with a new ResultID.
type HSEGResult struct {
	ResultID            string          `json:"result_id"`
	ResponseID          string          `json:"response_id"`
	OrgID               string          `json:"org_id"`
	CompositeScore      int             `json:"overall_hseg_score"`
	Tier                Tier            `json:"overall_risk_tier"`
	CategoryScores      []CategoryScore `json:"category_scores"`
	Confidence          float64         `json:"confidence_score"`
	IsHeuristicFallback bool            `json:"is_heuristic_fallback"`
	ContributingFactors []string        `json:"contributing_factors,omitempty"`
	Warnings            []string        `json:"warnings,omitempty"`
	ModelVersion        string          `json:"model_version"`
	ScoredAt            time.Time       `json:"scored_at"`
}

// TextRiskResult is the hybrid keyword/statistical text classification.
type TextRiskResult struct {
	Tier                TextTier           `json:"text_risk_tier"`
	KeywordScore        float64            `json:"keyword_score"`
	TriggeredCategories []string           `json:"triggered_categories,omitempty"`
	CrisisPhrases       []string           `json:"crisis_phrases,omitempty"`
	ClassLikelihoods    map[string]float64 `json:"class_likelihoods,omitempty"`
	Confidence          float64            `json:"confidence_score"`
	StatisticalLayerOK  bool               `json:"statistical_layer_ok"`
	Warnings            []string           `json:"warnings,omitempty"`
}

// OrgMetadata is organization context supplied by the caller of the
// organizational aggregation operation.
type OrgMetadata struct {
	OrgID         string `json:"org_id"`
	Name          string `json:"name,omitempty"`
	Domain        Domain `json:"domain"`
	EmployeeCount int    `json:"employee_count"`
	FoundedYear   int    `json:"founded_year,omitempty"`
	IsPublic      bool   `json:"is_public_company,omitempty"`
}

// Assessment pairs the two per-person results the aggregator consumes.
type Assessment struct {
	Individual HSEGResult      `json:"individual"`
	Text       *TextRiskResult `json:"text,omitempty"`
}
