package scoring

import "github.com/hseg-analytics/riskmeter/internal/types"

// Category IDs on the canonical 1..6 scale.
const (
	CategoryPowerAbuse     = 1
	CategoryDiscrimination = 2
	CategoryManipulation   = 3
	CategoryAccountability = 4
	CategoryMentalHealth   = 5
	CategoryVoiceAutonomy  = 6
)

// NumCategories is the number of weighted psychological-safety dimensions.
const NumCategories = 6

// Category maps a weighted dimension to its question indices.
type Category struct {
	ID        int
	Name      string
	Weight    float64
	Questions []int // 1-based question numbers
}

// Config is the process-wide scoring table: category weights, question
// assignments, and tier boundaries on the 28-point scale. It is the single
// source of truth shared by individual and organizational computations.
// Loaded once at startup and never mutated; hot reload swaps the whole value.
type Config struct {
	Categories []Category

	// Inclusive tier upper bounds on the rounded 28-point composite.
	CrisisMax int
	AtRiskMax int
	MixedMax  int
	SafeMax   int

	NormalizedMin int
	NormalizedMax int

	// Weighted-point bounds: weight * num_questions summed over categories,
	// at answer extremes 4.0 and 1.0 respectively.
	MaxTotalPoints float64
	MinTotalPoints float64

	// Missing-answer policy.
	NeutralAnswer     float64
	MaxMissingAnswers int
}

// DefaultConfig returns the canonical scoring table. Weights are fixed policy:
// critical categories 3.0, severe 2.5, moderate 2.0.
func DefaultConfig() Config {
	return Config{
		Categories: []Category{
			{ID: CategoryPowerAbuse, Name: "Power_Abuse_Suppression", Weight: 3.0, Questions: []int{1, 2, 3, 4}},
			{ID: CategoryDiscrimination, Name: "Discrimination_Exclusion", Weight: 2.5, Questions: []int{5, 6, 7}},
			{ID: CategoryManipulation, Name: "Manipulative_Work_Culture", Weight: 2.0, Questions: []int{8, 9, 10}},
			{ID: CategoryAccountability, Name: "Failure_Of_Accountability", Weight: 3.0, Questions: []int{11, 12, 13, 14}},
			{ID: CategoryMentalHealth, Name: "Mental_Health_Harm", Weight: 2.5, Questions: []int{15, 16, 17, 18}},
			{ID: CategoryVoiceAutonomy, Name: "Erosion_Voice_Autonomy", Weight: 2.0, Questions: []int{19, 20, 21, 22}},
		},
		CrisisMax:         12,
		AtRiskMax:         16,
		MixedMax:          20,
		SafeMax:           24,
		NormalizedMin:     7,
		NormalizedMax:     28,
		MaxTotalPoints:    55.5,
		MinTotalPoints:    13.875,
		NeutralAnswer:     2.5,
		MaxMissingAnswers: 4,
	}
}

// TierFor maps a rounded composite on the 28-point scale to its tier.
// Boundaries are inclusive on the upper side of each tier.
func (c Config) TierFor(composite int) types.Tier {
	switch {
	case composite <= c.CrisisMax:
		return types.TierCrisis
	case composite <= c.AtRiskMax:
		return types.TierAtRisk
	case composite <= c.MixedMax:
		return types.TierMixed
	case composite <= c.SafeMax:
		return types.TierSafe
	default:
		return types.TierThriving
	}
}

// CategoryRiskLevel bands a 1.0-4.0 category mean into the five tiers.
func CategoryRiskLevel(mean float64) types.Tier {
	switch {
	case mean < 1.5:
		return types.TierCrisis
	case mean < 2.5:
		return types.TierAtRisk
	case mean < 3.0:
		return types.TierMixed
	case mean < 3.5:
		return types.TierSafe
	default:
		return types.TierThriving
	}
}
