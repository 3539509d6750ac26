package textrisk

import (
	"math"
	"sort"
	"strings"

	"github.com/hseg-analytics/riskmeter/internal/artifacts"
	"github.com/hseg-analytics/riskmeter/internal/types"
)

// maxTextLen caps each free-text answer before matching.
const maxTextLen = 4096

// Composite thresholds on the 0-100 normalized scale (secondary signal).
const (
	compositeCrisisMax   = 40.0
	compositeHighMax     = 50.0
	compositeModerateMax = 60.0
)

// Keyword-score escalation thresholds.
const (
	keywordCrisisMin   = 3.0
	keywordHighMin     = 2.0
	keywordModerateMin = 1.0
)

// Classifier is the hybrid keyword-rule + statistical text classifier.
// Stateless; takes a read-only artifact snapshot per call.
type Classifier struct {
	store             *artifacts.Store
	selfHarmThreshold float64
}

// NewClassifier creates a classifier. selfHarmThreshold overrides the
// artifact's calibrated self-harm cutoff when > 0.
func NewClassifier(store *artifacts.Store, selfHarmThreshold float64) *Classifier {
	return &Classifier{store: store, selfHarmThreshold: selfHarmThreshold}
}

// signal is one tagged input to the tier decision. Combining them in a
// single precedence function keeps the crisis-always-wins invariant
// auditable and independently testable.
type keywordSignal struct {
	score         float64
	crisisPhrases []string
	triggered     []string
}

type statisticalSignal struct {
	likelihoods map[string]float64
	thresholds  map[string]float64
}

type compositeSignal struct {
	value float64 // 0-100 normalized
}

// Classify runs the hybrid pipeline over up to three free-text answers.
// composite100, when non-nil, is the respondent's HSEG composite on the
// 0-100 scale and acts as a secondary escalation signal only.
func (c *Classifier) Classify(texts []string, composite100 *float64) *types.TextRiskResult {
	normalized := normalizeTexts(texts)

	kw := scanKeywords(normalized)

	var stat *statisticalSignal
	statOK := false
	if bundle := c.store.Current(); bundle != nil && bundle.Text != nil {
		if likelihoods, ok := evalLinearClassifier(bundle.Text, normalized); ok {
			thresholds := bundle.Text.Thresholds
			if c.selfHarmThreshold > 0 {
				thresholds = overrideThreshold(thresholds, "self_harm_ideation", c.selfHarmThreshold)
			}
			stat = &statisticalSignal{likelihoods: likelihoods, thresholds: thresholds}
			statOK = true
		}
	}

	var comp *compositeSignal
	if composite100 != nil {
		comp = &compositeSignal{value: *composite100}
	}

	tier := decideTier(kw, stat, comp)

	result := &types.TextRiskResult{
		Tier:                tier,
		KeywordScore:        kw.score,
		TriggeredCategories: kw.triggered,
		CrisisPhrases:       kw.crisisPhrases,
		Confidence:          confidence(kw, stat, normalized),
		StatisticalLayerOK:  statOK,
	}
	if stat != nil {
		result.ClassLikelihoods = stat.likelihoods
	}
	if !statOK {
		result.Warnings = append(result.Warnings, "statistical layer unavailable, keyword layer governed")
	}
	return result
}

// decideTier applies the deterministic precedence rule. Self-harm/crisis
// detection is a hard safety override evaluated first; the keyword and
// composite layers can only escalate the statistical tier, never lower it;
// statistical-layer failure floors the outcome at Moderate_Risk so an error
// can never read as Low_Risk.
func decideTier(kw keywordSignal, stat *statisticalSignal, comp *compositeSignal) types.TextTier {
	if len(kw.crisisPhrases) > 0 || kw.score >= keywordCrisisMin {
		return types.TextTierCrisis
	}
	if stat != nil && stat.likelihoods["self_harm_ideation"] >= stat.threshold("self_harm_ideation") {
		return types.TextTierCrisis
	}
	if comp != nil && comp.value <= compositeCrisisMax {
		return types.TextTierCrisis
	}

	tier := types.TextTierLow
	if stat != nil {
		tier = statisticalTier(stat)
	} else {
		// Unknown statistical outcome maps to Moderate; keyword evidence may
		// escalate it further below.
		tier = types.TextTierModerate
	}

	if kw.score >= keywordHighMin || (comp != nil && comp.value <= compositeHighMax) {
		tier = moreSevere(tier, types.TextTierHigh)
	}
	if kw.score >= keywordModerateMin || (comp != nil && comp.value <= compositeModerateMax) {
		tier = moreSevere(tier, types.TextTierModerate)
	}
	return tier
}

// statisticalTier derives the statistical layer's own tier from per-class
// likelihoods against their calibrated thresholds.
func statisticalTier(stat *statisticalSignal) types.TextTier {
	if stat.likelihoods["severe_distress"] >= stat.threshold("severe_distress") {
		return types.TextTierHigh
	}
	for _, class := range artifacts.TextClasses[:6] {
		if stat.likelihoods[class] >= stat.threshold(class) {
			return types.TextTierModerate
		}
	}
	return types.TextTierLow
}

func (s *statisticalSignal) threshold(class string) float64 {
	if t, ok := s.thresholds[class]; ok {
		return t
	}
	return 0.5
}

var tierSeverity = map[types.TextTier]int{
	types.TextTierLow:      0,
	types.TextTierModerate: 1,
	types.TextTierHigh:     2,
	types.TextTierCrisis:   3,
}

func moreSevere(a, b types.TextTier) types.TextTier {
	if tierSeverity[a] >= tierSeverity[b] {
		return a
	}
	return b
}

// scanKeywords matches the fixed phrase tables against each text. A phrase
// scores at most once per category per text.
func scanKeywords(texts []string) keywordSignal {
	kw := keywordSignal{}
	triggered := map[string]bool{}

	for _, text := range texts {
		for _, cat := range keywordTable {
			for _, phrase := range cat.Phrases {
				if strings.Contains(text, phrase) {
					kw.score += cat.Weight
					triggered[cat.Name] = true
					if cat.Name == "immediate_crisis" {
						kw.crisisPhrases = append(kw.crisisPhrases, phrase)
					}
				}
			}
		}
	}

	for name := range triggered {
		kw.triggered = append(kw.triggered, name)
	}
	sort.Strings(kw.triggered)
	return kw
}

// evalLinearClassifier scores binarized token counts through the per-class
// logistic weights. Returns false when the artifact is malformed; callers
// treat that as a statistical-layer failure.
func evalLinearClassifier(a *artifacts.TextClassifierArtifact, texts []string) (map[string]float64, bool) {
	if len(a.Classes) == 0 || len(a.Weights) != len(a.Classes) || len(a.Biases) != len(a.Classes) {
		return nil, false
	}

	present := map[int]bool{}
	for _, text := range texts {
		for _, tok := range tokenize(text) {
			if idx, ok := a.Vocabulary[tok]; ok {
				present[idx] = true
			}
		}
	}

	likelihoods := make(map[string]float64, len(a.Classes))
	for i, class := range a.Classes {
		row := a.Weights[i]
		acc := a.Biases[i]
		for idx := range present {
			if idx < 0 || idx >= len(row) {
				return nil, false
			}
			acc += row[idx]
		}
		likelihoods[class] = sigmoid(acc)
	}
	return likelihoods, true
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// normalizeTexts lowercases, trims, and length-caps up to MaxTextResponses
// answers, dropping empties.
func normalizeTexts(texts []string) []string {
	out := make([]string, 0, types.MaxTextResponses)
	for _, t := range texts {
		if len(out) == types.MaxTextResponses {
			break
		}
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > maxTextLen {
			t = t[:maxTextLen]
		}
		t = strings.ToLower(t)
		t = strings.Join(strings.Fields(t), " ")
		out = append(out, t)
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
}

// emotionalIntensity estimates 0-1 intensity from emotional markers; it
// feeds confidence, never the tier.
func emotionalIntensity(texts []string) float64 {
	if len(texts) == 0 {
		return 0
	}
	count := 0
	exclaims := 0
	for _, text := range texts {
		for _, w := range emotionalWords {
			if strings.Contains(text, w) {
				count++
			}
		}
		exclaims += strings.Count(text, "!")
	}
	intensity := float64(count)*0.2 + float64(exclaims)*0.1
	if intensity > 1 {
		intensity = 1
	}
	return intensity
}

// confidence mirrors the calibrated heuristic: keyword breadth, crisis
// certainty and strong statistical signals raise it; cap at 0.95.
func confidence(kw keywordSignal, stat *statisticalSignal, texts []string) float64 {
	conf := 0.5

	if n := len(kw.triggered); n > 0 {
		boost := float64(n) * 0.1
		if boost > 0.3 {
			boost = 0.3
		}
		conf += boost
	}
	if len(kw.crisisPhrases) > 0 {
		conf += 0.2
	}
	if stat != nil {
		for _, l := range stat.likelihoods {
			if l > 0.7 {
				conf += 0.1
				break
			}
		}
	} else {
		conf -= 0.1
	}
	if emotionalIntensity(texts) > 0.5 {
		conf += 0.05
	}

	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0.1 {
		conf = 0.1
	}
	return conf
}

func overrideThreshold(thresholds map[string]float64, class string, value float64) map[string]float64 {
	out := make(map[string]float64, len(thresholds))
	for k, v := range thresholds {
		out[k] = v
	}
	out[class] = value
	return out
}
