package artifacts

// Embedded default artifacts, used when an artifact file is absent from the
// artifact directory. They reproduce the documented heuristic behavior of the
// pipeline (survey-driven category means, keyword-leaning text classes, the
// baseline turnover curve) so the engine is fully functional out of the box.

// Feature-vector layout shared with the predictor: answers occupy the first
// 22 slots on the raw 1.0-4.0 scale.
const DefaultNumFeatures = 50

// Question index sets per category, mirroring the scoring table.
var defaultCategoryQuestions = [][]int{
	{1, 2, 3, 4},
	{5, 6, 7},
	{8, 9, 10},
	{11, 12, 13, 14},
	{15, 16, 17, 18},
	{19, 20, 21, 22},
}

// TextClasses is the canonical class order of the text classifier: the six
// HSEG categories followed by the three personal-distress classes.
var TextClasses = []string{
	"power_abuse",
	"discrimination",
	"manipulation",
	"accountability",
	"mental_health",
	"voice_autonomy",
	"severe_distress",
	"self_harm_ideation",
	"neutral_positive",
}

// discretizerTree builds a chain tree that quantizes one answer feature into
// half-step midpoints. Used as the default sub-model for tree learners.
func discretizerTree(feature int, scale, offset float64) Tree {
	thresholds := []float64{1.5, 2.0, 2.5, 3.0, 3.5}
	values := []float64{1.25, 1.75, 2.25, 2.75, 3.25, 3.75}

	nodes := make([]TreeNode, 0, 2*len(thresholds)+1)
	for i, t := range thresholds {
		internal := len(nodes)
		nodes = append(nodes,
			TreeNode{Feature: feature, Threshold: t, Left: internal + 1, Right: internal + 2},
			TreeNode{Leaf: true, Value: values[i]*scale + offset},
		)
	}
	nodes = append(nodes, TreeNode{Leaf: true, Value: values[len(values)-1]*scale + offset})
	return Tree{Nodes: nodes}
}

func defaultForest() ForestParams {
	cats := make([][]Tree, len(defaultCategoryQuestions))
	for i, questions := range defaultCategoryQuestions {
		trees := make([]Tree, 0, len(questions))
		for _, q := range questions {
			trees = append(trees, discretizerTree(q-1, 1.0, 0))
		}
		cats[i] = trees
	}
	return ForestParams{Categories: cats}
}

func defaultBoosted() BoostedParams {
	cats := make([][]Tree, len(defaultCategoryQuestions))
	for i, questions := range defaultCategoryQuestions {
		n := float64(len(questions))
		trees := make([]Tree, 0, len(questions))
		for _, q := range questions {
			// Each tree contributes its question's centered quantized value
			// so the additive total recovers the category mean.
			trees = append(trees, discretizerTree(q-1, 1.0/n, -2.5/n))
		}
		cats[i] = trees
	}
	return BoostedParams{BaseScore: 2.5, LearningRate: 1.0, Categories: cats}
}

func defaultNeural() NeuralParams {
	out := make([][]float64, len(defaultCategoryQuestions))
	biases := make([]float64, len(defaultCategoryQuestions))
	for i, questions := range defaultCategoryQuestions {
		row := make([]float64, DefaultNumFeatures)
		for _, q := range questions {
			row[q-1] = 1.0 / float64(len(questions))
		}
		out[i] = row
	}
	return NeuralParams{Layers: []DenseLayer{{Weights: out, Biases: biases, Activation: "linear"}}}
}

// DefaultEnsemble returns the built-in individual ensemble.
func DefaultEnsemble() *EnsembleArtifact {
	return &EnsembleArtifact{
		Version:     "builtin-v1",
		NumFeatures: DefaultNumFeatures,
		Blend:       BlendWeights{Forest: 0.40, Boosted: 0.35, Neural: 0.25},
		Forest:      defaultForest(),
		Boosted:     defaultBoosted(),
		Neural:      defaultNeural(),
	}
}

// DefaultTextClassifier returns the built-in bag-of-words linear classifier.
func DefaultTextClassifier() *TextClassifierArtifact {
	classTokens := map[string][]string{
		"power_abuse":        {"threatened", "intimidated", "yelled", "screamed", "retaliation", "bullied", "harassment"},
		"discrimination":     {"discriminated", "excluded", "bias", "unfair", "prejudice", "standards"},
		"manipulation":       {"manipulated", "guilt", "gaslighting", "fake", "forced", "positivity"},
		"accountability":     {"ignored", "complaint", "consequences", "covered", "investigation", "rug"},
		"mental_health":      {"anxiety", "depression", "burnout", "stressed", "overwhelmed", "breakdown", "therapy"},
		"voice_autonomy":     {"micromanaged", "powerless", "silenced", "voiceless", "consulted", "autonomy"},
		"severe_distress":    {"unbearable", "panic", "crying", "hopeless", "breaking", "devastated"},
		"self_harm_ideation": {"suicide", "suicidal", "die", "living", "harm", "end"},
		"neutral_positive":   {"great", "supportive", "love", "happy", "balance", "team", "excellent"},
	}

	vocab := map[string]int{}
	for _, class := range TextClasses {
		for _, tok := range classTokens[class] {
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = len(vocab)
			}
		}
	}

	weights := make([][]float64, len(TextClasses))
	biases := make([]float64, len(TextClasses))
	for i, class := range TextClasses {
		row := make([]float64, len(vocab))
		for _, tok := range classTokens[class] {
			row[vocab[tok]] = 2.5
		}
		weights[i] = row
		biases[i] = -1.5
	}

	return &TextClassifierArtifact{
		Version:    "builtin-v1",
		Classes:    append([]string(nil), TextClasses...),
		Vocabulary: vocab,
		Weights:    weights,
		Biases:     biases,
		// Per-class decision thresholds, calibrated separately; the
		// self-harm class trades precision for recall.
		Thresholds: map[string]float64{
			"power_abuse":        0.60,
			"discrimination":     0.60,
			"manipulation":       0.60,
			"accountability":     0.60,
			"mental_health":      0.60,
			"voice_autonomy":     0.60,
			"severe_distress":    0.55,
			"self_harm_ideation": 0.50,
			"neutral_positive":   0.70,
		},
	}
}

// DefaultTurnover returns the built-in turnover regression, a linearization
// of the baseline curve around the 18-point industry midpoint.
func DefaultTurnover() *TurnoverArtifact {
	return &TurnoverArtifact{
		Version:      "builtin-v1",
		FeatureNames: []string{"mean_composite_28", "crisis_rate", "at_risk_rate"},
		Weights:      []float64{-0.031818, 0.08, 0.04},
		Intercept:    0.7227,
	}
}

// DefaultBundle assembles the full built-in bundle.
func DefaultBundle() *Bundle {
	return &Bundle{
		Version:  "builtin-v1",
		Ensemble: DefaultEnsemble(),
		Text:     DefaultTextClassifier(),
		Turnover: DefaultTurnover(),
	}
}
