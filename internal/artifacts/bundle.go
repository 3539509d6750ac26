package artifacts

import "time"

// Artifact file names inside the artifact directory.
const (
	EnsembleFile = "individual_ensemble.json"
	TextFile     = "text_classifier.json"
	TurnoverFile = "turnover_model.json"
)

// TreeNode is one node of a regression tree. Internal nodes route on
// feature <= threshold; leaves carry the prediction.
type TreeNode struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// Tree is a regression tree stored as a node array rooted at index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// ForestParams holds averaged regression trees per category.
type ForestParams struct {
	// Categories[i] are the trees for category i+1; prediction is the mean
	// of the tree outputs.
	Categories [][]Tree `json:"categories"`
}

// BoostedParams holds additive boosted trees per category.
type BoostedParams struct {
	BaseScore    float64  `json:"base_score"`
	LearningRate float64  `json:"learning_rate"`
	Categories   [][]Tree `json:"categories"`
}

// DenseLayer is one fully connected layer: out = act(W*x + b).
type DenseLayer struct {
	Weights    [][]float64 `json:"weights"` // [out][in]
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"` // "relu" or "linear"
}

// NeuralParams is a shallow MLP whose final layer emits the six category
// predictions.
type NeuralParams struct {
	Layers []DenseLayer `json:"layers"`
}

// BlendWeights is the fixed convex combination applied at inference time.
type BlendWeights struct {
	Forest  float64 `json:"forest"`
	Boosted float64 `json:"boosted"`
	Neural  float64 `json:"neural"`
}

// EnsembleArtifact is the trained individual-risk ensemble: three
// heterogeneous regressors plus their blend weights.
type EnsembleArtifact struct {
	Version     string        `json:"version"`
	NumFeatures int           `json:"num_features"`
	Blend       BlendWeights  `json:"blend_weights"`
	Forest      ForestParams  `json:"forest"`
	Boosted     BoostedParams `json:"boosted"`
	Neural      NeuralParams  `json:"neural"`
}

// TextClassifierArtifact is a bag-of-words linear classifier over the six
// HSEG categories plus three personal-distress classes. Per-class decision
// thresholds are calibrated independently, biased toward recall on Crisis.
type TextClassifierArtifact struct {
	Version    string             `json:"version"`
	Classes    []string           `json:"classes"`
	Vocabulary map[string]int     `json:"vocabulary"`
	Weights    [][]float64        `json:"weights"` // [class][vocab]
	Biases     []float64          `json:"biases"`
	Thresholds map[string]float64 `json:"thresholds"`
}

// TurnoverArtifact is a linear regression over the organizational aggregate
// feature vector; output is clamped to [0, 1] by the consumer.
type TurnoverArtifact struct {
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Intercept    float64   `json:"intercept"`
}

// Bundle is one immutable set of model artifacts. All scoring components
// read from a bundle snapshot; hot reload swaps the whole bundle at once.
type Bundle struct {
	Version  string                  `json:"version"`
	Ensemble *EnsembleArtifact       `json:"ensemble"`
	Text     *TextClassifierArtifact `json:"text"`
	Turnover *TurnoverArtifact       `json:"turnover"`
	LoadedAt time.Time               `json:"loaded_at"`
}
