package predict

import (
	"fmt"

	"github.com/hseg-analytics/riskmeter/internal/artifacts"
	"github.com/hseg-analytics/riskmeter/internal/scoring"
)

// CategoryModel predicts the six category means from a feature vector. The
// blender is agnostic to the concrete model family behind this interface.
type CategoryModel interface {
	Name() string
	PredictCategories(features []float64) ([scoring.NumCategories]float64, error)
}

// evalTree walks a regression tree stored as a node array. The step bound
// guards against malformed artifacts with cyclic links.
func evalTree(t artifacts.Tree, features []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, fmt.Errorf("empty tree")
	}

	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Value, nil
		}
		if node.Feature < 0 || node.Feature >= len(features) {
			return 0, fmt.Errorf("tree references feature %d beyond vector of %d", node.Feature, len(features))
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, fmt.Errorf("tree link out of range: %d", idx)
		}
	}
	return 0, fmt.Errorf("tree walk exceeded node count, cyclic links suspected")
}

// forestModel averages independent regression trees per category.
type forestModel struct {
	params artifacts.ForestParams
}

func (m *forestModel) Name() string { return "random_forest" }

func (m *forestModel) PredictCategories(features []float64) ([scoring.NumCategories]float64, error) {
	var out [scoring.NumCategories]float64
	if len(m.params.Categories) != scoring.NumCategories {
		return out, fmt.Errorf("forest artifact has %d categories, want %d", len(m.params.Categories), scoring.NumCategories)
	}

	for i, trees := range m.params.Categories {
		if len(trees) == 0 {
			return out, fmt.Errorf("forest category %d has no trees", i+1)
		}
		sum := 0.0
		for _, t := range trees {
			v, err := evalTree(t, features)
			if err != nil {
				return out, err
			}
			sum += v
		}
		out[i] = sum / float64(len(trees))
	}
	return out, nil
}

// boostedModel sums shrunken tree outputs onto a base score per category.
type boostedModel struct {
	params artifacts.BoostedParams
}

func (m *boostedModel) Name() string { return "gradient_boosted" }

func (m *boostedModel) PredictCategories(features []float64) ([scoring.NumCategories]float64, error) {
	var out [scoring.NumCategories]float64
	if len(m.params.Categories) != scoring.NumCategories {
		return out, fmt.Errorf("boosted artifact has %d categories, want %d", len(m.params.Categories), scoring.NumCategories)
	}

	for i, trees := range m.params.Categories {
		pred := m.params.BaseScore
		for _, t := range trees {
			v, err := evalTree(t, features)
			if err != nil {
				return out, err
			}
			pred += m.params.LearningRate * v
		}
		out[i] = pred
	}
	return out, nil
}

// neuralModel is a shallow MLP whose final layer emits the six categories.
type neuralModel struct {
	params artifacts.NeuralParams
}

func (m *neuralModel) Name() string { return "neural" }

func (m *neuralModel) PredictCategories(features []float64) ([scoring.NumCategories]float64, error) {
	var out [scoring.NumCategories]float64
	if len(m.params.Layers) == 0 {
		return out, fmt.Errorf("neural artifact has no layers")
	}

	x := features
	for li, layer := range m.params.Layers {
		if len(layer.Weights) != len(layer.Biases) {
			return out, fmt.Errorf("layer %d has %d weight rows but %d biases", li, len(layer.Weights), len(layer.Biases))
		}
		next := make([]float64, len(layer.Weights))
		for o, row := range layer.Weights {
			if len(row) != len(x) {
				return out, fmt.Errorf("layer %d row %d width %d, input width %d", li, o, len(row), len(x))
			}
			acc := layer.Biases[o]
			for j, w := range row {
				acc += w * x[j]
			}
			if layer.Activation == "relu" && acc < 0 {
				acc = 0
			}
			next[o] = acc
		}
		x = next
	}

	if len(x) != scoring.NumCategories {
		return out, fmt.Errorf("neural output width %d, want %d", len(x), scoring.NumCategories)
	}
	copy(out[:], x)
	return out, nil
}

// weightedModel pairs a sub-model with its fixed blend weight.
type weightedModel struct {
	model  CategoryModel
	weight float64
}

// buildEnsemble wires the artifact's three regressors behind the common
// interface with their learned convex blend weights.
func buildEnsemble(a *artifacts.EnsembleArtifact) []weightedModel {
	return []weightedModel{
		{model: &forestModel{params: a.Forest}, weight: a.Blend.Forest},
		{model: &boostedModel{params: a.Boosted}, weight: a.Blend.Boosted},
		{model: &neuralModel{params: a.Neural}, weight: a.Blend.Neural},
	}
}
