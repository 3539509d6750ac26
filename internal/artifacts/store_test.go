package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreEmptyDirUsesDefaults(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	bundle := store.Current()
	require.NotNil(t, bundle)
	assert.Equal(t, "builtin-v1/builtin-v1/builtin-v1", bundle.Version)
	assert.NotNil(t, bundle.Ensemble)
	assert.NotNil(t, bundle.Text)
	assert.NotNil(t, bundle.Turnover)
	assert.Equal(t, DefaultNumFeatures, bundle.Ensemble.NumFeatures)
}

func TestNewStoreRejectsCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnsembleFile), []byte("{not json"), 0o644))

	_, err := NewStore(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnsembleFile)
}

func TestReloadSwapsBundle(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	before := store.Current()

	turnover := DefaultTurnover()
	turnover.Version = "retrained-v2"
	require.NoError(t, store.Save(TurnoverFile, turnover))
	require.NoError(t, store.Reload())

	after := store.Current()
	assert.Equal(t, "builtin-v1/builtin-v1/retrained-v2", after.Version)

	// The pre-reload snapshot is untouched; in-flight scoring that captured
	// it keeps consistent models.
	assert.Equal(t, "builtin-v1/builtin-v1/builtin-v1", before.Version)
	assert.NotSame(t, before, after)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	ensemble := DefaultEnsemble()
	ensemble.Version = "published-v3"
	require.NoError(t, store.Save(EnsembleFile, ensemble))
	require.NoError(t, store.Reload())

	loaded := store.Current().Ensemble
	assert.Equal(t, "published-v3", loaded.Version)
	assert.Equal(t, ensemble.NumFeatures, loaded.NumFeatures)
	assert.InDelta(t, ensemble.Blend.Forest, loaded.Blend.Forest, 1e-12)
	assert.Len(t, loaded.Forest.Categories, len(ensemble.Forest.Categories))
}

func TestDefaultTextClassifierShape(t *testing.T) {
	text := DefaultTextClassifier()

	require.Len(t, text.Classes, len(TextClasses))
	require.Len(t, text.Weights, len(TextClasses))
	require.Len(t, text.Biases, len(TextClasses))

	for i, row := range text.Weights {
		assert.Len(t, row, len(text.Vocabulary), "class %s", text.Classes[i])
	}
	for _, class := range TextClasses {
		_, ok := text.Thresholds[class]
		assert.True(t, ok, "class %s needs a decision threshold", class)
	}
}
