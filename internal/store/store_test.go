package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hseg-analytics/riskmeter/internal/monitoring"
	"github.com/hseg-analytics/riskmeter/internal/types"
)

func sampleAssessment(orgID, responseID string) types.Assessment {
	return types.Assessment{
		Individual: types.HSEGResult{
			ResultID:       "result-" + responseID,
			ResponseID:     responseID,
			OrgID:          orgID,
			CompositeScore: 18,
			Tier:           types.TierMixed,
			CategoryScores: []types.CategoryScore{
				{CategoryID: 1, Name: "Power_Abuse_Suppression", Mean: 2.5, Weight: 3.0},
			},
		},
		Text: &types.TextRiskResult{
			Tier:                types.TextTierLow,
			TriggeredCategories: []string{"workplace_toxicity"},
			ClassLikelihoods:    map[string]float64{"neutral_positive": 0.8},
		},
	}
}

// storeUnderTest runs the shared contract suite against each implementation.
func storeUnderTest(t *testing.T, name string, build func(t *testing.T) ResultStore) {
	ctx := context.Background()

	t.Run(name+" append and list", func(t *testing.T) {
		s := build(t)
		defer s.Close()

		require.NoError(t, s.Append(ctx, sampleAssessment("org-1", "resp-1")))
		require.NoError(t, s.Append(ctx, sampleAssessment("org-1", "resp-2")))
		require.NoError(t, s.Append(ctx, sampleAssessment("org-2", "resp-3")))

		got, err := s.ListByOrg(ctx, "org-1")
		require.NoError(t, err)
		assert.Len(t, got, 2)

		count, err := s.CountByOrg(ctx, "org-1")
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		other, err := s.ListByOrg(ctx, "org-2")
		require.NoError(t, err)
		assert.Len(t, other, 1)
	})

	t.Run(name+" unknown org is empty", func(t *testing.T) {
		s := build(t)
		defer s.Close()

		got, err := s.ListByOrg(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, got)

		count, err := s.CountByOrg(ctx, "nope")
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run(name+" delete by org", func(t *testing.T) {
		s := build(t)
		defer s.Close()

		require.NoError(t, s.Append(ctx, sampleAssessment("org-1", "resp-1")))
		require.NoError(t, s.Append(ctx, sampleAssessment("org-1", "resp-2")))
		require.NoError(t, s.Append(ctx, sampleAssessment("org-2", "resp-3")))

		deleted, err := s.DeleteByOrg(ctx, "org-1")
		require.NoError(t, err)
		assert.EqualValues(t, 2, deleted)

		count, err := s.CountByOrg(ctx, "org-1")
		require.NoError(t, err)
		assert.Zero(t, count)

		// Other organizations are untouched.
		count, err = s.CountByOrg(ctx, "org-2")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run(name+" purge older than cutoff", func(t *testing.T) {
		s := build(t)
		defer s.Close()

		old := sampleAssessment("org-1", "resp-old")
		old.Individual.ScoredAt = time.Now().AddDate(0, 0, -400)
		recent := sampleAssessment("org-1", "resp-new")
		recent.Individual.ScoredAt = time.Now()

		require.NoError(t, s.Append(ctx, old))
		require.NoError(t, s.Append(ctx, recent))

		purged, err := s.PurgeOlderThan(ctx, time.Now().AddDate(0, 0, -365))
		require.NoError(t, err)
		assert.EqualValues(t, 1, purged)

		got, err := s.ListByOrg(ctx, "org-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "resp-new", got[0].Individual.ResponseID)
	})

	t.Run(name+" returned slices are isolated", func(t *testing.T) {
		s := build(t)
		defer s.Close()

		require.NoError(t, s.Append(ctx, sampleAssessment("org-1", "resp-1")))

		first, err := s.ListByOrg(ctx, "org-1")
		require.NoError(t, err)
		first[0].Individual.CompositeScore = 7
		first[0].Individual.CategoryScores[0].Mean = 1.0
		first[0].Text.ClassLikelihoods["neutral_positive"] = 0

		second, err := s.ListByOrg(ctx, "org-1")
		require.NoError(t, err)
		assert.Equal(t, 18, second[0].Individual.CompositeScore)
		assert.InDelta(t, 2.5, second[0].Individual.CategoryScores[0].Mean, 1e-9)
		assert.InDelta(t, 0.8, second[0].Text.ClassLikelihoods["neutral_positive"], 1e-9)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, "memory", func(t *testing.T) ResultStore {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	logger := monitoring.NewLogger(slog.LevelError)
	storeUnderTest(t, "sqlite", func(t *testing.T) ResultStore {
		s, err := NewSQLiteStore(t.TempDir(), logger)
		require.NoError(t, err)
		return s
	})
}

func TestSQLiteStoreRejectsDuplicateResultID(t *testing.T) {
	logger := monitoring.NewLogger(slog.LevelError)
	s, err := NewSQLiteStore(t.TempDir(), logger)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	a := sampleAssessment("org-1", "resp-1")
	require.NoError(t, s.Append(ctx, a))
	assert.Error(t, s.Append(ctx, a))
}

func TestSQLiteStoreListsInResponseOrder(t *testing.T) {
	logger := monitoring.NewLogger(slog.LevelError)
	s, err := NewSQLiteStore(t.TempDir(), logger)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for _, id := range []string{"resp-c", "resp-a", "resp-b"} {
		require.NoError(t, s.Append(ctx, sampleAssessment("org-1", id)))
	}

	got, err := s.ListByOrg(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, want := range []string{"resp-a", "resp-b", "resp-c"} {
		assert.Equal(t, want, got[i].Individual.ResponseID, "position %d", i)
	}
}
