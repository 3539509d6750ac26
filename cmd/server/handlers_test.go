package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hseg-analytics/riskmeter/internal/artifacts"
	"github.com/hseg-analytics/riskmeter/internal/cache"
	apperrors "github.com/hseg-analytics/riskmeter/internal/errors"
	"github.com/hseg-analytics/riskmeter/internal/monitoring"
	"github.com/hseg-analytics/riskmeter/internal/orgstats"
	"github.com/hseg-analytics/riskmeter/internal/predict"
	"github.com/hseg-analytics/riskmeter/internal/privacy"
	"github.com/hseg-analytics/riskmeter/internal/scoring"
	"github.com/hseg-analytics/riskmeter/internal/store"
	"github.com/hseg-analytics/riskmeter/internal/textrisk"
	"github.com/hseg-analytics/riskmeter/internal/types"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	artifactStore, err := artifacts.NewStore(t.TempDir())
	require.NoError(t, err)

	scorer := scoring.NewScorer(scoring.DefaultConfig())
	logger := monitoring.NewLogger(slog.LevelError)
	results := store.NewMemoryStore()
	snapshots := cache.NewSnapshotCache(time.Minute)
	api := &API{
		logger:     logger,
		metrics:    monitoring.NewMetrics(),
		artifacts:  artifactStore,
		predictor:  predict.NewPredictor(artifactStore, scorer, predict.Options{ConfidenceFloor: 0.6}),
		classifier: textrisk.NewClassifier(artifactStore, 0),
		aggregator: orgstats.NewAggregator(artifactStore, scorer.Config(), orgstats.DefaultGatePolicy()),
		results:    results,
		snapshots:  snapshots,
		privacy:    privacy.NewService(results, snapshots, logger),
	}

	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	r.GET("/healthz", api.Health)
	v1 := r.Group("/api/v1")
	v1.POST("/score/individual", api.ScoreIndividual)
	v1.POST("/classify/text", api.ClassifyText)
	v1.POST("/organizations/snapshot", api.OrganizationSnapshot)
	v1.POST("/artifacts/reload", api.ReloadArtifacts)
	v1.GET("/privacy/policy", api.PrivacyPolicy)
	v1.DELETE("/organizations/:org_id/data", api.DeleteOrgData)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func surveyBody(responseID string, answer float64) map[string]any {
	answers := make(map[string]float64, types.NumQuestions)
	for q := 1; q <= types.NumQuestions; q++ {
		answers[fmt.Sprintf("q%d", q)] = answer
	}
	return map[string]any{
		"response_id":      responseID,
		"org_id":           "org-1",
		"domain":           "Business",
		"survey_responses": answers,
	}
}

func TestScoreIndividualEndpoint(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/score/individual", surveyBody("resp-1", 4.0))
	require.Equal(t, http.StatusOK, w.Code)

	var assessment types.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assessment))
	assert.Equal(t, types.TierThriving, assessment.Individual.Tier)
	assert.Equal(t, "resp-1", assessment.Individual.ResponseID)
	assert.Nil(t, assessment.Text)
}

func TestScoreIndividualWithTextResponses(t *testing.T) {
	r := testRouter(t)

	body := surveyBody("resp-1", 3.5)
	body["text_responses"] = []string{"there is harassment on my team"}

	w := postJSON(t, r, "/api/v1/score/individual", body)
	require.Equal(t, http.StatusOK, w.Code)

	var assessment types.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assessment))
	require.NotNil(t, assessment.Text)
	assert.Equal(t, types.TextTierModerate, assessment.Text.Tier)
}

func TestScoreIndividualRejectsBadInput(t *testing.T) {
	r := testRouter(t)

	t.Run("missing identifiers", func(t *testing.T) {
		body := surveyBody("", 2.5)
		w := postJSON(t, r, "/api/v1/score/individual", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of range answer", func(t *testing.T) {
		body := surveyBody("resp-1", 2.5)
		body["survey_responses"].(map[string]float64)["q1"] = 9.0
		w := postJSON(t, r, "/api/v1/score/individual", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestClassifyTextEndpoint(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/classify/text", map[string]any{
		"text_responses": []string{"I want to die and can't go on"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result types.TextRiskResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, types.TextTierCrisis, result.Tier)
	assert.NotEmpty(t, result.CrisisPhrases)
}

func TestOrganizationSnapshotEndpoint(t *testing.T) {
	r := testRouter(t)

	meta := map[string]any{
		"org_id":         "org-1",
		"domain":         "Business",
		"employee_count": 30,
	}

	t.Run("insufficient sample before enough submissions", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			w := postJSON(t, r, "/api/v1/score/individual", surveyBody(fmt.Sprintf("resp-%d", i), 3.0))
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := postJSON(t, r, "/api/v1/organizations/snapshot", meta)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("snapshot once the gate passes", func(t *testing.T) {
		w := postJSON(t, r, "/api/v1/score/individual", surveyBody("resp-4", 3.0))
		require.Equal(t, http.StatusOK, w.Code)

		w = postJSON(t, r, "/api/v1/organizations/snapshot", meta)
		require.Equal(t, http.StatusOK, w.Code)

		var snapshot orgstats.OrganizationSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
		assert.Equal(t, 5, snapshot.SampleSize)
		assert.Equal(t, types.OrgTierLow, snapshot.OrgTier)

		// A second call serves the cached payload byte for byte.
		again := postJSON(t, r, "/api/v1/organizations/snapshot", meta)
		require.Equal(t, http.StatusOK, again.Code)
		assert.Equal(t, w.Body.String(), again.Body.String())
	})
}

func TestReloadAndHealthEndpoints(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/artifacts/reload", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	h := httptest.NewRecorder()
	r.ServeHTTP(h, req)
	require.Equal(t, http.StatusOK, h.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(h.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "builtin-v1/builtin-v1/builtin-v1", status["model_version"])
	assert.Contains(t, status, "metrics")
}

func TestDeleteOrgDataEndpoint(t *testing.T) {
	r := testRouter(t)

	for i := 0; i < 3; i++ {
		w := postJSON(t, r, "/api/v1/score/individual", surveyBody(fmt.Sprintf("resp-%d", i), 3.0))
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/organizations/org-1/data", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.EqualValues(t, 3, result["assessments_deleted"])
}

func TestPrivacyPolicyEndpoint(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/privacy/policy", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var policy map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &policy))
	assert.EqualValues(t, privacy.DefaultRetentionDays, policy["assessment_retention_days"])
}
