package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

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

// API holds the wired scoring pipeline behind the HTTP handlers.
type API struct {
	logger     *monitoring.Logger
	metrics    *monitoring.Metrics
	artifacts  *artifacts.Store
	predictor  *predict.Predictor
	classifier *textrisk.Classifier
	aggregator *orgstats.Aggregator
	results    store.ResultStore
	snapshots  *cache.SnapshotCache
	privacy    *privacy.Service
}

// ScoreIndividual runs the full individual pipeline: ensemble scoring, text
// classification when free-text answers are present, and persistence.
func (a *API) ScoreIndividual(c *gin.Context) {
	start := time.Now()

	var resp types.SurveyResponse
	if err := c.ShouldBindJSON(&resp); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	if resp.ResponseID == "" || resp.OrgID == "" {
		c.Error(apperrors.NewValidationError("response_id and org_id are required", nil))
		return
	}

	individual, err := a.predictor.Score(&resp)
	if err != nil {
		c.Error(err)
		return
	}

	assessment := types.Assessment{Individual: *individual}
	if len(resp.TextResponses) > 0 {
		composite100 := scoring.Composite100(individual.CompositeScore)
		text := a.classifier.Classify(resp.TextResponses, &composite100)
		assessment.Text = text
		a.metrics.RecordTextClassified(text.Tier == types.TextTierCrisis)
		a.logger.TextRiskLogger(string(text.Tier), text.KeywordScore, len(text.CrisisPhrases), time.Since(start))
	}

	if err := a.results.Append(c.Request.Context(), assessment); err != nil {
		c.Error(apperrors.NewInternalError("failed to persist assessment", err))
		return
	}
	a.snapshots.Invalidate(individual.OrgID)

	a.metrics.RecordIndividualScored(individual.IsHeuristicFallback)
	a.logger.ScoringLogger(individual.ResponseID, individual.CompositeScore,
		string(individual.Tier), individual.Confidence, individual.IsHeuristicFallback, time.Since(start))

	c.JSON(http.StatusOK, assessment)
}

// classifyRequest is the standalone text classification input.
type classifyRequest struct {
	Texts        []string `json:"text_responses" binding:"required"`
	Composite100 *float64 `json:"overall_hseg_score_100,omitempty"`
}

// ClassifyText runs the hybrid text classifier without survey scoring.
func (a *API) ClassifyText(c *gin.Context) {
	start := time.Now()

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body", map[string]string{"body": err.Error()}))
		return
	}

	result := a.classifier.Classify(req.Texts, req.Composite100)
	a.metrics.RecordTextClassified(result.Tier == types.TextTierCrisis)
	a.logger.TextRiskLogger(string(result.Tier), result.KeywordScore, len(result.CrisisPhrases), time.Since(start))

	c.JSON(http.StatusOK, result)
}

// OrganizationSnapshot aggregates an organization's stored assessments into
// a snapshot, serving a cached copy when the result set has not grown.
func (a *API) OrganizationSnapshot(c *gin.Context) {
	start := time.Now()

	var meta types.OrgMetadata
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	if meta.OrgID == "" || meta.EmployeeCount < 1 {
		c.Error(apperrors.NewValidationError("org_id and employee_count are required", nil))
		return
	}

	count, err := a.results.CountByOrg(c.Request.Context(), meta.OrgID)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to read result set", err))
		return
	}

	key := cache.Key(meta.OrgID, count)
	if payload, ok := a.snapshots.Get(key); ok {
		a.metrics.RecordSnapshot(true)
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	assessments, err := a.results.ListByOrg(c.Request.Context(), meta.OrgID)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to load result set", err))
		return
	}

	snapshot, err := a.aggregator.Aggregate(meta, assessments)
	if err != nil {
		c.Error(err)
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to encode snapshot", err))
		return
	}
	a.snapshots.Set(key, payload)
	a.metrics.RecordSnapshot(false)

	a.logger.AggregationLogger(meta.OrgID, snapshot.SampleSize, string(snapshot.OrgTier),
		snapshot.PredictedTurnoverRate, time.Since(start))

	c.Data(http.StatusOK, "application/json", payload)
}

// ReloadArtifacts hot-swaps the model bundle. In-flight requests keep the
// snapshot they already hold.
func (a *API) ReloadArtifacts(c *gin.Context) {
	if err := a.artifacts.Reload(); err != nil {
		a.logger.ArtifactLogger("reload", "", err)
		c.Error(apperrors.NewModelUnavailableError("bundle", err))
		return
	}

	version := a.artifacts.Current().Version
	a.metrics.RecordArtifactReload()
	a.logger.ArtifactLogger("reload", version, nil)
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "model_version": version})
}

// PrivacyPolicy reports the active retention and anonymization policy.
func (a *API) PrivacyPolicy(c *gin.Context) {
	c.JSON(http.StatusOK, a.privacy.RetentionInfo())
}

// DeleteOrgData erases every stored assessment for an organization.
func (a *API) DeleteOrgData(c *gin.Context) {
	orgID := c.Param("org_id")
	if orgID == "" {
		c.Error(apperrors.NewValidationError("org_id is required", nil))
		return
	}

	deleted, err := a.privacy.DeleteOrgData(c.Request.Context(), orgID)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to delete organization data", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"org_id":              orgID,
		"assessments_deleted": deleted,
	})
}

// Health reports process liveness and the loaded model bundle.
func (a *API) Health(c *gin.Context) {
	bundle := a.artifacts.Current()
	status := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"metrics":   a.metrics.GetStats(),
	}
	if bundle != nil {
		status["model_version"] = bundle.Version
		status["artifacts_loaded_at"] = bundle.LoadedAt.UTC().Format(time.RFC3339)
	} else {
		status["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
