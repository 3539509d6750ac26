package privacy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hseg-analytics/riskmeter/internal/cache"
	"github.com/hseg-analytics/riskmeter/internal/monitoring"
	"github.com/hseg-analytics/riskmeter/internal/store"
)

// DefaultRetentionDays is how long individual assessments are kept before
// the scheduled purge removes them.
const DefaultRetentionDays = 365

// Service handles respondent-data protection: anonymized identifiers,
// right-to-erasure deletion, and scheduled retention cleanup.
type Service struct {
	results   store.ResultStore
	snapshots *cache.SnapshotCache
	logger    *monitoring.Logger
}

// NewService creates a privacy service over the result store.
func NewService(results store.ResultStore, snapshots *cache.SnapshotCache, logger *monitoring.Logger) *Service {
	return &Service{results: results, snapshots: snapshots, logger: logger}
}

// AnonymizeRespondent derives the stable anonymous identifier intake uses
// for response IDs. Raw personal identifiers never reach the engine.
func AnonymizeRespondent(orgID, externalID string) string {
	hash := sha256.Sum256([]byte(orgID + ":" + externalID))
	return hex.EncodeToString(hash[:])
}

// DeleteOrgData removes every stored assessment for the organization and
// drops its cached snapshots.
func (s *Service) DeleteOrgData(ctx context.Context, orgID string) (int64, error) {
	deleted, err := s.results.DeleteByOrg(ctx, orgID)
	if err != nil {
		return 0, err
	}
	s.snapshots.Invalidate(orgID)

	s.logger.Info("organization data deleted",
		"org_id", orgID,
		"assessments_deleted", deleted,
	)
	return deleted, nil
}

// RetentionInfo describes the active retention policy.
func (s *Service) RetentionInfo() map[string]interface{} {
	return map[string]interface{}{
		"assessment_retention_days": DefaultRetentionDays,
		"snapshot_cache_minutes":    15,
		"anonymization_method":      "SHA-256",
		"deletion_scope":            "all assessments for the organization",
	}
}

// RunRetentionCleanup purges assessments older than the retention window.
func (s *Service) RunRetentionCleanup(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	purged, err := s.results.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		s.logger.Info("retention cleanup completed",
			"cutoff", cutoff.Format(time.RFC3339),
			"assessments_purged", purged,
		)
	}
	return nil
}

// StartRetentionLoop runs the cleanup daily until ctx is cancelled.
func (s *Service) StartRetentionLoop(ctx context.Context, retentionDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunRetentionCleanup(ctx, retentionDays); err != nil {
				s.logger.Error("retention cleanup failed", "error", err)
			}
		}
	}
}
