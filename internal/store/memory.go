package store

import (
	"context"
	"sync"
	"time"

	"github.com/hseg-analytics/riskmeter/internal/types"
)

// MemoryStore is the in-process ResultStore used in tests and single-node
// deployments without a data directory.
type MemoryStore struct {
	mu    sync.RWMutex
	byOrg map[string][]types.Assessment
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byOrg: make(map[string][]types.Assessment)}
}

// Append stores a copy of the assessment under its organization.
func (s *MemoryStore) Append(_ context.Context, a types.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOrg[a.Individual.OrgID] = append(s.byOrg[a.Individual.OrgID], copyAssessment(a))
	return nil
}

// ListByOrg returns an isolated copy of the organization's result set.
func (s *MemoryStore) ListByOrg(_ context.Context, orgID string) ([]types.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byOrg[orgID]
	out := make([]types.Assessment, len(stored))
	for i, a := range stored {
		out[i] = copyAssessment(a)
	}
	return out, nil
}

// CountByOrg returns the number of stored assessments for the organization.
func (s *MemoryStore) CountByOrg(_ context.Context, orgID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byOrg[orgID]), nil
}

// DeleteByOrg removes the organization's entire result set.
func (s *MemoryStore) DeleteByOrg(_ context.Context, orgID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.byOrg[orgID]))
	delete(s.byOrg, orgID)
	return n, nil
}

// PurgeOlderThan removes assessments scored before the cutoff.
func (s *MemoryStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := int64(0)
	for orgID, stored := range s.byOrg {
		kept := stored[:0]
		for _, a := range stored {
			if a.Individual.ScoredAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == 0 {
			delete(s.byOrg, orgID)
			continue
		}
		s.byOrg[orgID] = kept
	}
	return removed, nil
}

// Close releases nothing; present to satisfy ResultStore.
func (s *MemoryStore) Close() error { return nil }

// copyAssessment deep-copies the slices and pointer fields so callers can
// never alias stored state.
func copyAssessment(a types.Assessment) types.Assessment {
	out := a
	out.Individual.CategoryScores = append([]types.CategoryScore(nil), a.Individual.CategoryScores...)
	out.Individual.ContributingFactors = append([]string(nil), a.Individual.ContributingFactors...)
	out.Individual.Warnings = append([]string(nil), a.Individual.Warnings...)

	if a.Text != nil {
		text := *a.Text
		text.TriggeredCategories = append([]string(nil), a.Text.TriggeredCategories...)
		text.CrisisPhrases = append([]string(nil), a.Text.CrisisPhrases...)
		text.Warnings = append([]string(nil), a.Text.Warnings...)
		if a.Text.ClassLikelihoods != nil {
			text.ClassLikelihoods = make(map[string]float64, len(a.Text.ClassLikelihoods))
			for k, v := range a.Text.ClassLikelihoods {
				text.ClassLikelihoods[k] = v
			}
		}
		out.Text = &text
	}
	return out
}
