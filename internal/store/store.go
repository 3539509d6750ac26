package store

import (
	"context"
	"time"

	"github.com/hseg-analytics/riskmeter/internal/types"
)

// ResultStore persists scored assessments and serves organization result
// sets. ListByOrg returns an isolated copy: aggregation over the returned
// slice is unaffected by concurrent appends. The deletion operations back
// the privacy service.
type ResultStore interface {
	Append(ctx context.Context, a types.Assessment) error
	ListByOrg(ctx context.Context, orgID string) ([]types.Assessment, error)
	CountByOrg(ctx context.Context, orgID string) (int, error)
	DeleteByOrg(ctx context.Context, orgID string) (int64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
