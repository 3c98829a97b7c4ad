package repository

import (
	"context"
	"time"

	"github.com/deecodes/fansense/model"
)

type Service interface {
	// Write path, owned by the ingestion pipeline. CommitBatch upserts
	// the batch and advances the checkpoint in one transaction: either
	// everything lands or the checkpoint stays put.
	CommitBatch(ctx context.Context, batch *Batch) error
	Checkpoint(ctx context.Context, query string) (*Checkpoint, error)

	// Tracked queries drive what the pipeline pulls.
	UpsertTrackedQuery(ctx context.Context, query string, active bool) error
	TrackedQueries(ctx context.Context, activeOnly bool) ([]*TrackedQuery, error)

	// Grouping entities.
	CreateTeam(ctx context.Context, team *Team) (uint, error)
	Teams(ctx context.Context) ([]*Team, error)
	CreateEvent(ctx context.Context, event *Event) (uint, error)
	Events(ctx context.Context) ([]*Event, error)

	// Read path for the dashboard. The views are recomputed per call,
	// nothing aggregate is ever stored.
	Posts(ctx context.Context, filter Filter) ([]*Post, error)
	HourlyEmotionCounts(ctx context.Context, filter Filter) ([]*model.HourlyCount, error)
	GeoEmotionCounts(ctx context.Context, filter Filter) ([]*model.GeoCount, error)
	TopLocations(ctx context.Context, filter Filter) ([]*model.TopLocation, error)
	DistinctHashtags(ctx context.Context) ([]string, error)

	// BackfillHashtags re-extracts hashtags for rows missing them and
	// returns how many rows were updated.
	BackfillHashtags(ctx context.Context) (int, error)
}

// Batch is one pipeline cycle's worth of enriched posts for a tracked
// query, together with the checkpoint the commit should advance to.
type Batch struct {
	Query      string
	RunID      string
	Posts      []*model.EnrichedPost
	Checkpoint *Checkpoint
}

const (
	defaultLimit uint = 100
)

var _ Filter = (*FilterImpl)(nil)

type FilterImpl struct {
	model.QueryRequest
}

func (f *FilterImpl) IsDateRangeQuery() bool {
	return len(f.FromDate) > 0 && len(f.ToDate) > 0 && f.GetFromDate().Before(f.GetToDate())
}

func (f *FilterImpl) GetFromDate() time.Time {
	return f.FromDate[0]
}

func (f *FilterImpl) GetToDate() time.Time {
	return f.ToDate[0]
}

func (f *FilterImpl) IsEmotionQuery() bool {
	return len(f.Rules.Emotion) > 0 && f.Rules.Emotion[0].Valid()
}

func (f *FilterImpl) GetEmotion() model.Emotion {
	return f.Rules.Emotion[0]
}

func (f *FilterImpl) IsHashtagQuery() bool {
	return len(f.Rules.Hashtag) > 0
}

func (f *FilterImpl) GetHashtag() string {
	return f.Rules.Hashtag[0]
}

func (f *FilterImpl) GetLimit() uint {
	if len(f.Limit) == 0 {
		return defaultLimit
	}
	return f.Limit[0]
}
