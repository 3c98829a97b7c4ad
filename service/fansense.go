package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/repository"
)

// FanSense is the admin surface: what gets tracked and how posts are
// grouped for analysis.
type FanSense interface {
	TrackQuery(context.Context, *model.TrackedQuery) error
	TrackedQueries(context.Context, bool) ([]*model.TrackedQuery, error)
	CreateTeam(context.Context, *model.Team) (*model.Team, error)
	Teams(context.Context) ([]*model.Team, error)
	CreateEvent(context.Context, *model.Event) (*model.Event, error)
	Events(context.Context) ([]*model.Event, error)
	BackfillHashtags(context.Context) (int, error)
}

var _ FanSense = (*FanSenseImpl)(nil)

func NewFanSense(repo repository.Service, log *zerolog.Logger) *FanSenseImpl {
	return &FanSenseImpl{
		repo: repo,
		log:  log,
	}
}

type FanSenseImpl struct {
	repo repository.Service
	log  *zerolog.Logger
}

func (f *FanSenseImpl) TrackQuery(ctx context.Context, req *model.TrackedQuery) error {
	return f.repo.UpsertTrackedQuery(ctx, req.Query, req.Active)
}

func (f *FanSenseImpl) TrackedQueries(ctx context.Context, activeOnly bool) ([]*model.TrackedQuery, error) {
	queries, err := f.repo.TrackedQueries(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return RepositoryTrackedQueriesAdapter(queries), nil
}

func (f *FanSenseImpl) CreateTeam(ctx context.Context, req *model.Team) (*model.Team, error) {
	id, err := f.repo.CreateTeam(ctx, &repository.Team{
		Label:   &req.Label,
		Queries: req.Queries,
	})
	if err != nil {
		return nil, err
	}
	return &model.Team{
		ID:      id,
		Label:   req.Label,
		Queries: req.Queries,
	}, nil
}

func (f *FanSenseImpl) Teams(ctx context.Context) ([]*model.Team, error) {
	teams, err := f.repo.Teams(ctx)
	if err != nil {
		return nil, err
	}
	return RepositoryTeamsAdapter(teams), nil
}

func (f *FanSenseImpl) CreateEvent(ctx context.Context, req *model.Event) (*model.Event, error) {
	id, err := f.repo.CreateEvent(ctx, &repository.Event{
		Label:    &req.Label,
		TeamRef:  req.TeamID,
		Queries:  req.Queries,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		return nil, err
	}
	out := *req
	out.ID = id
	return &out, nil
}

func (f *FanSenseImpl) Events(ctx context.Context) ([]*model.Event, error) {
	events, err := f.repo.Events(ctx)
	if err != nil {
		return nil, err
	}
	return RepositoryEventsAdapter(events), nil
}

// BackfillHashtags re-extracts hashtags for older rows ingested before
// entity extraction existed.
func (f *FanSenseImpl) BackfillHashtags(ctx context.Context) (int, error) {
	updated, err := f.repo.BackfillHashtags(ctx)
	if err != nil {
		return 0, err
	}
	f.log.Info().Int("updated", updated).Msg("hashtag backfill complete")
	return updated, nil
}
