package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/repository"
)

// FanSenseSearch is the read-only dashboard surface. Every view is
// computed from the posts table at call time.
type FanSenseSearch interface {
	Posts(context.Context, *model.QueryRequest) (*model.QueryResponse, error)
	Hourly(context.Context, *model.QueryRequest) (*model.QueryResponse, error)
	Geo(context.Context, *model.QueryRequest) (*model.QueryResponse, error)
	TopLocations(context.Context, *model.QueryRequest) (*model.QueryResponse, error)
	Hashtags(context.Context) (*model.QueryResponse, error)
}

var _ FanSenseSearch = (*FanSenseSearchImpl)(nil)

func NewFanSenseSearch(repo repository.Service, log *zerolog.Logger) *FanSenseSearchImpl {
	return &FanSenseSearchImpl{
		repo: repo,
		log:  log,
	}
}

type FanSenseSearchImpl struct {
	repo repository.Service
	log  *zerolog.Logger
}

func (s *FanSenseSearchImpl) Posts(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	posts, err := s.repo.Posts(ctx, &repository.FilterImpl{QueryRequest: *req})
	if err != nil {
		return nil, err
	}
	return &model.QueryResponse{
		Posts: RepositoryPostsAdapter(posts),
	}, nil
}

func (s *FanSenseSearchImpl) Hourly(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	counts, err := s.repo.HourlyEmotionCounts(ctx, &repository.FilterImpl{QueryRequest: *req})
	if err != nil {
		return nil, err
	}
	return &model.QueryResponse{
		Hourly: counts,
	}, nil
}

func (s *FanSenseSearchImpl) Geo(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	counts, err := s.repo.GeoEmotionCounts(ctx, &repository.FilterImpl{QueryRequest: *req})
	if err != nil {
		return nil, err
	}
	return &model.QueryResponse{
		Geo: counts,
	}, nil
}

func (s *FanSenseSearchImpl) TopLocations(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	top, err := s.repo.TopLocations(ctx, &repository.FilterImpl{QueryRequest: *req})
	if err != nil {
		return nil, err
	}
	return &model.QueryResponse{
		TopLocations: top,
	}, nil
}

func (s *FanSenseSearchImpl) Hashtags(ctx context.Context) (*model.QueryResponse, error) {
	tags, err := s.repo.DistinctHashtags(ctx)
	if err != nil {
		return nil, err
	}
	return &model.QueryResponse{
		Hashtags: tags,
	}, nil
}
