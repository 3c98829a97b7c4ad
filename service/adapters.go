package service

import (
	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/repository"
)

func RepositoryPostsAdapter(in []*repository.Post) []*model.EnrichedPost {
	var out []*model.EnrichedPost
	for _, p := range in {
		out = append(out, repositoryPostAdapter(p))
	}
	return out
}

func repositoryPostAdapter(p *repository.Post) *model.EnrichedPost {
	post := &model.EnrichedPost{
		RawPost: model.RawPost{
			ID: p.PostID,
			Author: model.Author{
				ID:     p.AuthorID,
				Handle: p.AuthorHandle,
			},
			Text:       p.Text,
			CreatedAt:  p.CreatedAt,
			Lang:       p.Lang,
			GeoPlaceID: p.GeoPlaceID,
			Retweets:   p.Retweets,
			Favorites:  p.Favorites,
		},
		Hashtags:    p.Hashtags,
		Mentions:    p.Mentions,
		Query:       p.Query,
		RunID:       p.RunID,
		CollectedAt: p.CollectedAt,
	}
	if p.SentimentCompound != nil {
		post.Scores = &model.SentimentScores{
			Negative: deref(p.SentimentNegative),
			Neutral:  deref(p.SentimentNeutral),
			Positive: deref(p.SentimentPositive),
			Compound: *p.SentimentCompound,
		}
	}
	if p.Emotion != nil {
		post.Emotion = model.Emotion(*p.Emotion)
	}
	if p.Latitude != nil && p.Longitude != nil && p.Country != nil {
		post.Location = &model.Location{
			Raw:       derefStr(p.LocationRaw),
			Address:   derefStr(p.LocationAddress),
			Latitude:  *p.Latitude,
			Longitude: *p.Longitude,
			Country:   *p.Country,
			State:     derefStr(p.StateProvince),
			City:      derefStr(p.City),
		}
	}
	return post
}

func RepositoryTrackedQueriesAdapter(in []*repository.TrackedQuery) []*model.TrackedQuery {
	var out []*model.TrackedQuery
	for _, q := range in {
		out = append(out, &model.TrackedQuery{
			Query:  q.Query,
			Active: q.Active,
		})
	}
	return out
}

func RepositoryTeamsAdapter(in []*repository.Team) []*model.Team {
	var out []*model.Team
	for _, t := range in {
		out = append(out, &model.Team{
			ID:      t.ID,
			Label:   derefStr(t.Label),
			Queries: t.Queries,
		})
	}
	return out
}

func RepositoryEventsAdapter(in []*repository.Event) []*model.Event {
	var out []*model.Event
	for _, e := range in {
		out = append(out, &model.Event{
			ID:       e.ID,
			Label:    derefStr(e.Label),
			TeamID:   e.TeamRef,
			Queries:  e.Queries,
			StartsAt: e.StartsAt,
			EndsAt:   e.EndsAt,
		})
	}
	return out
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
