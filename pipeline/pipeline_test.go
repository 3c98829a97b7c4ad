package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/repository"
	"github.com/deecodes/fansense/stream"
)

type fakeSource struct {
	pages    map[string]*stream.Page
	searches []searchCall
}

type searchCall struct {
	query     string
	sinceID   string
	nextToken string
}

func (f *fakeSource) Search(_ context.Context, query, sinceID, nextToken string, _ int) (*stream.Page, error) {
	f.searches = append(f.searches, searchCall{query, sinceID, nextToken})
	page, ok := f.pages[nextToken]
	if !ok {
		return &stream.Page{}, nil
	}
	return page, nil
}

type fakeScorer struct{}

func (fakeScorer) Score(text string) model.SentimentScores {
	if text == "" {
		return model.SentimentScores{}
	}
	return model.SentimentScores{Positive: 0.7, Compound: 0.8}
}

type fakeLocator struct {
	byID map[string]*model.Location
}

func (f *fakeLocator) Resolve(_ context.Context, post *model.RawPost) *model.Location {
	return f.byID[post.ID]
}

type fakeRepo struct {
	repository.Service

	queries     []*repository.TrackedQuery
	checkpoints map[string]*repository.Checkpoint
	batches     []*repository.Batch
	commitErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{checkpoints: map[string]*repository.Checkpoint{}}
}

func (f *fakeRepo) TrackedQueries(_ context.Context, activeOnly bool) ([]*repository.TrackedQuery, error) {
	var out []*repository.TrackedQuery
	for _, q := range f.queries {
		if !activeOnly || q.Active {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeRepo) Checkpoint(_ context.Context, query string) (*repository.Checkpoint, error) {
	return f.checkpoints[query], nil
}

func (f *fakeRepo) CommitBatch(_ context.Context, batch *repository.Batch) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.batches = append(f.batches, batch)
	f.checkpoints[batch.Query] = batch.Checkpoint
	return nil
}

func raw(id, text string, createdAt time.Time) *model.RawPost {
	return &model.RawPost{
		ID:        id,
		Author:    model.Author{ID: "42", Handle: "fan123"},
		Text:      text,
		CreatedAt: createdAt,
		Lang:      "en",
		Payload:   []byte(`{}`),
	}
}

func newPipeline(source stream.Source, locator Locator, repo repository.Service) *Pipeline {
	log := zerolog.Nop()
	return New(source, fakeScorer{}, locator, repo, 100, &log)
}

func TestRunQueryEnrichesAndCommits(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{pages: map[string]*stream.Page{
		"": {
			Posts:     []*model.RawPost{raw("2", "Amazing win!!! #TeamA @coach", now.Add(time.Minute)), raw("1", "ok game", now)},
			NextToken: "tok-2",
		},
		"tok-2": {
			Posts: []*model.RawPost{raw("3", "", now.Add(2 * time.Minute))},
		},
	}}
	locator := &fakeLocator{byID: map[string]*model.Location{
		"2": {Raw: "Austin, TX", Latitude: 30.2672, Longitude: -97.7431, Country: "United States", City: "Austin"},
	}}
	repo := newFakeRepo()

	p := newPipeline(source, locator, repo)
	require.NoError(t, p.RunQuery(context.Background(), "#TeamA"))

	require.Len(t, repo.batches, 2)
	first := repo.batches[0]
	assert.Equal(t, "#TeamA", first.Query)
	require.Len(t, first.Posts, 2)

	got := first.Posts[0]
	assert.Equal(t, model.VeryPositive, got.Emotion)
	assert.InDelta(t, 0.8, got.Scores.Compound, 1e-9)
	assert.Equal(t, []string{"teama"}, got.Hashtags)
	assert.Equal(t, []string{"coach"}, got.Mentions)
	require.NotNil(t, got.Location)
	assert.Equal(t, "United States", got.Location.Country)
	assert.Nil(t, first.Posts[1].Location, "unresolved posts keep a nil location")

	// Empty text still scores, as neutral.
	empty := repo.batches[1].Posts[0]
	assert.Equal(t, model.Neutral, empty.Emotion)

	// Both batches share one run id, checkpoint tracks the newest post.
	assert.Equal(t, first.RunID, repo.batches[1].RunID)
	assert.NotEmpty(t, first.RunID)
	cp := repo.checkpoints["#TeamA"]
	require.NotNil(t, cp)
	assert.Equal(t, "3", cp.LastPostID)
	assert.True(t, cp.LastCreatedAt.Equal(now.Add(2*time.Minute)))
}

func TestRunQueryResumesFromCheckpoint(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeSource{pages: map[string]*stream.Page{}}
	repo := newFakeRepo()
	repo.checkpoints["#TeamA"] = &repository.Checkpoint{
		Query:         "#TeamA",
		LastPostID:    "100",
		LastCreatedAt: now,
	}

	p := newPipeline(source, &fakeLocator{}, repo)
	require.NoError(t, p.RunQuery(context.Background(), "#TeamA"))

	require.Len(t, source.searches, 1)
	assert.Equal(t, "100", source.searches[0].sinceID)
}

func TestRunQuerySkipsMalformedPosts(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeSource{pages: map[string]*stream.Page{
		"": {Posts: []*model.RawPost{raw("", "no id here", now), raw("1", "fine", now)}},
	}}
	repo := newFakeRepo()

	p := newPipeline(source, &fakeLocator{}, repo)
	require.NoError(t, p.RunQuery(context.Background(), "#TeamA"))

	require.Len(t, repo.batches, 1)
	require.Len(t, repo.batches[0].Posts, 1)
	assert.Equal(t, "1", repo.batches[0].Posts[0].ID)
}

func TestRunQueryCommitFailureKeepsCheckpoint(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeSource{pages: map[string]*stream.Page{
		"": {Posts: []*model.RawPost{raw("1", "fine", now)}},
	}}
	repo := newFakeRepo()
	repo.commitErr = errors.New("connection refused")

	p := newPipeline(source, &fakeLocator{}, repo)
	err := p.RunQuery(context.Background(), "#TeamA")
	require.Error(t, err)
	assert.Nil(t, repo.checkpoints["#TeamA"], "checkpoint must not advance past a failed commit")
}

func TestRunContinuesPastFailingQuery(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeSource{pages: map[string]*stream.Page{
		"": {Posts: []*model.RawPost{raw("1", "fine", now)}},
	}}
	repo := newFakeRepo()
	repo.queries = []*repository.TrackedQuery{
		{Query: "#TeamA", Active: true},
		{Query: "#TeamB", Active: true},
		{Query: "#Dormant", Active: false},
	}
	repo.commitErr = errors.New("connection refused")

	p := newPipeline(source, &fakeLocator{}, repo)
	require.NoError(t, p.Run(context.Background()))

	// Both active queries were attempted despite the commit failures.
	require.Len(t, source.searches, 2)
	assert.Equal(t, "#TeamA", source.searches[0].query)
	assert.Equal(t, "#TeamB", source.searches[1].query)
}
