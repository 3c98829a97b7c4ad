//go:build integration
// +build integration

package postgres

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/repository"
)

func getDBHost(host string) string {
	if envHost, ok := os.LookupEnv("POSTGRES_HOST"); ok {
		host = envHost
	}
	if host == "" {
		host = "localhost"
	}
	return host
}

func executeDb(command, host, database string) error {
	host = getDBHost(host)
	cmd := exec.Command(command, "-p", "5432", "-h", host, "-U", "postgres", database)
	var out bytes.Buffer
	cmd.Stdout = &out
	return cmd.Run()
}

func createDb(host, database string) error {
	return executeDb("createdb", host, database)
}

func dropDb(t *testing.T, host, database string) {
	t.Helper()
	if err := executeDb("dropdb", host, database); err != nil {
		t.Fatalf("failed to drop database: %s", err)
	}
}

func newTestService(t *testing.T) (*ServiceImpl, func()) {
	t.Helper()
	database := fmt.Sprintf("test_%d", rand.Intn(100000))
	t.Log("using database: ", database)
	require.NoError(t, createDb("", database), "failed to create database")

	user := "postgres"
	log := zerolog.Nop()
	svc, err := New(&Config{
		Host:          getDBHost(""),
		ShouldMigrate: true,
		Database:      &database,
		User:          &user,
	}, &log)
	require.NoError(t, err, "failed to create service")

	return svc, func() { dropDb(t, "", database) }
}

func enriched(id string, createdAt time.Time, emotion model.Emotion, compound float64) *model.EnrichedPost {
	return &model.EnrichedPost{
		RawPost: model.RawPost{
			ID:        id,
			Author:    model.Author{ID: "42", Handle: "fan123"},
			Text:      "Amazing win!!! #TeamA",
			CreatedAt: createdAt,
			Lang:      "en",
			Payload:   []byte(`{"id":"` + id + `"}`),
		},
		Scores:      &model.SentimentScores{Positive: 0.7, Compound: compound},
		Emotion:     emotion,
		Hashtags:    []string{"teama"},
		Mentions:    []string{"coach"},
		Query:       "#TeamA",
		RunID:       "run-1",
		CollectedAt: time.Now(),
	}
}

func noFilter() repository.Filter {
	return &repository.FilterImpl{}
}

func TestCommitBatchAndCheckpoint(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	batch := &repository.Batch{
		Query: "#TeamA",
		RunID: "run-1",
		Posts: []*model.EnrichedPost{
			enriched("1", now, model.VeryPositive, 0.8),
			enriched("2", now.Add(time.Minute), model.Negative, -0.3),
		},
		Checkpoint: &repository.Checkpoint{
			Query:         "#TeamA",
			LastPostID:    "2",
			LastCreatedAt: now.Add(time.Minute),
		},
	}
	require.NoError(t, svc.CommitBatch(ctx, batch))

	cp, err := svc.Checkpoint(ctx, "#TeamA")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "2", cp.LastPostID)

	posts, err := svc.Posts(ctx, noFilter())
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestCheckpointMissingQuery(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	cp, err := svc.Checkpoint(context.Background(), "#Unknown")
	assert.NoError(t, err)
	assert.Nil(t, cp)
}

func TestUpsertIdempotence(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	first := enriched("1", now, model.Positive, 0.3)
	require.NoError(t, svc.CommitBatch(ctx, &repository.Batch{Query: "#TeamA", Posts: []*model.EnrichedPost{first}}))

	// Second ingestion of the same id: new enrichment, same immutable fields.
	second := enriched("1", now, model.VeryPositive, 0.9)
	second.Retweets = 12
	second.Text = "MUTATED TEXT MUST NOT STICK"
	require.NoError(t, svc.CommitBatch(ctx, &repository.Batch{Query: "#TeamA", Posts: []*model.EnrichedPost{second}}))

	posts, err := svc.Posts(ctx, noFilter())
	require.NoError(t, err)
	require.Len(t, posts, 1, "re-ingestion must never duplicate a row")

	got := posts[0]
	assert.Equal(t, "Amazing win!!! #TeamA", got.Text, "immutable text keeps the first-seen value")
	require.NotNil(t, got.SentimentCompound)
	assert.InDelta(t, 0.9, *got.SentimentCompound, 1e-9, "enrichment is last-write-wins")
	require.NotNil(t, got.Emotion)
	assert.Equal(t, string(model.VeryPositive), *got.Emotion)
	assert.Equal(t, 12, got.Retweets, "engagement counters are refreshed")
}

func TestHourlyEmotionView(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	hour := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.CommitBatch(ctx, &repository.Batch{
		Query: "#TeamA",
		Posts: []*model.EnrichedPost{
			enriched("1", hour.Add(5*time.Minute), model.Positive, 0.3),
			enriched("2", hour.Add(20*time.Minute), model.Positive, 0.4),
			enriched("3", hour.Add(40*time.Minute), model.Negative, -0.3),
		},
	}))

	counts, err := svc.HourlyEmotionCounts(ctx, noFilter())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, model.Negative, counts[0].Emotion)
	assert.Equal(t, uint(1), counts[0].Count)
	assert.Equal(t, model.Positive, counts[1].Emotion)
	assert.Equal(t, uint(2), counts[1].Count)
	assert.True(t, counts[0].Hour.Equal(hour))
}

func TestGeoEmotionViewSkipsUnresolvedPosts(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	located := enriched("1", now, model.VeryPositive, 0.8)
	located.Location = &model.Location{
		Raw:       "Austin, TX",
		Address:   "Austin, Travis County, Texas, United States",
		Latitude:  30.2672,
		Longitude: -97.7431,
		Country:   "United States",
		State:     "Texas",
		City:      "Austin",
	}
	unlocated := enriched("2", now, model.Neutral, 0)

	require.NoError(t, svc.CommitBatch(ctx, &repository.Batch{
		Query: "#TeamA",
		Posts: []*model.EnrichedPost{located, unlocated},
	}))

	geo, err := svc.GeoEmotionCounts(ctx, noFilter())
	require.NoError(t, err)
	require.Len(t, geo, 1)
	assert.Equal(t, "Austin", geo[0].City)
	assert.Equal(t, model.VeryPositive, geo[0].Emotion)
	assert.Equal(t, uint(1), geo[0].Count)

	top, err := svc.TopLocations(ctx, noFilter())
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Austin", top[0].City)
}

func TestTrackedQueries(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, svc.UpsertTrackedQuery(ctx, "#TeamA", true))
	require.NoError(t, svc.UpsertTrackedQuery(ctx, "#TeamB", true))
	require.NoError(t, svc.UpsertTrackedQuery(ctx, "#TeamB", false))

	active, err := svc.TrackedQueries(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "#TeamA", active[0].Query)

	all, err := svc.TrackedQueries(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBackfillHashtags(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	post := enriched("1", time.Now().UTC(), model.Positive, 0.3)
	post.Hashtags = nil
	require.NoError(t, svc.CommitBatch(ctx, &repository.Batch{Query: "#TeamA", Posts: []*model.EnrichedPost{post}}))

	updated, err := svc.BackfillHashtags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	tags, err := svc.DistinctHashtags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"teama"}, tags)
}
