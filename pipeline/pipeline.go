// Package pipeline drives one ingestion cycle per tracked query:
// Fetch -> Normalize -> Score -> Geolocate -> Persist, in fixed-size
// batches. A batch is committed together with its checkpoint, so a
// persistence failure leaves the checkpoint untouched and the batch is
// reprocessed on the next run. Duplicates are absorbed by the store's
// idempotent upsert.
package pipeline

import (
	"context"
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid"
	"github.com/rs/zerolog"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/repository"
	"github.com/deecodes/fansense/sentiment"
	"github.com/deecodes/fansense/stream"
	"github.com/deecodes/fansense/textproc"
)

// Locator resolves a post's location, nil when unresolvable.
type Locator interface {
	Resolve(ctx context.Context, post *model.RawPost) *model.Location
}

type Pipeline struct {
	source      stream.Source
	scorer      sentiment.Scorer
	locator     Locator
	repo        repository.Service
	log         *zerolog.Logger
	batchSize   int
	ulidEntropy io.Reader
}

func New(source stream.Source, scorer sentiment.Scorer, locator Locator, repo repository.Service, batchSize int, log *zerolog.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = 100
	}
	t := time.Now()
	return &Pipeline{
		source:      source,
		scorer:      scorer,
		locator:     locator,
		repo:        repo,
		log:         log,
		batchSize:   batchSize,
		ulidEntropy: ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0),
	}
}

// Run executes one ingestion cycle over every active tracked query.
// A failing query does not stop the others.
func (p *Pipeline) Run(ctx context.Context) error {
	queries, err := p.repo.TrackedQueries(ctx, true)
	if err != nil {
		return err
	}
	for _, tq := range queries {
		if err := p.RunQuery(ctx, tq.Query); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Error().Err(err).Str("query", tq.Query).Msg("ingestion cycle failed")
		}
	}
	return nil
}

// RunQuery pulls batches for one tracked query, resuming from its
// checkpoint, until the source is exhausted.
func (p *Pipeline) RunQuery(ctx context.Context, query string) error {
	cp, err := p.repo.Checkpoint(ctx, query)
	if err != nil {
		return err
	}
	sinceID := ""
	if cp != nil {
		sinceID = cp.LastPostID
	}

	runID, err := p.newRunID()
	if err != nil {
		return err
	}

	nextToken := ""
	for {
		page, err := p.source.Search(ctx, query, sinceID, nextToken, p.batchSize)
		if err != nil {
			return err
		}
		if len(page.Posts) == 0 {
			return nil
		}

		records := p.enrich(ctx, query, runID, page.Posts)
		if len(records) > 0 {
			batch := &repository.Batch{
				Query:      query,
				RunID:      runID,
				Posts:      records,
				Checkpoint: advanceCheckpoint(cp, query, records),
			}
			if err := p.repo.CommitBatch(ctx, batch); err != nil {
				return err
			}
			cp = batch.Checkpoint
			p.log.Info().Str("query", query).Str("run_id", runID).
				Int("posts", len(records)).Msg("batch persisted")
		}

		nextToken = page.NextToken
		if nextToken == "" {
			return nil
		}
	}
}

// enrich turns raw posts into enriched records. Malformed posts are
// skipped, a failed location resolution degrades that record to null
// location fields, sentiment still applies.
func (p *Pipeline) enrich(ctx context.Context, query, runID string, posts []*model.RawPost) []*model.EnrichedPost {
	records := make([]*model.EnrichedPost, 0, len(posts))
	for _, post := range posts {
		if post.ID == "" {
			p.log.Warn().Str("query", query).Msg("skipping post without id")
			continue
		}

		scores := p.scorer.Score(textproc.ForScoring(post.Text))
		record := &model.EnrichedPost{
			RawPost:     *post,
			Scores:      &scores,
			Emotion:     sentiment.Discretize(scores.Compound),
			Location:    p.locator.Resolve(ctx, post),
			Hashtags:    textproc.Hashtags(post.Text),
			Mentions:    textproc.Mentions(post.Text),
			Query:       query,
			RunID:       runID,
			CollectedAt: time.Now().UTC(),
		}
		records = append(records, record)
	}
	return records
}

func (p *Pipeline) newRunID() (string, error) {
	t := time.Now()
	id, err := ulid.New(ulid.Timestamp(t), p.ulidEntropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// advanceCheckpoint returns the checkpoint after this batch: the newest
// post by creation time, ties broken by id.
func advanceCheckpoint(prev *repository.Checkpoint, query string, records []*model.EnrichedPost) *repository.Checkpoint {
	cp := &repository.Checkpoint{Query: query}
	if prev != nil {
		cp.LastPostID = prev.LastPostID
		cp.LastCreatedAt = prev.LastCreatedAt
	}
	for _, r := range records {
		if r.CreatedAt.After(cp.LastCreatedAt) ||
			(r.CreatedAt.Equal(cp.LastCreatedAt) && r.ID > cp.LastPostID) {
			cp.LastPostID = r.ID
			cp.LastCreatedAt = r.CreatedAt
		}
	}
	return cp
}
