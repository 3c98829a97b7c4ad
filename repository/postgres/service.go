package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	gormpq "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/repository"
	"github.com/deecodes/fansense/textproc"
)

const (
	defaultDatabase = "fansense"
	defaultUser     = "fansense"
)

type Config struct {
	Host          string
	Port          int
	Database      *string
	User          *string
	Password      string
	SSLMode       string
	ShouldMigrate bool
	Debug         bool
}

func New(cfg *Config, log *zerolog.Logger) (*ServiceImpl, error) {
	db, err := newDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return &ServiceImpl{
		DB:  db,
		log: log,
	}, nil
}

func newDatabase(cfg *Config) (*gorm.DB, error) {
	dbName := defaultDatabase
	if cfg.Database != nil {
		dbName = *cfg.Database
	}
	dbUser := defaultUser
	if cfg.User != nil {
		dbUser = *cfg.User
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	cred := dbUser
	if cfg.Password != "" {
		cred = fmt.Sprintf("%s:%s", dbUser, cfg.Password)
	}
	addr := fmt.Sprintf("postgresql://%s@%s:%d/%s?sslmode=%s", cred, cfg.Host, port, dbName, sslMode)
	db, err := gorm.Open("postgres", addr)
	if err != nil {
		return nil, err
	}

	db.LogMode(cfg.Debug)

	if cfg.ShouldMigrate {
		db.AutoMigrate(&repository.Post{})
		db.AutoMigrate(&repository.Checkpoint{})
		db.AutoMigrate(&repository.TrackedQuery{})
		db.AutoMigrate(&repository.Team{})
		db.AutoMigrate(&repository.Event{})
		// AutoMigrate cannot express the enum constraint on emotion.
		db.Exec(`ALTER TABLE posts DROP CONSTRAINT IF EXISTS posts_emotion_check`)
		db.Exec(`ALTER TABLE posts ADD CONSTRAINT posts_emotion_check CHECK (emotion IS NULL OR emotion IN ('very_negative','negative','neutral','positive','very_positive'))`)
	}

	return db, nil
}

var _ repository.Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	DB  *gorm.DB
	log *zerolog.Logger
}

// Immutable post columns are deliberately absent from the conflict
// update: enrichment is last-write-wins, the original post is not.
const postsOnConflict = `ON CONFLICT (post_id) DO UPDATE SET ` +
	`sentiment_negative = EXCLUDED.sentiment_negative, ` +
	`sentiment_neutral = EXCLUDED.sentiment_neutral, ` +
	`sentiment_positive = EXCLUDED.sentiment_positive, ` +
	`sentiment_compound = EXCLUDED.sentiment_compound, ` +
	`emotion = EXCLUDED.emotion, ` +
	`location_raw = EXCLUDED.location_raw, ` +
	`location_address = EXCLUDED.location_address, ` +
	`latitude = EXCLUDED.latitude, ` +
	`longitude = EXCLUDED.longitude, ` +
	`country = EXCLUDED.country, ` +
	`state_province = EXCLUDED.state_province, ` +
	`city = EXCLUDED.city, ` +
	`retweets = EXCLUDED.retweets, ` +
	`favorites = EXCLUDED.favorites, ` +
	`hashtags = EXCLUDED.hashtags, ` +
	`mentions = EXCLUDED.mentions, ` +
	`query = EXCLUDED.query, ` +
	`run_id = EXCLUDED.run_id, ` +
	`collected_at = EXCLUDED.collected_at, ` +
	`updated_at = EXCLUDED.updated_at`

const checkpointsOnConflict = `ON CONFLICT (query) DO UPDATE SET ` +
	`last_post_id = EXCLUDED.last_post_id, ` +
	`last_created_at = EXCLUDED.last_created_at, ` +
	`updated_at = EXCLUDED.updated_at`

func (s *ServiceImpl) CommitBatch(ctx context.Context, batch *repository.Batch) (err error) {
	if len(batch.Posts) == 0 {
		return nil
	}
	tx := s.DB.Begin()
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, post := range batch.Posts {
		row := toRow(post)
		if result := tx.Set("gorm:insert_option", postsOnConflict).Create(row); result.Error != nil {
			return result.Error
		}
	}

	if batch.Checkpoint != nil {
		batch.Checkpoint.UpdatedAt = time.Now()
		if result := tx.Set("gorm:insert_option", checkpointsOnConflict).Create(batch.Checkpoint); result.Error != nil {
			return result.Error
		}
	}

	return tx.Commit().Error
}

func (s *ServiceImpl) Checkpoint(ctx context.Context, query string) (*repository.Checkpoint, error) {
	var cp repository.Checkpoint
	if result := s.DB.Where("query = ?", query).First(&cp); result.Error != nil {
		if gorm.IsRecordNotFoundError(result.Error) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &cp, nil
}

func (s *ServiceImpl) UpsertTrackedQuery(ctx context.Context, query string, active bool) error {
	tq := &repository.TrackedQuery{
		Query:  query,
		Active: active,
	}
	return s.DB.Set("gorm:insert_option",
		"ON CONFLICT (query) DO UPDATE SET active = EXCLUDED.active, updated_at = EXCLUDED.updated_at").
		Create(tq).Error
}

func (s *ServiceImpl) TrackedQueries(ctx context.Context, activeOnly bool) ([]*repository.TrackedQuery, error) {
	var out []*repository.TrackedQuery
	query := s.DB.Order("query")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	return out, query.Find(&out).Error
}

func (s *ServiceImpl) CreateTeam(ctx context.Context, team *repository.Team) (uint, error) {
	if result := s.DB.Create(team); result.Error != nil {
		return 0, result.Error
	}
	return team.ID, nil
}

func (s *ServiceImpl) Teams(ctx context.Context) ([]*repository.Team, error) {
	var out []*repository.Team
	return out, s.DB.Order("id").Find(&out).Error
}

func (s *ServiceImpl) CreateEvent(ctx context.Context, event *repository.Event) (uint, error) {
	if result := s.DB.Create(event); result.Error != nil {
		return 0, result.Error
	}
	return event.ID, nil
}

func (s *ServiceImpl) Events(ctx context.Context) ([]*repository.Event, error) {
	var out []*repository.Event
	return out, s.DB.Order("id").Preload("Team").Find(&out).Error
}

func (s *ServiceImpl) Posts(ctx context.Context, filter repository.Filter) ([]*repository.Post, error) {
	var out []*repository.Post
	query := applyFilter(s.DB, filter).
		Limit(filter.GetLimit()).
		Order("created_at desc")
	return out, query.Find(&out).Error
}

func (s *ServiceImpl) HourlyEmotionCounts(ctx context.Context, filter repository.Filter) ([]*model.HourlyCount, error) {
	query := applyFilter(s.DB.Table("posts"), filter).
		Select("date_trunc('hour', created_at) AS hour, emotion, count(*)").
		Where("emotion IS NOT NULL").
		Group("1, 2").
		Order("1, 2")

	rows, err := query.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*model.HourlyCount
	for rows.Next() {
		var (
			hour    time.Time
			emotion string
			count   uint
		)
		if err := rows.Scan(&hour, &emotion, &count); err != nil {
			return nil, err
		}
		counts = append(counts, &model.HourlyCount{
			Hour:    hour,
			Emotion: model.Emotion(emotion),
			Count:   count,
		})
	}
	return counts, rows.Err()
}

func (s *ServiceImpl) GeoEmotionCounts(ctx context.Context, filter repository.Filter) ([]*model.GeoCount, error) {
	query := applyFilter(s.DB.Table("posts"), filter).
		Select("latitude, longitude, location_address, city, state_province, country, emotion, count(*)").
		Where("latitude IS NOT NULL AND longitude IS NOT NULL AND emotion IS NOT NULL").
		Group("1, 2, 3, 4, 5, 6, 7").
		Order("count(*) desc")

	rows, err := query.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*model.GeoCount
	for rows.Next() {
		var (
			lat, lon             float64
			address, city, state sql.NullString
			country              sql.NullString
			emotion              string
			count                uint
		)
		if err := rows.Scan(&lat, &lon, &address, &city, &state, &country, &emotion, &count); err != nil {
			return nil, err
		}
		counts = append(counts, &model.GeoCount{
			Latitude:  lat,
			Longitude: lon,
			Address:   address.String,
			City:      city.String,
			State:     state.String,
			Country:   country.String,
			Emotion:   model.Emotion(emotion),
			Count:     count,
		})
	}
	return counts, rows.Err()
}

func (s *ServiceImpl) TopLocations(ctx context.Context, filter repository.Filter) ([]*model.TopLocation, error) {
	query := applyFilter(s.DB.Table("posts"), filter).
		Select("city, country, count(*)").
		Where("city IS NOT NULL").
		Group("1, 2").
		Order("count(*) desc").
		Limit(10)

	rows, err := query.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []*model.TopLocation
	for rows.Next() {
		var (
			city, country sql.NullString
			count         uint
		)
		if err := rows.Scan(&city, &country, &count); err != nil {
			return nil, err
		}
		top = append(top, &model.TopLocation{
			City:    city.String,
			Country: country.String,
			Count:   count,
		})
	}
	return top, rows.Err()
}

func (s *ServiceImpl) DistinctHashtags(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Raw(
		`SELECT DISTINCT unnest(hashtags) AS hashtag FROM posts WHERE hashtags IS NOT NULL ORDER BY hashtag`).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *ServiceImpl) BackfillHashtags(ctx context.Context) (int, error) {
	rows, err := s.DB.Raw(
		`SELECT post_id, text FROM posts WHERE hashtags IS NULL OR array_length(hashtags, 1) IS NULL`).
		Rows()
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type pending struct {
		id   string
		tags []string
	}
	var updates []pending
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return 0, err
		}
		if tags := textproc.Hashtags(text); len(tags) > 0 {
			updates = append(updates, pending{id: id, tags: tags})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, u := range updates {
		if err := s.DB.Exec(`UPDATE posts SET hashtags = ? WHERE post_id = ?`,
			pq.StringArray(u.tags), u.id).Error; err != nil {
			return 0, err
		}
	}
	return len(updates), nil
}

func applyFilter(query *gorm.DB, filter repository.Filter) *gorm.DB {
	if filter.IsDateRangeQuery() {
		query = query.Where("created_at >= ?", filter.GetFromDate()).
			Where("created_at < ?", filter.GetToDate())
	}
	if filter.IsEmotionQuery() {
		query = query.Where("emotion = ?", string(filter.GetEmotion()))
	}
	if filter.IsHashtagQuery() {
		query = query.Where("? = ANY (hashtags)", strings.ToLower(strings.TrimPrefix(filter.GetHashtag(), "#")))
	}
	return query
}

func toRow(post *model.EnrichedPost) *repository.Post {
	payload := post.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	row := &repository.Post{
		PostID:       post.ID,
		AuthorID:     post.Author.ID,
		AuthorHandle: post.Author.Handle,
		Text:         post.Text,
		CreatedAt:    post.CreatedAt,
		Lang:         post.Lang,
		GeoPlaceID:   post.GeoPlaceID,
		RawPayload:   gormpq.Jsonb{RawMessage: json.RawMessage(payload)},
		Retweets:     post.Retweets,
		Favorites:    post.Favorites,
		Hashtags:     pq.StringArray(post.Hashtags),
		Mentions:     pq.StringArray(post.Mentions),
		Query:        post.Query,
		RunID:        post.RunID,
		CollectedAt:  post.CollectedAt,
		UpdatedAt:    time.Now(),
	}
	if post.Scores != nil {
		row.SentimentNegative = &post.Scores.Negative
		row.SentimentNeutral = &post.Scores.Neutral
		row.SentimentPositive = &post.Scores.Positive
		row.SentimentCompound = &post.Scores.Compound
		emotion := string(post.Emotion)
		row.Emotion = &emotion
	}
	if post.Location != nil {
		row.LocationRaw = &post.Location.Raw
		row.LocationAddress = &post.Location.Address
		row.Latitude = &post.Location.Latitude
		row.Longitude = &post.Location.Longitude
		row.Country = &post.Location.Country
		row.StateProvince = &post.Location.State
		row.City = &post.Location.City
	}
	return row
}
