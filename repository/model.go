package repository

import (
	"time"

	"github.com/jinzhu/gorm/dialects/postgres"
	"github.com/lib/pq"
)

// Post is the tweets-equivalent table, keyed by the platform-assigned
// post id. The columns up to RawPayload are immutable once ingested;
// everything after is enrichment, overwritten freely by the pipeline.
// Enrichment columns are pointers so a degraded record keeps them NULL.
type Post struct {
	PostID       string `gorm:"primary_key"`
	AuthorID     string
	AuthorHandle string
	Text         string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"index"`
	Lang         string
	GeoPlaceID   string
	RawPayload   postgres.Jsonb `gorm:"type:jsonb"`

	SentimentNegative *float64
	SentimentNeutral  *float64
	SentimentPositive *float64
	SentimentCompound *float64
	Emotion           *string `gorm:"type:varchar(16);index"`

	LocationRaw     *string
	LocationAddress *string
	Latitude        *float64
	Longitude       *float64
	Country         *string
	StateProvince   *string
	City            *string

	Retweets  int
	Favorites int

	Hashtags pq.StringArray `gorm:"type:text[]"`
	Mentions pq.StringArray `gorm:"type:text[]"`

	Query       string
	RunID       string
	CollectedAt time.Time
	UpdatedAt   time.Time
}

// Checkpoint is the last durably persisted position per tracked query.
// Advanced only inside the transaction that commits the batch.
type Checkpoint struct {
	Query         string `gorm:"primary_key"`
	LastPostID    string
	LastCreatedAt time.Time
	UpdatedAt     time.Time
}

type TrackedQuery struct {
	Query     string `gorm:"primary_key"`
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Team struct {
	ID        uint           `gorm:"primary_key"`
	Label     *string        `gorm:"unique;not null"`
	Queries   pq.StringArray `gorm:"type:text[]"`
	CreatedAt time.Time
}

// Event binds tracked queries to a time window. TeamRef is optional, an
// event references at most one team.
type Event struct {
	ID        uint           `gorm:"primary_key"`
	Label     *string        `gorm:"unique;not null"`
	Team      Team           `gorm:"foreignkey:TeamRef;association_autoupdate:false"`
	TeamRef   *uint
	Queries   pq.StringArray `gorm:"type:text[]"`
	StartsAt  time.Time
	EndsAt    *time.Time
	CreatedAt time.Time
}
