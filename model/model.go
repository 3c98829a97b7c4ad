package model

import (
	"time"
)

// Emotion is one of five ordered buckets derived from the compound
// sentiment score.
type Emotion string

const (
	VeryNegative Emotion = "very_negative"
	Negative     Emotion = "negative"
	Neutral      Emotion = "neutral"
	Positive     Emotion = "positive"
	VeryPositive Emotion = "very_positive"
)

// Emotions lists all valid buckets in ascending order.
var Emotions = []Emotion{VeryNegative, Negative, Neutral, Positive, VeryPositive}

func (e Emotion) Valid() bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}
	return false
}

//go:generate gomodifytags -file model.go -struct SentimentScores -add-tags json -w
type SentimentScores struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
	Compound float64 `json:"compound"`
}

// Location is a fully resolved place. All fields are populated together,
// a partially resolved place is never represented.
//
//go:generate gomodifytags -file model.go -struct Location -add-tags json -add-options json=omitempty -w
type Location struct {
	Raw       string  `json:"raw,omitempty"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country,omitempty"`
	State     string  `json:"state,omitempty"`
	City      string  `json:"city,omitempty"`
}

//go:generate gomodifytags -file model.go -struct Author -add-tags json -add-options json=omitempty -w
type Author struct {
	ID          string `json:"id,omitempty"`
	Handle      string `json:"handle,omitempty"`
	Name        string `json:"name,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// RawPost is a post as pulled from the stream source, before enrichment.
// Payload carries the untouched provider JSON for audit and replay.
//
//go:generate gomodifytags -file model.go -struct RawPost -add-tags json -add-options json=omitempty -w
type RawPost struct {
	ID         string    `json:"id,omitempty"`
	Author     Author    `json:"author,omitempty"`
	Text       string    `json:"text,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	Lang       string    `json:"lang,omitempty"`
	GeoPlaceID string    `json:"geo_place_id,omitempty"`
	GeoPlace   string    `json:"geo_place,omitempty"`
	Retweets   int       `json:"retweets,omitempty"`
	Favorites  int       `json:"favorites,omitempty"`
	Payload    []byte    `json:"payload,omitempty"`
}

// EnrichedPost is the stored record: the immutable raw post plus the
// enrichment computed by the pipeline. Scores and Location are nil when
// enrichment degraded for that post.
//
//go:generate gomodifytags -file model.go -struct EnrichedPost -add-tags json -add-options json=omitempty -w
type EnrichedPost struct {
	RawPost     `json:"post,omitempty"`
	Scores      *SentimentScores `json:"scores,omitempty"`
	Emotion     Emotion          `json:"emotion,omitempty"`
	Location    *Location        `json:"location,omitempty"`
	Hashtags    []string         `json:"hashtags,omitempty"`
	Mentions    []string         `json:"mentions,omitempty"`
	Query       string           `json:"query,omitempty"`
	RunID       string           `json:"run_id,omitempty"`
	CollectedAt time.Time        `json:"collected_at,omitempty"`
}

//go:generate gomodifytags -file model.go -struct TrackedQuery -add-tags json -add-options json=omitempty -w
type TrackedQuery struct {
	Query  string `json:"query,omitempty"`
	Active bool   `json:"active"`
}

//go:generate gomodifytags -file model.go -struct Team -add-tags json -add-options json=omitempty -w
type Team struct {
	ID      uint     `json:"id,omitempty"`
	Label   string   `json:"label,omitempty"`
	Queries []string `json:"queries,omitempty"`
}

// Event binds tracked queries to a time window for before/during/after
// analysis. EndsAt is open-ended when nil.
//
//go:generate gomodifytags -file model.go -struct Event -add-tags json -add-options json=omitempty -w
type Event struct {
	ID       uint       `json:"id,omitempty"`
	Label    string     `json:"label,omitempty"`
	TeamID   *uint      `json:"team_id,omitempty"`
	Queries  []string   `json:"queries,omitempty"`
	StartsAt time.Time  `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

//go:generate gomodifytags -file model.go -struct QueryRequest -add-tags json -add-options json=omitempty -w
type QueryRequest struct {
	FromDate []time.Time `json:"from_date,omitempty"`
	ToDate   []time.Time `json:"to_date,omitempty"`
	Limit    []uint      `json:"limit,omitempty"`
	Rules    QueryRules  `json:"rules,omitempty"`
}

//go:generate gomodifytags -file model.go -struct QueryRules -add-tags json -add-options json=omitempty -w
type QueryRules struct {
	Emotion []Emotion `json:"emotion,omitempty"`
	Hashtag []string  `json:"hashtag,omitempty"`
}

//go:generate gomodifytags -file model.go -struct QueryResponse -add-tags json -add-options json=omitempty -w
type QueryResponse struct {
	Posts        []*EnrichedPost `json:"posts,omitempty"`
	Hourly       []*HourlyCount  `json:"hourly,omitempty"`
	Geo          []*GeoCount     `json:"geo,omitempty"`
	TopLocations []*TopLocation  `json:"top_locations,omitempty"`
	Hashtags     []string        `json:"hashtags,omitempty"`
}

// HourlyCount is one row of the hourly emotion view.
//
//go:generate gomodifytags -file model.go -struct HourlyCount -add-tags json -add-options json=omitempty -w
type HourlyCount struct {
	Hour    time.Time `json:"hour,omitempty"`
	Emotion Emotion   `json:"emotion,omitempty"`
	Count   uint      `json:"count,omitempty"`
}

// GeoCount is one row of the per-location emotion view.
//
//go:generate gomodifytags -file model.go -struct GeoCount -add-tags json -add-options json=omitempty -w
type GeoCount struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country,omitempty"`
	Emotion   Emotion `json:"emotion,omitempty"`
	Count     uint    `json:"count,omitempty"`
}

//go:generate gomodifytags -file model.go -struct TopLocation -add-tags json -add-options json=omitempty -w
type TopLocation struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Count   uint   `json:"count,omitempty"`
}
