// Package stream pulls raw posts matching a tracked query from the
// Twitter API v2 recent-search endpoint. The provider payload of every
// post is preserved untouched for audit and replay.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/retry"
)

const (
	defaultBaseURL = "https://api.twitter.com/2"

	tweetFields = "id,text,author_id,created_at,geo,lang,public_metrics,entities"
	userFields  = "id,name,username,location,description"
	placeFields = "id,full_name"
	expansions  = "author_id,geo.place_id"
)

// Page is one batch of raw posts plus the pagination token for the next
// pull, empty when the stream is exhausted.
type Page struct {
	Posts     []*model.RawPost
	NextToken string
}

// Source yields raw posts matching a tracked query. The batch-size hint
// bounds how many posts one pull may return.
type Source interface {
	Search(ctx context.Context, query, sinceID, nextToken string, maxResults int) (*Page, error)
}

var _ Source = (*Client)(nil)

// Client is the Twitter recent-search client. All requests go through the
// runner so provider rate limits are honored and transient failures are
// retried with backoff.
type Client struct {
	baseURL string
	bearer  string
	httpc   *http.Client
	runner  *retry.Runner
	log     *zerolog.Logger
}

func NewClient(bearer string, runner *retry.Runner, log *zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		bearer:  bearer,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		runner:  runner,
		log:     log,
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

func (c *Client) Search(ctx context.Context, query, sinceID, nextToken string, maxResults int) (*Page, error) {
	if maxResults < 10 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("tweet.fields", tweetFields)
	params.Set("user.fields", userFields)
	params.Set("place.fields", placeFields)
	params.Set("expansions", expansions)
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}

	var page *Page
	err := c.runner.Do(ctx, "search", func(ctx context.Context) error {
		var err error
		page, err = c.search(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) search(ctx context.Context, params url.Values) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/tweets/search/recent?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, retry.Transient(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("search: status %d: %s", resp.StatusCode, body)
		if retry.StatusRetryable(resp.StatusCode) {
			return nil, retry.Transient(err)
		}
		return nil, err
	}

	return c.decodePage(body)
}

// Wire format of the recent-search response. Tweets are kept as raw JSON
// so the opaque provider payload survives into storage.
type searchResponse struct {
	Data     []json.RawMessage `json:"data"`
	Includes struct {
		Users  []apiUser  `json:"users"`
		Places []apiPlace `json:"places"`
	} `json:"includes"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

type apiUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type apiPlace struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type apiTweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
	Lang      string `json:"lang"`
	Geo       struct {
		PlaceID string `json:"place_id"`
	} `json:"geo"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		LikeCount    int `json:"like_count"`
	} `json:"public_metrics"`
}

func (c *Client) decodePage(body []byte) (*Page, error) {
	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	users := make(map[string]apiUser, len(decoded.Includes.Users))
	for _, u := range decoded.Includes.Users {
		users[u.ID] = u
	}
	places := make(map[string]string, len(decoded.Includes.Places))
	for _, p := range decoded.Includes.Places {
		places[p.ID] = p.FullName
	}

	page := &Page{NextToken: decoded.Meta.NextToken}
	for _, raw := range decoded.Data {
		var tweet apiTweet
		if err := json.Unmarshal(raw, &tweet); err != nil {
			c.log.Warn().Err(err).Msg("skipping unparseable tweet payload")
			continue
		}
		post := &model.RawPost{
			ID:         tweet.ID,
			Text:       tweet.Text,
			Lang:       tweet.Lang,
			GeoPlaceID: tweet.Geo.PlaceID,
			GeoPlace:   places[tweet.Geo.PlaceID],
			Retweets:   tweet.PublicMetrics.RetweetCount,
			Favorites:  tweet.PublicMetrics.LikeCount,
			Payload:    append([]byte(nil), raw...),
		}
		if tweet.CreatedAt != "" {
			if ts, err := dateparse.ParseAny(tweet.CreatedAt); err == nil {
				post.CreatedAt = ts.UTC()
			}
		}
		if user, ok := users[tweet.AuthorID]; ok {
			post.Author = model.Author{
				ID:          user.ID,
				Handle:      user.Username,
				Name:        user.Name,
				Location:    user.Location,
				Description: user.Description,
			}
		} else {
			post.Author = model.Author{ID: tweet.AuthorID}
		}
		page.Posts = append(page.Posts, post)
	}
	return page, nil
}
