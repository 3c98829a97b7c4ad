package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/service"
)

func NewHttp(admin service.FanSense, search service.FanSenseSearch, log *zerolog.Logger) *Http {
	return &Http{
		admin:  admin,
		search: search,
		log:    log,
	}
}

type Http struct {
	admin  service.FanSense
	search service.FanSenseSearch
	log    *zerolog.Logger
}

func (h *Http) TrackQuery(w http.ResponseWriter, r *http.Request) {
	var req model.TrackedQuery
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(err, w)
		return
	}
	if req.Query == "" {
		h.writeError(errEmptyQuery, w)
		return
	}
	if err := h.admin.TrackQuery(r.Context(), &req); err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(&req, w)
}

func (h *Http) TrackedQueries(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	queries, err := h.admin.TrackedQueries(r.Context(), activeOnly)
	if err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(queries, w)
}

func (h *Http) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req model.Team
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(err, w)
		return
	}
	resp, err := h.admin.CreateTeam(r.Context(), &req)
	if err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(resp, w)
}

func (h *Http) Teams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.admin.Teams(r.Context())
	if err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(teams, w)
}

func (h *Http) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.Event
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(err, w)
		return
	}
	resp, err := h.admin.CreateEvent(r.Context(), &req)
	if err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(resp, w)
}

func (h *Http) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.admin.Events(r.Context())
	if err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(events, w)
}

func (h *Http) BackfillHashtags(w http.ResponseWriter, r *http.Request) {
	updated, err := h.admin.BackfillHashtags(r.Context())
	if err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(map[string]int{"updated": updated}, w)
}

func (h *Http) PostsQuery(w http.ResponseWriter, r *http.Request) {
	h.viewQuery(w, r, h.search.Posts)
}

func (h *Http) HourlyQuery(w http.ResponseWriter, r *http.Request) {
	h.viewQuery(w, r, h.search.Hourly)
}

func (h *Http) GeoQuery(w http.ResponseWriter, r *http.Request) {
	h.viewQuery(w, r, h.search.Geo)
}

func (h *Http) TopLocationsQuery(w http.ResponseWriter, r *http.Request) {
	h.viewQuery(w, r, h.search.TopLocations)
}

func (h *Http) HashtagsQuery(w http.ResponseWriter, r *http.Request) {
	resp, err := h.search.Hashtags(r.Context())
	if err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(resp, w)
}

type viewFunc func(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error)

func (h *Http) viewQuery(w http.ResponseWriter, r *http.Request, view viewFunc) {
	if err := r.ParseForm(); err != nil {
		h.writeError(err, w)
		return
	}
	q, err := parseQuery(r.Form)
	if err != nil {
		h.writeError(err, w)
		return
	}
	resp, err := view(r.Context(), q)
	if err != nil {
		h.writeError(err, w)
		return
	}
	h.writeResponse(resp, w)
}

func (h *Http) writeResponse(resp interface{}, w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(&Response{
		Data: resp,
	}); err != nil {
		h.writeError(err, w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Error().Err(err).Msg("writeResponse: failed to write")
	}
}

//go:generate gomodifytags -file http.go -struct Response -add-tags json -add-options json=omitempty -w
type Response struct {
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// parseQuery flattens url.Values into a QueryRequest by a JSON round
// trip, so repeated parameters map onto the slice fields.
func parseQuery(vals url.Values) (*model.QueryRequest, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(vals); err != nil {
		return nil, err
	}
	var flat flatQuery
	if err := json.NewDecoder(&buf).Decode(&flat); err != nil {
		return nil, err
	}
	emotions, err := toEmotions(flat.Emotion)
	if err != nil {
		return nil, err
	}
	return &model.QueryRequest{
		FromDate: toTime(flat.FromDate),
		ToDate:   toTime(flat.ToDate),
		Limit:    toUint(flat.Limit),
		Rules: model.QueryRules{
			Emotion: emotions,
			Hashtag: flat.Hashtag,
		},
	}, nil
}

func toTime(in []DateTime) []time.Time {
	var tt []time.Time
	for _, t := range in {
		tt = append(tt, time.Time(t))
	}
	return tt
}

func toUint(in []Uint) []uint {
	var uu []uint
	for _, u := range in {
		uu = append(uu, uint(u))
	}
	return uu
}

func toEmotions(in []string) ([]model.Emotion, error) {
	var ee []model.Emotion
	for _, s := range in {
		e := model.Emotion(s)
		if !e.Valid() {
			return nil, errUnknownEmotion
		}
		ee = append(ee, e)
	}
	return ee, nil
}

type DateTime time.Time

func (d *DateTime) UnmarshalJSON(b []byte) error {
	s := strings.Replace(string(b), "\"", "", -1)
	t, err := dateparse.ParseAny(s)
	*d = DateTime(t)
	return err
}

// Uint tolerates the string form url.Values produces for numeric
// parameters.
type Uint uint

func (u *Uint) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*u = Uint(value)
		return nil
	case string:
		tmp, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		*u = Uint(tmp)
		return nil
	default:
		return errors.New("invalid limit")
	}
}

type flatQuery struct {
	FromDate []DateTime `json:"from_date,omitempty"`
	ToDate   []DateTime `json:"to_date,omitempty"`
	Limit    []Uint     `json:"limit,omitempty"`
	Emotion  []string   `json:"emotion,omitempty"`
	Hashtag  []string   `json:"hashtag,omitempty"`
}
