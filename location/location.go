// Package location extracts a location string from post metadata or
// author profile text and resolves it to coordinates plus an
// administrative hierarchy through a geocoding backend.
//
// Resolution is all-or-nothing: a post either gets a fully populated
// Location or none at all. Ambiguous or failed lookups are reported as
// "no location", never as a best-guess coordinate.
package location

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deecodes/fansense/model"
)

// Geocoder resolves a free-text place name. A nil Location with a nil
// error means the backend found no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*model.Location, error)
}

// Resolver caches geocoded strings for the lifetime of one pipeline run.
// Staleness is acceptable within a run, place semantics do not change
// that fast.
type Resolver struct {
	geocoder Geocoder
	log      *zerolog.Logger

	mu    sync.Mutex
	cache map[string]*model.Location // nil entry = known unresolvable
}

func NewResolver(geocoder Geocoder, log *zerolog.Logger) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		log:      log,
		cache:    make(map[string]*model.Location),
	}
}

// Resolve picks the most reliable location hint from the post and
// geocodes it. Returns nil when nothing usable was found or the lookup
// failed; callers must leave every location field null in that case.
func (r *Resolver) Resolve(ctx context.Context, post *model.RawPost) *model.Location {
	raw := Extract(post)
	if raw == "" {
		return nil
	}

	key := strings.ToLower(strings.TrimSpace(raw))

	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return withRaw(cached, raw)
	}

	loc, err := r.geocoder.Geocode(ctx, focus(raw))
	if err != nil {
		// Retries are exhausted inside the geocoder; treat like
		// unresolvable but do not poison the cache.
		r.log.Warn().Err(err).Str("location", raw).Msg("geocoding failed")
		return nil
	}
	if loc != nil && (loc.Country == "" || (loc.Latitude == 0 && loc.Longitude == 0)) {
		// Incomplete hierarchy would violate the all-or-nothing
		// contract, drop it.
		loc = nil
	}

	r.mu.Lock()
	r.cache[key] = loc
	r.mu.Unlock()

	return withRaw(loc, raw)
}

func withRaw(loc *model.Location, raw string) *model.Location {
	if loc == nil {
		return nil
	}
	out := *loc
	out.Raw = raw
	return &out
}

// focus narrows a noisy location string to a known place name when one is
// embedded in it, otherwise returns the string unchanged.
func focus(raw string) string {
	lower := strings.ToLower(raw)
	if _, ok := knownLocations[lower]; ok {
		return raw
	}
	for known := range knownLocations {
		if strings.Contains(lower, known) {
			return known
		}
	}
	return raw
}

// Extract picks a location string from the post. Preference order:
// provider-verified place tag, then the author's profile location, then
// place mentions in the author bio, then place mentions in the post text.
func Extract(post *model.RawPost) string {
	if post.GeoPlace != "" {
		return post.GeoPlace
	}
	if profile := strings.TrimSpace(post.Author.Location); profile != "" {
		if _, ignored := ignoreLocations[strings.ToLower(profile)]; !ignored {
			return profile
		}
	}
	if found := FindInText(post.Author.Description); found != "" {
		return found
	}
	return FindInText(post.Text)
}

// FindInText returns the most likely place mention in free text, or ""
// when none is found.
func FindInText(text string) string {
	if text == "" {
		return ""
	}
	for _, pattern := range textPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			candidate := m[1]
			lower := strings.ToLower(candidate)
			if _, ignored := ignoreLocations[lower]; ignored {
				continue
			}
			return candidate
		}
	}
	// Fall back to bare mentions of well-known places.
	lower := strings.ToLower(text)
	for known := range knownLocations {
		if idx := strings.Index(lower, known); idx >= 0 {
			return text[idx : idx+len(known)]
		}
	}
	return ""
}
