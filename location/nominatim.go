package location

import (
	"context"

	geo "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"

	"github.com/deecodes/fansense/model"
	"github.com/deecodes/fansense/retry"
)

var _ Geocoder = (*Nominatim)(nil)

// Nominatim geocodes through OpenStreetMap's Nominatim service. Every
// lookup goes through the runner, Nominatim allows one request per second.
type Nominatim struct {
	geocoder geo.Geocoder
	runner   *retry.Runner
}

func NewNominatim(runner *retry.Runner) *Nominatim {
	return &Nominatim{
		geocoder: openstreetmap.Geocoder(),
		runner:   runner,
	}
}

// Geocode resolves query to coordinates, then reverse-geocodes them for
// the administrative hierarchy. Either leg failing or coming back empty
// counts as not found, there is no partially resolved result.
func (n *Nominatim) Geocode(ctx context.Context, query string) (*model.Location, error) {
	var result *model.Location
	err := n.runner.Do(ctx, "geocode", func(context.Context) error {
		point, err := n.geocoder.Geocode(query)
		if err != nil {
			return retry.Transient(err)
		}
		if point == nil {
			return nil
		}
		address, err := n.geocoder.ReverseGeocode(point.Lat, point.Lng)
		if err != nil {
			return retry.Transient(err)
		}
		if address == nil || address.Country == "" {
			return nil
		}
		result = &model.Location{
			Address:   address.FormattedAddress,
			Latitude:  point.Lat,
			Longitude: point.Lng,
			Country:   address.Country,
			State:     address.State,
			City:      address.City,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
