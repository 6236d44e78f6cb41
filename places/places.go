// Package places turns activity start coordinates into a readable place name
// using the Google Maps reverse geocoding API.
package places

import (
	"context"

	"github.com/pkg/errors"
	"googlemaps.github.io/maps"
)

type Locator struct {
	maps *maps.Client
}

// New creates a locator authenticated with the server side API key.
// Additional client options are passed through to the maps client.
func New(key string, options ...maps.ClientOption) (*Locator, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(key)}, options...)...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create maps client")
	}

	return &Locator{
		maps: client,
	}, nil
}

// City returns the locality at the given coordinates, falling back to the
// formatted address of the best match.
func (l *Locator) City(ctx context.Context, latitude, longitude float64) (string, error) {
	result, err := l.maps.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{
			Lat: latitude,
			Lng: longitude,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "could not get geocode result")
	}

	if len(result) < 1 {
		return "", errors.New("no results for geocode")
	}

	for _, ac := range result[0].AddressComponents {
		for _, typ := range ac.Types {
			if typ == "locality" {
				return ac.LongName, nil
			}
		}
	}
	return result[0].FormattedAddress, nil
}
