package geocoding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pinboard/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = fmt.Errorf("get empty response from Google Maps API: %w", ErrNoResults)

// NewGoogleProvider wraps an already configured Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Search geocodes free text with the Google Maps Geocoding API.
func (gp *GoogleProvider) Search(ctx context.Context, text string) (*models.Place, error) {
	gp.log.DebugContext(ctx, "Searching using Google Maps", "text", text)

	return gp.geocode(ctx, &maps.GeocodingRequest{Address: text})
}

// Reverse resolves a point with the Google Maps reverse geocoding API.
func (gp *GoogleProvider) Reverse(ctx context.Context, lat, lon float64) (*models.Place, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", lat, "lon", lon)

	return gp.geocode(ctx, &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: lat, Lng: lon}})
}

func (gp *GoogleProvider) geocode(ctx context.Context, req *maps.GeocodingRequest) (*models.Place, error) {
	results, err := gp.client.Geocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}

	best := results[0]
	address := make(map[string]string, len(best.AddressComponents))
	for _, comp := range best.AddressComponents {
		if len(comp.Types) > 0 {
			address[comp.Types[0]] = comp.LongName
		}
	}

	return &models.Place{
		Lat:         best.Geometry.Location.Lat,
		Lon:         best.Geometry.Location.Lng,
		DisplayName: best.FormattedAddress,
		Address:     address,
	}, nil
}
