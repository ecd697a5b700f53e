package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/pinboard/internal/geocache"
	"github.com/UnknownOlympus/pinboard/internal/geocoding"
	"github.com/UnknownOlympus/pinboard/internal/metrics"
	"github.com/UnknownOlympus/pinboard/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrEmptyQuery is returned when a search is requested for blank text.
var ErrEmptyQuery = errors.New("geocoding query is empty")

// GeocodingService resolves place searches through a read-through cache
// in front of a geocoding provider.
type GeocodingService struct {
	log          *slog.Logger       // Logger for logging service activities
	provider     geocoding.Provider // Geocoding provider for external geocoding services
	providerName string             // Name of the provider for metrics labeling
	cache        geocache.Cache     // Cache of successful search results
	metrics      *metrics.Metrics   // Metrics for tracking service performance
	queryPrefix  string             // Prefix for more accurate geocoding (indicating country, city, etc.)
}

// NewGeocodingService creates a new instance of GeocodingService.
// The query prefix is sent to the provider but is not part of the cache key.
// A nil m gets metrics on a private registry.
func NewGeocodingService(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	cache geocache.Cache,
	m *metrics.Metrics,
	queryPrefix string,
) *GeocodingService {
	if m == nil {
		m = metrics.NewMetrics(prometheus.NewRegistry())
	}

	return &GeocodingService{
		log:          log,
		provider:     provider,
		providerName: providerName,
		cache:        cache,
		metrics:      m,
		queryPrefix:  queryPrefix,
	}
}

// Search trims text and looks it up in the cache before asking the provider.
// Provider errors are returned unchanged and nothing is cached for them.
func (gs *GeocodingService) Search(ctx context.Context, text string) (*models.Place, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if place, ok := gs.cache.Get(ctx, query); ok {
		gs.metrics.CacheLookups.WithLabelValues("hit").Inc()
		gs.log.DebugContext(ctx, "Geocode cache hit", "query", query)
		return place, nil
	}
	gs.metrics.CacheLookups.WithLabelValues("miss").Inc()

	startTime := time.Now()
	place, err := gs.provider.Search(ctx, gs.queryPrefix+query)
	gs.observe("search", startTime)

	if err != nil {
		gs.recordError(ctx, "search", err)
		return nil, err
	}
	if place == nil {
		return nil, geocoding.ErrNoResults
	}

	gs.cache.Put(ctx, query, *place)

	return place, nil
}

// Reverse resolves a point to an address. Results are not cached.
func (gs *GeocodingService) Reverse(ctx context.Context, lat, lon float64) (*models.Place, error) {
	if err := models.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	startTime := time.Now()
	place, err := gs.provider.Reverse(ctx, lat, lon)
	gs.observe("reverse", startTime)

	if err != nil {
		gs.recordError(ctx, "reverse", err)
		return nil, err
	}
	if place == nil {
		return nil, geocoding.ErrNoResults
	}

	return place, nil
}

func (gs *GeocodingService) observe(op string, startTime time.Time) {
	gs.metrics.RequestSeconds.WithLabelValues(gs.providerName, op).Observe(time.Since(startTime).Seconds())
}

func (gs *GeocodingService) recordError(ctx context.Context, op string, err error) {
	if errors.Is(err, geocoding.ErrNoResults) {
		gs.log.DebugContext(ctx, "Geocoding returned no results", "op", op)
		return
	}

	gs.metrics.APIErrors.Inc()
	gs.log.ErrorContext(ctx, "Failed to geocode", "op", op, "provider", gs.providerName, "error", err)
}
