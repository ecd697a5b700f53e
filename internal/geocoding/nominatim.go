package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/pinboard/internal/models"
	"golang.org/x/time/rate"
)

// Nominatim endpoints.
const (
	NominatimSearchURL  = "https://nominatim.openstreetmap.org/search"
	NominatimReverseURL = "https://nominatim.openstreetmap.org/reverse"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client     HTTPClient    // HTTP client for making requests
	searchURL  string        // Search endpoint
	reverseURL string        // Reverse endpoint
	log        *slog.Logger  // Logger for logging operations
	limiter    *rate.Limiter // Keeps us within the fair use policy
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimPlace is a single Nominatim search or reverse result.
type nominatimPlace struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = fmt.Errorf("nominatim API returned empty response: %w", ErrNoResults)
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

const nominatimUserAgent = "Pinboard/1.0 (https://github.com/UnknownOlympus/pinboard)"

// NewNominatimProvider creates a new Nominatim geocoding provider limited to one request per second.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		rate.NewLimiter(rate.Every(time.Second), 1),
		log,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client and limiter.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:     client,
		searchURL:  NominatimSearchURL,
		reverseURL: NominatimReverseURL,
		log:        log,
		limiter:    limiter,
		userAgent:  nominatimUserAgent,
	}
}

// Search resolves free text to the best matching place.
func (np *NominatimProvider) Search(ctx context.Context, text string) (*models.Place, error) {
	np.log.DebugContext(ctx, "Searching using Nominatim", "text", text)

	query := url.Values{}
	query.Set("q", text)
	query.Set("format", "jsonv2")
	query.Set("limit", "1")
	query.Set("addressdetails", "1")

	body, err := np.get(ctx, np.searchURL, query)
	if err != nil {
		return nil, err
	}

	var results []nominatimPlace
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	return results[0].toPlace()
}

// Reverse resolves a point to the nearest address.
func (np *NominatimProvider) Reverse(ctx context.Context, lat, lon float64) (*models.Place, error) {
	np.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", lat, "lon", lon)

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")

	body, err := np.get(ctx, np.reverseURL, query)
	if err != nil {
		return nil, err
	}

	var result nominatimPlace
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	// Nominatim answers 200 with {"error": "Unable to geocode"} for open sea and the like
	if result.Error != "" || result.Lat == "" {
		return nil, ErrNominatimEmptyResponse
	}

	return result.toPlace()
}

func (np *NominatimProvider) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	return body, nil
}

func (p nominatimPlace) toPlace() (*models.Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, p.Lon)
	}

	return &models.Place{
		Lat:         lat,
		Lon:         lon,
		DisplayName: p.DisplayName,
		Address:     p.Address,
	}, nil
}
