package geocoding

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/pinboard/internal/models"
)

// ErrNoResults is returned when a lookup succeeds but finds nothing.
// Provider specific "empty response" errors wrap it.
var ErrNoResults = errors.New("no geocoding results")

// Provider is the network-backed geocoding collaborator.
// Search resolves free text to a place; Reverse resolves a point to an address.
// Transport failures are returned as errors and never retried here.
type Provider interface {
	Search(ctx context.Context, text string) (*models.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*models.Place, error)
}
