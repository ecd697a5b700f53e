// Package measure accumulates a path of points and derives its length and
// enclosed area. Nothing is cached: every figure is recomputed from the vertices.
package measure

import (
	"errors"
	"fmt"
	"slices"

	"github.com/UnknownOlympus/pinboard/internal/models"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInactive is returned when points are added while measuring is off.
var ErrInactive = errors.New("measurement is not active")

// Engine is the measuring tool. It toggles between inactive and active;
// turning it off discards the current path.
type Engine struct {
	active bool
	points []models.Coordinates
}

func NewEngine() *Engine {
	return &Engine{}
}

// Toggle switches the engine on or off and returns the new state.
func (e *Engine) Toggle() bool {
	e.active = !e.active
	if !e.active {
		e.Reset()
	}

	return e.active
}

func (e *Engine) Active() bool {
	return e.active
}

// AddPoint appends a vertex to the path.
func (e *Engine) AddPoint(p models.Coordinates) error {
	if !e.active {
		return ErrInactive
	}
	if err := p.Validate(); err != nil {
		return err
	}
	e.points = append(e.points, p)

	return nil
}

// Points returns a copy of the vertices in insertion order.
func (e *Engine) Points() []models.Coordinates {
	return slices.Clone(e.points)
}

// TotalDistance is the path length in kilometres.
func (e *Engine) TotalDistance() float64 {
	return PathDistance(e.points)
}

// EnclosedArea is the approximate area of the closed path in square kilometres.
func (e *Engine) EnclosedArea() float64 {
	return ShoelaceArea(e.points)
}

// Reset clears the path. It is safe in any state.
func (e *Engine) Reset() {
	e.points = nil
}

// LineString projects the path for the map renderer, X = lng and Y = lat.
// Fewer than two vertices give an empty line.
func (e *Engine) LineString() (geom.LineString, error) {
	const minVertices = 2
	if len(e.points) < minVertices {
		return geom.LineString{}, nil
	}

	flat := make([]float64, 0, len(e.points)*2)
	for _, p := range e.points {
		flat = append(flat, p.Longitude, p.Latitude)
	}

	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build path geometry: %w", err)
	}

	return ls, nil
}

// WKT returns the path as a WKT LINESTRING.
func (e *Engine) WKT() (string, error) {
	ls, err := e.LineString()
	if err != nil {
		return "", err
	}

	return ls.AsText(), nil
}
