// Package store owns the authoritative, ordered set of markers.
package store

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/UnknownOlympus/pinboard/internal/models"
	"github.com/google/uuid"
)

// Persister saves the current marker list. It reports failure instead of
// returning an error so that a lost save never undoes the in-memory edit.
type Persister interface {
	Save(ctx context.Context, markers []models.Marker) bool
}

// Recorder takes a history snapshot of the current marker content.
type Recorder interface {
	Record(current []models.Fields) error
}

// Store keeps markers in insertion order. Every mutation is followed, in order,
// by a persist and a snapshot. Rejected operations leave the state untouched.
type Store struct {
	markers  []models.Marker
	persist  Persister
	recorder Recorder
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the marker id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates an empty Store. persist and recorder may be nil.
func New(log *slog.Logger, persist Persister, recorder Recorder, opts ...Option) *Store {
	s := &Store{
		persist:  persist,
		recorder: recorder,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Add validates the coordinates, appends a new marker and returns its id.
func (s *Store) Add(ctx context.Context, fields models.Fields) (string, error) {
	if err := models.ValidateCoordinates(fields.Lat, fields.Lng); err != nil {
		return "", err
	}

	marker := s.newMarker(fields)
	s.markers = append(s.markers, marker)
	s.log.DebugContext(ctx, "Marker added", "id", marker.ID, "lat", marker.Lat, "lng", marker.Lng)

	s.afterChange(ctx, true)

	return marker.ID, nil
}

// AddAll appends every entry or none of them. It persists and snapshots once.
func (s *Store) AddAll(ctx context.Context, entries []models.Fields) ([]string, error) {
	for _, fields := range entries {
		if err := models.ValidateCoordinates(fields.Lat, fields.Lng); err != nil {
			return nil, err
		}
	}
	if len(entries) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(entries))
	for _, fields := range entries {
		marker := s.newMarker(fields)
		s.markers = append(s.markers, marker)
		ids = append(ids, marker.ID)
	}
	s.log.DebugContext(ctx, "Markers added", "count", len(ids))

	s.afterChange(ctx, true)

	return ids, nil
}

// Remove deletes the marker with the given id, preserving the order of the rest.
// It reports whether anything was removed.
func (s *Store) Remove(ctx context.Context, id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}

	s.markers = slices.Delete(s.markers, idx, idx+1)
	s.log.DebugContext(ctx, "Marker removed", "id", id)

	s.afterChange(ctx, true)

	return true
}

// Update merges patch into the marker with the given id. A missing id is a no-op.
// Coordinates are re-validated when the patch touches them.
func (s *Store) Update(ctx context.Context, id string, patch models.Patch) (bool, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	updated := patch.Apply(s.markers[idx])
	if patch.TouchesCoordinates() {
		if err := models.ValidateCoordinates(updated.Lat, updated.Lng); err != nil {
			return false, err
		}
	}

	s.markers[idx] = updated
	s.log.DebugContext(ctx, "Marker updated", "id", id)

	s.afterChange(ctx, true)

	return true, nil
}

// Clear removes all markers.
func (s *Store) Clear(ctx context.Context) {
	s.markers = nil
	s.log.DebugContext(ctx, "Markers cleared")

	s.afterChange(ctx, true)
}

// Restore replaces the whole content with entries, assigning fresh ids.
// It persists but does not snapshot; it is how history is applied.
func (s *Store) Restore(ctx context.Context, entries []models.Fields) {
	markers := make([]models.Marker, 0, len(entries))
	for _, fields := range entries {
		markers = append(markers, s.newMarker(fields))
	}
	s.markers = markers

	s.afterChange(ctx, false)
}

// Seed loads persisted records without side effects. Records with invalid
// coordinates are skipped. It returns the number of markers loaded.
func (s *Store) Seed(records []models.Record) int {
	markers := make([]models.Marker, 0, len(records))
	for _, rec := range records {
		if err := models.ValidateCoordinates(rec.Lat, rec.Lng); err != nil {
			s.log.Warn("Skipping persisted marker", "title", rec.Title, "error", err)
			continue
		}
		marker := s.newMarker(rec.Fields)
		if rec.CreatedAt != 0 {
			marker.CreatedAt = rec.CreatedAt
		}
		markers = append(markers, marker)
	}
	s.markers = markers

	return len(markers)
}

// Get returns the marker with the given id.
func (s *Store) Get(id string) (models.Marker, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Marker{}, false
	}

	return s.markers[idx], true
}

// List returns a copy of the markers in insertion order.
func (s *Store) List() []models.Marker {
	return slices.Clone(s.markers)
}

// Fields returns the content of all markers in insertion order.
func (s *Store) Fields() []models.Fields {
	out := make([]models.Fields, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m.Fields())
	}

	return out
}

func (s *Store) Len() int {
	return len(s.markers)
}

func (s *Store) newMarker(fields models.Fields) models.Marker {
	fields = fields.WithDefaults()

	return models.Marker{
		ID:          s.newID(),
		Lat:         fields.Lat,
		Lng:         fields.Lng,
		Title:       fields.Title,
		Description: fields.Description,
		Icon:        fields.Icon,
		CreatedAt:   s.now().UnixMilli(),
	}
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.markers, func(m models.Marker) bool { return m.ID == id })
}

// afterChange runs the side effects in their fixed order: persist, then snapshot.
func (s *Store) afterChange(ctx context.Context, snapshot bool) {
	if s.persist != nil {
		s.persist.Save(ctx, s.List())
	}
	if !snapshot || s.recorder == nil {
		return
	}
	if err := s.recorder.Record(s.Fields()); err != nil {
		s.log.ErrorContext(ctx, "Failed to record history snapshot", "error", err)
	}
}
