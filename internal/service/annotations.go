package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/UnknownOlympus/pinboard/internal/codec"
	"github.com/UnknownOlympus/pinboard/internal/history"
	"github.com/UnknownOlympus/pinboard/internal/metrics"
	"github.com/UnknownOlympus/pinboard/internal/models"
	"github.com/UnknownOlympus/pinboard/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Persistence is the durable side of the annotation set.
type Persistence interface {
	Save(ctx context.Context, markers []models.Marker) bool
	Load(ctx context.Context) []models.Record
	Clear(ctx context.Context) bool
}

// AnnotationService ties the marker store, its undo history, persistence and
// the import/export codecs together. All methods are safe for concurrent use;
// operations are serialized so that a mutation and its side effects run to
// completion before the next one starts.
type AnnotationService struct {
	mu      sync.Mutex
	log     *slog.Logger
	store   *store.Store
	history *history.Manager
	persist Persistence
	metrics *metrics.Metrics
}

// NewAnnotationService creates a service with an empty store. Call Load to
// seed it from persistence. A nil m gets metrics on a private registry.
func NewAnnotationService(
	log *slog.Logger,
	persist Persistence,
	historyCapacity int,
	m *metrics.Metrics,
	opts ...store.Option,
) *AnnotationService {
	if m == nil {
		m = metrics.NewMetrics(prometheus.NewRegistry())
	}
	hist := history.New(historyCapacity)

	return &AnnotationService{
		log:     log,
		store:   store.New(log, persist, hist, opts...),
		history: hist,
		persist: persist,
		metrics: m,
	}
}

// Load replaces the store content with the persisted markers and starts a
// fresh history whose only entry is the loaded state.
func (as *AnnotationService) Load(ctx context.Context) int {
	as.mu.Lock()
	defer as.mu.Unlock()

	count := as.store.Seed(as.persist.Load(ctx))
	as.history.Reset()
	if err := as.history.Record(as.store.Fields()); err != nil {
		as.log.ErrorContext(ctx, "Failed to record initial snapshot", "error", err)
	}
	as.metrics.MarkersTotal.Set(float64(count))

	as.log.InfoContext(ctx, "Markers loaded", "count", count)

	return count
}

// Reset deletes the persisted slot and empties the store. History restarts
// from the empty state, so a reset cannot be undone. It reports whether the
// slot was cleared.
func (as *AnnotationService) Reset(ctx context.Context) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	cleared := as.persist.Clear(ctx)
	as.store.Seed(nil)
	as.history.Reset()
	if err := as.history.Record(as.store.Fields()); err != nil {
		as.log.ErrorContext(ctx, "Failed to record initial snapshot", "error", err)
	}
	as.mutated("reset")

	as.log.InfoContext(ctx, "Markers reset", "slot_cleared", cleared)

	return cleared
}

// AddMarker validates fields and appends a new marker.
func (as *AnnotationService) AddMarker(ctx context.Context, fields models.Fields) (string, error) {
	if err := models.ValidateFields(fields); err != nil {
		return "", err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	id, err := as.store.Add(ctx, fields)
	if err != nil {
		return "", err
	}
	as.mutated("add")

	return id, nil
}

// UpdateMarker applies patch to the marker with the given id.
// It reports false without error when the id is unknown.
func (as *AnnotationService) UpdateMarker(ctx context.Context, id string, patch models.Patch) (bool, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return false, &models.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	updated, err := as.store.Update(ctx, id, patch)
	if err != nil || !updated {
		return false, err
	}
	as.mutated("update")

	return true, nil
}

// RemoveMarker deletes the marker with the given id.
func (as *AnnotationService) RemoveMarker(ctx context.Context, id string) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.store.Remove(ctx, id) {
		return false
	}
	as.mutated("remove")

	return true
}

// ClearMarkers removes every marker. Clearing is itself undoable.
func (as *AnnotationService) ClearMarkers(ctx context.Context) {
	as.mu.Lock()
	defer as.mu.Unlock()

	as.store.Clear(ctx)
	as.mutated("clear")
}

// Markers returns the markers in insertion order.
func (as *AnnotationService) Markers() []models.Marker {
	as.mu.Lock()
	defer as.mu.Unlock()

	return as.store.List()
}

// Marker returns a single marker by id.
func (as *AnnotationService) Marker(id string) (models.Marker, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()

	return as.store.Get(id)
}

func (as *AnnotationService) CanUndo() bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	return as.history.CanUndo()
}

func (as *AnnotationService) CanRedo() bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	return as.history.CanRedo()
}

// Undo restores the previous snapshot. It reports whether anything changed.
func (as *AnnotationService) Undo(ctx context.Context) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	snap, ok := as.history.Undo()

	return as.apply(ctx, "undo", snap, ok)
}

// Redo re-applies the next snapshot. It reports whether anything changed.
func (as *AnnotationService) Redo(ctx context.Context) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	snap, ok := as.history.Redo()

	return as.apply(ctx, "redo", snap, ok)
}

// Import decodes r and adds every record, or none of them when any record is
// invalid. A successful import is a single undo step.
func (as *AnnotationService) Import(ctx context.Context, r io.Reader, format codec.Format) (int, error) {
	entries, err := codec.Decode(r, format)
	if err != nil {
		as.log.WarnContext(ctx, "Import rejected", "format", format, "error", err)
		return 0, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	ids, err := as.store.AddAll(ctx, entries)
	if err != nil {
		as.log.WarnContext(ctx, "Import rejected", "format", format, "error", err)
		return 0, fmt.Errorf("failed to import markers: %w", err)
	}
	if len(ids) > 0 {
		as.mutated("import")
		as.metrics.ImportedMarkers.WithLabelValues(string(format)).Add(float64(len(ids)))
	}

	as.log.InfoContext(ctx, "Markers imported", "format", format, "count", len(ids))

	return len(ids), nil
}

// ImportFile imports the file at path, choosing the format from its extension.
func (as *AnnotationService) ImportFile(ctx context.Context, path string) (int, error) {
	format, err := codec.FormatFromPath(path)
	if err != nil {
		return 0, err
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open import file: %w", err)
	}
	defer file.Close()

	return as.Import(ctx, file, format)
}

// Export writes the current markers to w.
func (as *AnnotationService) Export(w io.Writer, format codec.Format) error {
	return codec.Encode(w, format, as.Markers())
}

// ExportAll writes the current markers to dir in every format, naming each
// file basename plus the format extension. It returns the written paths.
func (as *AnnotationService) ExportAll(dir, basename string) ([]string, error) {
	markers := as.Markers()
	paths := make([]string, 0, len(codec.Formats()))

	for _, format := range codec.Formats() {
		path := filepath.Join(dir, basename+format.Ext())
		if err := writeExport(path, format, markers); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func writeExport(path string, format codec.Format, markers []models.Marker) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err = codec.Encode(file, format, markers); err != nil {
		return errors.Join(fmt.Errorf("failed to export %s: %w", format, err), file.Close())
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}

	return nil
}

func (as *AnnotationService) apply(ctx context.Context, action string, snap history.Snapshot, ok bool) bool {
	if !ok {
		as.metrics.HistoryActions.WithLabelValues(action, strconv.FormatBool(false)).Inc()
		return false
	}

	entries, err := snap.Fields()
	if err != nil {
		as.log.ErrorContext(ctx, "Failed to decode history snapshot", "action", action, "error", err)
		return false
	}

	as.store.Restore(ctx, entries)
	as.metrics.HistoryActions.WithLabelValues(action, strconv.FormatBool(true)).Inc()
	as.metrics.MarkersTotal.Set(float64(as.store.Len()))
	as.log.DebugContext(ctx, "History applied", "action", action, "index", as.history.Index(), "markers", len(entries))

	return true
}

func (as *AnnotationService) mutated(op string) {
	as.metrics.MarkerMutations.WithLabelValues(op).Inc()
	as.metrics.MarkersTotal.Set(float64(as.store.Len()))
}
