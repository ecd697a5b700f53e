// Package persistence serializes the marker set to a single named storage slot.
// It never returns errors to its callers: a failed save must not undo the
// in-memory edit that triggered it.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pinboard/internal/metrics"
	"github.com/UnknownOlympus/pinboard/internal/models"
	"github.com/UnknownOlympus/pinboard/internal/repository"
)

// DefaultSlotName is the storage key holding the marker array.
const DefaultSlotName = "pinboard.markers"

// StorageError describes a failed read or write of the storage slot.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Adapter is a codec between the marker list and a storage slot.
type Adapter struct {
	slot     repository.Slot
	slotName string
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewAdapter creates an Adapter writing to slotName. An empty name uses DefaultSlotName.
// metrics may be nil.
func NewAdapter(slot repository.Slot, slotName string, log *slog.Logger, m *metrics.Metrics) *Adapter {
	if slotName == "" {
		slotName = DefaultSlotName
	}

	return &Adapter{slot: slot, slotName: slotName, log: log, metrics: m}
}

// Save writes the ordered marker list and reports whether it succeeded.
func (a *Adapter) Save(ctx context.Context, markers []models.Marker) bool {
	records := make([]models.Record, 0, len(markers))
	for _, m := range markers {
		records = append(records, m.Record())
	}

	data, err := json.Marshal(records)
	if err != nil {
		a.fail(ctx, &StorageError{Op: "encode", Err: err})
		return false
	}

	if err = a.slot.Write(ctx, a.slotName, string(data)); err != nil {
		a.fail(ctx, &StorageError{Op: "write", Err: err})
		return false
	}

	a.log.DebugContext(ctx, "Markers saved", "slot", a.slotName, "count", len(records))

	return true
}

// Load reads the persisted records. A missing, unreadable or corrupted slot
// yields an empty result.
func (a *Adapter) Load(ctx context.Context) []models.Record {
	raw, err := a.slot.Read(ctx, a.slotName)
	if errors.Is(err, repository.ErrSlotNotFound) {
		a.log.DebugContext(ctx, "No persisted markers", "slot", a.slotName)
		return []models.Record{}
	}
	if err != nil {
		a.fail(ctx, &StorageError{Op: "read", Err: err})
		return []models.Record{}
	}

	var records []models.Record
	if err = json.Unmarshal([]byte(raw), &records); err != nil {
		a.fail(ctx, &StorageError{Op: "decode", Err: err})
		return []models.Record{}
	}
	if records == nil {
		records = []models.Record{}
	}

	return records
}

// Clear removes the slot and reports whether it succeeded.
func (a *Adapter) Clear(ctx context.Context) bool {
	if err := a.slot.Delete(ctx, a.slotName); err != nil {
		a.fail(ctx, &StorageError{Op: "delete", Err: err})
		return false
	}

	return true
}

func (a *Adapter) fail(ctx context.Context, err *StorageError) {
	a.log.ErrorContext(ctx, "Persistence failed", "slot", a.slotName, "op", err.Op, "error", err)
	if a.metrics != nil {
		a.metrics.PersistenceFailures.WithLabelValues(err.Op).Inc()
	}
}
