// Package history implements linear snapshot-based undo/redo over the marker set.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/UnknownOlympus/pinboard/internal/models"
)

// DefaultCapacity is the number of snapshots retained when no capacity is given.
const DefaultCapacity = 50

// Snapshot is an immutable serialized copy of the ordered marker content.
// It holds no identity: restoring a snapshot yields fresh marker ids.
type Snapshot struct {
	data []byte
}

// NewSnapshot serializes the given marker content.
func NewSnapshot(fields []models.Fields) (Snapshot, error) {
	if fields == nil {
		fields = []models.Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	return Snapshot{data: data}, nil
}

// Fields decodes the snapshot back into marker content.
func (s Snapshot) Fields() ([]models.Fields, error) {
	var fields []models.Fields
	if err := json.Unmarshal(s.data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return fields, nil
}

// String returns the serialized form.
func (s Snapshot) String() string {
	return string(s.data)
}

// Manager is a bounded list of snapshots with a cursor. Index -1 means empty.
// A new record after an undo discards the redo branch.
type Manager struct {
	history  []Snapshot
	index    int
	capacity int
}

// New creates a Manager keeping at most capacity snapshots.
// Non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Manager{index: -1, capacity: capacity}
}

// Record appends a snapshot of the current state and moves the cursor to it.
func (m *Manager) Record(current []models.Fields) error {
	snap, err := NewSnapshot(current)
	if err != nil {
		return err
	}

	if m.index < len(m.history)-1 {
		m.history = m.history[:m.index+1]
	}
	m.history = append(m.history, snap)
	m.index++

	if len(m.history) > m.capacity {
		m.history = m.history[1:]
		m.index--
	}

	return nil
}

// Undo steps the cursor back and returns the snapshot it now points at.
func (m *Manager) Undo() (Snapshot, bool) {
	if m.index <= 0 {
		return Snapshot{}, false
	}
	m.index--

	return m.history[m.index], true
}

// Redo steps the cursor forward and returns the snapshot it now points at.
func (m *Manager) Redo() (Snapshot, bool) {
	if m.index >= len(m.history)-1 {
		return Snapshot{}, false
	}
	m.index++

	return m.history[m.index], true
}

// Current returns the snapshot under the cursor.
func (m *Manager) Current() (Snapshot, bool) {
	if m.index < 0 {
		return Snapshot{}, false
	}

	return m.history[m.index], true
}

func (m *Manager) CanUndo() bool { return m.index > 0 }

func (m *Manager) CanRedo() bool { return m.index < len(m.history)-1 }

// Len returns the number of retained snapshots.
func (m *Manager) Len() int { return len(m.history) }

// Index returns the cursor position, -1 when empty.
func (m *Manager) Index() int { return m.index }

// Capacity returns the maximum number of retained snapshots.
func (m *Manager) Capacity() int { return m.capacity }

// Reset drops all snapshots.
func (m *Manager) Reset() {
	m.history = nil
	m.index = -1
}
