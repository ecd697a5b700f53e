package repository

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by Read when the named slot does not exist.
var ErrSlotNotFound = errors.New("storage slot not found")

// Slot is a durable key-value store addressed by slot name.
// Writes are last-writer-wins.
type Slot interface {
	Read(ctx context.Context, name string) (string, error)
	Write(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}
