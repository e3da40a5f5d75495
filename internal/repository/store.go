package repository

import (
	"context"

	"github.com/iliyamo/meeting-reservation/internal/model"
)

// Store owns the authoritative collection of reservations.  It enforces no
// business constraints; callers check slot conflicts before writing.
type Store interface {
	// List returns the reservations matching f in store order.
	List(ctx context.Context, f model.Filter) ([]model.Reservation, error)
	// Get returns one reservation or ErrNotFound.
	Get(ctx context.Context, id string) (model.Reservation, error)
	// Insert assigns a fresh id and timestamps and stores r.
	Insert(ctx context.Context, r model.Reservation) (model.Reservation, error)
	// Update overwrites every mutable field of the reservation with r.ID.
	Update(ctx context.Context, r model.Reservation) (model.Reservation, error)
	// Delete removes the reservation or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	Close() error
}
