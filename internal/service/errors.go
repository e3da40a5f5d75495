package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/meeting-reservation/internal/model"
	"github.com/iliyamo/meeting-reservation/internal/repository"
)

var (
	// ErrValidation means a required field is missing or a query value is
	// not understood.
	ErrValidation = errors.New("validation error")
	// ErrSlotConflict means the requested slot is too close to another live
	// reservation.  Returned errors are *ConflictError values wrapping it.
	ErrSlotConflict = errors.New("slot conflict")
	// ErrInvalidSlot means the date or time does not parse.
	ErrInvalidSlot = errors.New("invalid date or time")

	// ErrNotFound and ErrPersistence come from the store unchanged.
	ErrNotFound    = repository.ErrNotFound
	ErrPersistence = repository.ErrPersistence
)

// ConflictError reports which booked slot blocks the requested one.  Only
// the slot is exposed, never the other reservation's contact details.
type ConflictError struct {
	Requested model.Slot
	Existing  model.Slot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s %s conflicts with the reservation at %s %s",
		e.Requested.Date, e.Requested.Time, e.Existing.Date, e.Existing.Time)
}

func (e *ConflictError) Unwrap() error { return ErrSlotConflict }
