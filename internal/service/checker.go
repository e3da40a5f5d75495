package service

import (
	"fmt"
	"time"

	"github.com/iliyamo/meeting-reservation/internal/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Policy selects the rule that decides whether two slots collide.
type Policy string

const (
	// PolicyWindow rejects a slot less than Window away from another
	// reservation on the same date.
	PolicyWindow Policy = "window"
	// PolicyExact rejects only an identical (date, time) pair.
	PolicyExact Policy = "exact"
)

// DefaultWindow is the minimum distance between two meetings on one day.
const DefaultWindow = time.Hour

// Checker decides whether a slot may be booked.  It only reads the
// reservations it is given.
type Checker struct {
	Policy Policy
	Window time.Duration
}

// NewChecker returns a checker for the named policy.  A non-positive window
// falls back to DefaultWindow.
func NewChecker(policy string, window time.Duration) (Checker, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	switch Policy(policy) {
	case PolicyWindow, PolicyExact:
		return Checker{Policy: Policy(policy), Window: window}, nil
	case "":
		return Checker{Policy: PolicyWindow, Window: window}, nil
	}
	return Checker{}, fmt.Errorf("unknown conflict policy %q", policy)
}

// ParseSlot interprets a slot as a naive wall-clock timestamp.  UTC is used
// only as a fixed location so that no DST shift affects the arithmetic.
func ParseSlot(s model.Slot) (time.Time, error) {
	if _, err := time.Parse(dateLayout, s.Date); err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidSlot, s.Date)
	}
	if _, err := time.Parse(timeLayout, s.Time); err != nil || len(s.Time) != len(timeLayout) {
		return time.Time{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidSlot, s.Time)
	}
	return time.ParseInLocation(dateLayout+" "+timeLayout, s.Date+" "+s.Time, time.UTC)
}

// Check returns the first reservation in existing that conflicts with the
// candidate, or nil when the slot is free.  The reservation with id
// excludeID never conflicts, so an update may keep its own slot.
func (c Checker) Check(existing []model.Reservation, candidate model.Slot, excludeID string) (*model.Reservation, error) {
	at, err := ParseSlot(candidate)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		r := &existing[i]
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if r.Date != candidate.Date {
			continue
		}
		if c.conflicts(at, candidate, r) {
			return r, nil
		}
	}
	return nil, nil
}

func (c Checker) conflicts(at time.Time, candidate model.Slot, r *model.Reservation) bool {
	if c.Policy == PolicyExact {
		return r.Time == candidate.Time
	}
	other, err := ParseSlot(r.Slot())
	if err != nil {
		// rows written before slots were validated
		return r.Time == candidate.Time
	}
	diff := at.Sub(other)
	if diff < 0 {
		diff = -diff
	}
	return diff < c.Window
}

// Grid returns the hourly availability cells from open:00 to close:00
// inclusive for date.
func (c Checker) Grid(existing []model.Reservation, date string, open, close int) ([]model.AvailabilitySlot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidSlot, date)
	}
	out := make([]model.AvailabilitySlot, 0, close-open+1)
	for h := open; h <= close; h++ {
		cell := model.AvailabilitySlot{Date: date, Time: fmt.Sprintf("%02d:00", h), Available: true}
		hit, err := c.Check(existing, model.Slot{Date: date, Time: cell.Time}, "")
		if err != nil {
			return nil, err
		}
		if hit != nil {
			cell.Available = false
			cell.ReservationID = hit.ID
		}
		out = append(out, cell)
	}
	return out, nil
}
