package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/meeting-reservation/internal/model"
	"github.com/iliyamo/meeting-reservation/internal/repository"
)

// Notifier receives a confirmation for every created reservation.  Notify
// must not block on delivery; an error means the message was not even
// accepted and is only logged.
type Notifier interface {
	Notify(email string, r model.Reservation) error
}

// Input carries the client-supplied fields of a reservation.
type Input struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
	Time  string `json:"time"`
	Note  string `json:"note"`
}

func (in Input) slot() model.Slot { return model.Slot{Date: in.Date, Time: in.Time} }

func (in Input) reservation(id string) model.Reservation {
	return model.Reservation{ID: id, Name: in.Name, Email: in.Email, Date: in.Date, Time: in.Time, Note: in.Note}
}

// validate checks presence of the required fields and the slot format.
func (in Input) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", in.Name}, {"email", in.Email}, {"date", in.Date}, {"time", in.Time},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	_, err := ParseSlot(in.slot())
	return err
}

// Options configures a ReservationService.  The zero value uses the window
// policy, no notifier and a no-op logger.
type Options struct {
	Checker          Checker
	Notifier         Notifier
	Logger           *zap.Logger
	IdempotentDelete bool
	// Hours bounds the availability grid.  Nil means DefaultHours.
	Hours *BusinessHours
}

// BusinessHours is the inclusive range of bookable hours on a day.
type BusinessHours struct {
	Open, Close int
}

// DefaultHours matches the calendar shown by the booking page.
var DefaultHours = BusinessHours{Open: 10, Close: 19}

// ReservationService applies the conflict rule in front of the store.
// Every mutation runs its conflict scan and its write under one lock, so two
// concurrent requests for overlapping slots cannot both succeed.  Reads share
// the lock and never observe a half-applied write.
type ReservationService struct {
	mu       sync.RWMutex
	store    repository.Store
	checker  Checker
	notifier Notifier
	log      *zap.Logger

	idempotentDelete bool
	hours            BusinessHours
}

// NewReservationService returns a service owning store.
func NewReservationService(store repository.Store, opts Options) *ReservationService {
	if store == nil {
		panic("nil store passed to NewReservationService")
	}
	if opts.Checker.Policy == "" {
		opts.Checker.Policy = PolicyWindow
	}
	if opts.Checker.Window <= 0 {
		opts.Checker.Window = DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	hours := DefaultHours
	if opts.Hours != nil {
		hours = *opts.Hours
	}
	return &ReservationService{
		store:            store,
		checker:          opts.Checker,
		notifier:         opts.Notifier,
		log:              opts.Logger,
		idempotentDelete: opts.IdempotentDelete,
		hours:            hours,
	}
}

// Create books a new reservation and queues its confirmation.
func (s *ReservationService) Create(ctx context.Context, in Input) (model.Reservation, error) {
	if err := in.validate(); err != nil {
		return model.Reservation{}, err
	}
	created, err := s.create(ctx, in)
	if err != nil {
		return model.Reservation{}, err
	}
	s.log.Info("reservation created",
		zap.String("id", created.ID), zap.String("date", created.Date), zap.String("time", created.Time))

	if s.notifier != nil {
		if err := s.notifier.Notify(created.Email, created); err != nil {
			s.log.Warn("confirmation not queued", zap.String("id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

func (s *ReservationService) create(ctx context.Context, in Input) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureFree(ctx, in.slot(), ""); err != nil {
		return model.Reservation{}, err
	}
	return s.store.Insert(ctx, in.reservation(""))
}

// ensureFree must be called with s.mu held.
func (s *ReservationService) ensureFree(ctx context.Context, slot model.Slot, excludeID string) error {
	sameDay, err := s.store.List(ctx, model.Filter{Date: slot.Date})
	if err != nil {
		return err
	}
	hit, err := s.checker.Check(sameDay, slot, excludeID)
	if err != nil {
		return err
	}
	if hit != nil {
		return &ConflictError{Requested: slot, Existing: hit.Slot()}
	}
	return nil
}

// List returns the reservations matching f ordered by o.
func (s *ReservationService) List(ctx context.Context, f model.Filter, o model.Sort) ([]model.Reservation, error) {
	s.mu.RLock()
	items, err := s.store.List(ctx, f)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if o.IsZero() {
		return items, nil
	}
	key := func(r model.Reservation) string { return r.Time }
	if o.By == model.SortByDate {
		key = func(r model.Reservation) string { return r.Date }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if o.Dir == model.Desc {
			return key(items[i]) > key(items[j])
		}
		return key(items[i]) < key(items[j])
	})
	return items, nil
}

// Get returns one reservation.
func (s *ReservationService) Get(ctx context.Context, id string) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Get(ctx, id)
}

// Update overwrites every mutable field of reservation id.  The new slot is
// checked against every other reservation; keeping the current slot is
// always allowed.
func (s *ReservationService) Update(ctx context.Context, id string, in Input) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.Get(ctx, id); err != nil {
		return model.Reservation{}, err
	}
	if err := in.validate(); err != nil {
		return model.Reservation{}, err
	}
	if err := s.ensureFree(ctx, in.slot(), id); err != nil {
		return model.Reservation{}, err
	}
	updated, err := s.store.Update(ctx, in.reservation(id))
	if err != nil {
		return model.Reservation{}, err
	}
	s.log.Info("reservation updated",
		zap.String("id", id), zap.String("date", updated.Date), zap.String("time", updated.Time))
	return updated, nil
}

// Delete removes reservation id.  A missing id is ErrNotFound unless the
// service was built with IdempotentDelete.
func (s *ReservationService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) && s.idempotentDelete {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info("reservation deleted", zap.String("id", id))
	return nil
}

// Availability returns the hourly grid for date with booked cells marked.
func (s *ReservationService) Availability(ctx context.Context, date string) ([]model.AvailabilitySlot, error) {
	s.mu.RLock()
	sameDay, err := s.store.List(ctx, model.Filter{Date: date})
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return s.checker.Grid(sameDay, date, s.hours.Open, s.hours.Close)
}
