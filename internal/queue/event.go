// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/meeting-reservation/internal/model"
)

// DefaultQueue is the durable queue carrying confirmation requests.
const DefaultQueue = "reservation.created"

// ReservationCreatedEvent is published when a reservation is booked.  It
// carries everything the notifier needs to write the confirmation without
// querying the store.
type ReservationCreatedEvent struct {
    ReservationID string `json:"reservation_id"`
    To            string `json:"to"`
    Name          string `json:"name"`
    Email         string `json:"email"`
    Date          string `json:"date"`
    Time          string `json:"time"`
    Note          string `json:"note,omitempty"`
    CreatedAt     string `json:"created_at"`
}

// NewReservationCreatedEvent copies r into an event addressed to to.
func NewReservationCreatedEvent(to string, r model.Reservation) ReservationCreatedEvent {
    return ReservationCreatedEvent{
        ReservationID: r.ID,
        To:            to,
        Name:          r.Name,
        Email:         r.Email,
        Date:          r.Date,
        Time:          r.Time,
        Note:          r.Note,
        CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// Reservation rebuilds the reservation fields carried by the event.
func (e ReservationCreatedEvent) Reservation() model.Reservation {
    r := model.Reservation{ID: e.ReservationID, Name: e.Name, Email: e.Email, Date: e.Date, Time: e.Time, Note: e.Note}
    if t, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
        r.CreatedAt = t
        r.UpdatedAt = t
    }
    return r
}
