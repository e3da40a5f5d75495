package model

import "time"

// Reservation is a single booked business meeting.
//
// Fields:
//  ID        – opaque identifier assigned by the store, immutable.
//  Name      – name of the person holding the meeting.
//  Email     – address that receives the confirmation.
//  Date      – calendar day, YYYY-MM-DD.
//  Time      – wall-clock start time, HH:MM, no timezone.
//  Note      – optional free text.
//  CreatedAt – set by the store on insert.
//  UpdatedAt – set by the store on insert and update.
type Reservation struct {
    ID        string    `json:"id" db:"id"`
    Name      string    `json:"name" db:"name"`
    Email     string    `json:"email" db:"email"`
    Date      string    `json:"date" db:"date"`
    Time      string    `json:"time" db:"time"`
    Note      string    `json:"note" db:"note"`
    CreatedAt time.Time `json:"created_at" db:"created_at"`
    UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Slot returns the (date, time) pair the reservation occupies.
func (r Reservation) Slot() Slot { return Slot{Date: r.Date, Time: r.Time} }

// Slot is a (date, time) pair as submitted by clients.
type Slot struct {
    Date string `json:"date"`
    Time string `json:"time"`
}

// AvailabilitySlot is one cell of the hourly availability grid for a day.
// ReservationID is set when the cell is blocked by an existing reservation.
type AvailabilitySlot struct {
    Date          string `json:"date"`
    Time          string `json:"time"`
    Available     bool   `json:"available"`
    ReservationID string `json:"reservation_id,omitempty"`
}
