package model

import "time"

// Stored reservation statuses. Only CONFIRMED reservations participate in
// conflict detection; CANCELLED is terminal.
const (
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// Derived lifecycle states computed from a reservation and the current
// time. These are presentation values and are never persisted.
const (
	StateUpcoming  = "UPCOMING"
	StateInUse     = "IN_USE"
	StateCompleted = "COMPLETED"
	StateCancelled = StatusCancelled
)

// Reservation records a user's booking of a room for a whole-hour slot on
// a single calendar date. StartHour is inclusive and EndHour exclusive,
// so [14,16) means 14:00 through 15:59. Hours are constrained to the
// 09:00–22:00 operating window with a duration of one or two hours.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who made the reservation.
//  RoomID     – room being reserved.
//  Date       – calendar date of the slot (time component ignored).
//  StartHour  – first hour of the slot, inclusive.
//  EndHour    – hour the slot ends, exclusive.
//  Status     – CONFIRMED or CANCELLED.
//  CreatedAt  – creation timestamp.
//  CanceledAt – set exactly when Status is CANCELLED.
type Reservation struct {
	ID         uint64     // reservations.id
	UserID     uint64     // reservations.user_id
	RoomID     uint64     // reservations.room_id
	Date       time.Time  // reservations.reservation_date
	StartHour  int        // reservations.start_hour
	EndHour    int        // reservations.end_hour
	Status     string     // reservations.status
	CreatedAt  time.Time  // reservations.created_at
	CanceledAt *time.Time // reservations.canceled_at (nullable)
}

// StartsAt returns the instant the slot begins, in UTC.
func (r Reservation) StartsAt() time.Time {
	y, m, d := r.Date.Date()
	return time.Date(y, m, d, r.StartHour, 0, 0, 0, time.UTC)
}

// EndsAt returns the instant the slot ends (exclusive), in UTC.
func (r Reservation) EndsAt() time.Time {
	y, m, d := r.Date.Date()
	return time.Date(y, m, d, r.EndHour, 0, 0, 0, time.UTC)
}
