// Package booking implements the reservation scheduling core: interval
// overlap detection, temporal business rules, derived lifecycle status,
// the review eligibility gate and the transactional engine that ties them
// together. Handlers translate the sentinel errors below into HTTP
// responses; each rejection kind is distinct so the boundary never has to
// guess.
package booking

import "errors"

var (
	// ErrInvalidShape rejects intervals outside the 09:00–22:00 operating
	// window or with a duration other than one or two hours.
	ErrInvalidShape = errors.New("invalid reservation interval")

	// ErrPastDate rejects bookings dated before today.
	ErrPastDate = errors.New("reservation date is in the past")

	// ErrTooLate rejects same-day bookings whose start hour has already
	// been reached.
	ErrTooLate = errors.New("start hour already passed")

	// ErrSlotTaken reports a room-scope overlap with a confirmed reservation.
	ErrSlotTaken = errors.New("room already reserved for this slot")

	// ErrDoubleBooked reports a user-scope overlap: the caller already holds
	// a confirmed reservation during the requested interval.
	ErrDoubleBooked = errors.New("user already has a reservation in this slot")

	// ErrLockedWindow rejects changes or cancellation from one hour before
	// the booked start onward.
	ErrLockedWindow = errors.New("reservation locked for changes")

	// ErrAlreadyCancelled reports an attempt to cancel or modify a
	// reservation that is already cancelled.
	ErrAlreadyCancelled = errors.New("reservation already cancelled")

	// ErrNotFound covers a missing reservation or room, and deliberately
	// also an ownership mismatch so the existence of other users' rows is
	// not leaked.
	ErrNotFound = errors.New("not found")

	// ErrTxConflict is a storage-level abort caused by concurrent
	// contention. The engine retries it transparently a bounded number of
	// times before surfacing it.
	ErrTxConflict = errors.New("transaction conflict")
)
