package booking

import (
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// Operating window and duration bounds for a slot. Start is inclusive,
// end exclusive, so the last bookable slot is [21,22) or [20,22).
const (
	OpenHour    = 9
	CloseHour   = 22
	MinDuration = 1
	MaxDuration = 2
)

// ValidateNewBooking checks a candidate interval against the static and
// time-relative rules, in a fixed order so the first failing rule
// determines the reported error:
//
//  1. shape: within the operating window, duration one or two hours
//  2. no past dates
//  3. same-day cutoff: the start hour must still be ahead of now
//
// It is a pure function of its inputs; conflict detection is separate.
func ValidateNewBooking(date time.Time, start, end int, now time.Time) error {
	if start < OpenHour || end > CloseHour || start >= end {
		return ErrInvalidShape
	}
	if d := end - start; d < MinDuration || d > MaxDuration {
		return ErrInvalidShape
	}
	if beforeDate(date, now) {
		return ErrPastDate
	}
	if SameDate(date, now) && start <= now.Hour() {
		return ErrTooLate
	}
	return nil
}

// ValidateModification enforces the modification lock: from one hour
// before the booked start, a reservation can no longer be changed or
// cancelled. Because the rule is currentHour >= start-1, it also holds
// for reservations that have already started or finished.
func ValidateModification(res *model.Reservation, now time.Time) error {
	if SameDate(res.Date, now) && now.Hour() >= res.StartHour-1 {
		return ErrLockedWindow
	}
	return nil
}

// beforeDate reports whether date falls on a calendar day strictly before
// the day of now, ignoring time components.
func beforeDate(date, now time.Time) bool {
	y, m, d := date.Date()
	ny, nm, nd := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).
		Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}
