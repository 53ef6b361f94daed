package booking

import (
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// ReviewWindow is how long after a reservation ends a review may still be
// written.
const ReviewWindow = 7 * 24 * time.Hour

// Reviewable reports whether a reservation can be reviewed at the given
// instant: it must be confirmed (never cancelled), finished, and no more
// than ReviewWindow past its end. Both window edges are inclusive.
// Duplicate-review prevention belongs to the review feature, not here.
func Reviewable(res *model.Reservation, now time.Time) bool {
	if res.Status != model.StatusConfirmed {
		return false
	}
	end := res.EndsAt()
	return !now.Before(end) && !now.After(end.Add(ReviewWindow))
}
