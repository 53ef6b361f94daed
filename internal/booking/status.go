package booking

import (
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// DeriveState computes the presentation lifecycle state of a reservation
// at the given instant. It is a pure function and the result is never
// persisted, so it can never go stale. Boundaries are half-open: the
// instant exactly equal to the slot end is COMPLETED, not IN_USE.
func DeriveState(res *model.Reservation, now time.Time) string {
	if res.Status == model.StatusCancelled {
		return model.StateCancelled
	}
	switch {
	case now.Before(res.StartsAt()):
		return model.StateUpcoming
	case now.Before(res.EndsAt()):
		return model.StateInUse
	default:
		return model.StateCompleted
	}
}
