package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

func TestDeriveState(t *testing.T) {
	res := &model.Reservation{
		Date:      date(2025, 3, 10),
		StartHour: 14,
		EndHour:   16,
		Status:    model.StatusConfirmed,
	}

	at := func(h, min int) time.Time {
		return time.Date(2025, 3, 10, h, min, 0, 0, time.UTC)
	}

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"well before start", at(10, 0), model.StateUpcoming},
		{"one minute before start", at(13, 59), model.StateUpcoming},
		{"exact start instant", at(14, 0), model.StateInUse},
		{"mid slot", at(15, 30), model.StateInUse},
		{"one minute before end", at(15, 59), model.StateInUse},
		{"exact end instant", at(16, 0), model.StateCompleted},
		{"after end", at(20, 0), model.StateCompleted},
		{"next day", time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC), model.StateCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveState(res, tc.now))
		})
	}
}

func TestDeriveStateCancelledWinsAlways(t *testing.T) {
	canceled := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	res := &model.Reservation{
		Date:       date(2025, 3, 10),
		StartHour:  14,
		EndHour:    16,
		Status:     model.StatusCancelled,
		CanceledAt: &canceled,
	}
	for _, now := range []time.Time{
		time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), // would be UPCOMING
		time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC), // would be IN_USE
		time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), // would be COMPLETED
	} {
		assert.Equal(t, model.StateCancelled, DeriveState(res, now))
	}
}
