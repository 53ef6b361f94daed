package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

func TestReviewable(t *testing.T) {
	res := &model.Reservation{
		Date:      date(2025, 3, 10),
		StartHour: 14,
		EndHour:   16,
		Status:    model.StatusConfirmed,
	}
	end := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before completion", end.Add(-time.Minute), false},
		{"exactly at completion", end, true},
		{"next day", end.Add(24 * time.Hour), true},
		{"last instant of the window", end.Add(ReviewWindow), true},
		{"just past the window", end.Add(ReviewWindow + time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Reviewable(res, tc.now))
		})
	}
}

func TestReviewableCancelledNever(t *testing.T) {
	res := &model.Reservation{
		Date:      date(2025, 3, 10),
		StartHour: 14,
		EndHour:   16,
		Status:    model.StatusCancelled,
	}
	// Even at an instant where a confirmed reservation would qualify.
	now := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)
	assert.False(t, Reviewable(res, now))
}
