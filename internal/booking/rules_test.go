package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateNewBookingShape(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	tomorrow := date(2025, 3, 11)

	cases := []struct {
		name       string
		start, end int
		wantErr    error
	}{
		{"one hour ok", 14, 15, nil},
		{"two hours ok", 14, 16, nil},
		{"opening slot", 9, 10, nil},
		{"closing slot", 21, 22, nil},
		{"closing double", 20, 22, nil},
		{"before opening", 8, 9, ErrInvalidShape},
		{"past closing", 21, 23, ErrInvalidShape},
		{"zero length", 14, 14, ErrInvalidShape},
		{"inverted", 16, 14, ErrInvalidShape},
		{"three hours", 14, 17, ErrInvalidShape},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateNewBooking(tomorrow, tc.start, tc.end, now)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidateNewBookingTemporal(t *testing.T) {
	now := time.Date(2025, 3, 10, 13, 30, 0, 0, time.UTC)

	t.Run("yesterday rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateNewBooking(date(2025, 3, 9), 14, 15, now), ErrPastDate)
	})
	t.Run("same day earlier hour rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateNewBooking(date(2025, 3, 10), 12, 13, now), ErrTooLate)
	})
	t.Run("same day current hour rejected", func(t *testing.T) {
		// 13:30 means hour 13 has begun; start <= 13 is too late.
		assert.ErrorIs(t, ValidateNewBooking(date(2025, 3, 10), 13, 14, now), ErrTooLate)
	})
	t.Run("same day next hour accepted", func(t *testing.T) {
		assert.NoError(t, ValidateNewBooking(date(2025, 3, 10), 14, 15, now))
	})
	t.Run("future date any hour accepted", func(t *testing.T) {
		assert.NoError(t, ValidateNewBooking(date(2025, 3, 11), 9, 10, now))
	})
	t.Run("shape outranks past date", func(t *testing.T) {
		assert.ErrorIs(t, ValidateNewBooking(date(2025, 3, 9), 8, 9, now), ErrInvalidShape)
	})
}

func TestValidateModificationLockWindow(t *testing.T) {
	res := &model.Reservation{
		Date:      date(2025, 3, 10),
		StartHour: 14,
		EndHour:   16,
		Status:    model.StatusConfirmed,
	}

	t.Run("free before the window", func(t *testing.T) {
		now := time.Date(2025, 3, 10, 12, 59, 0, 0, time.UTC)
		assert.NoError(t, ValidateModification(res, now))
	})
	t.Run("locked exactly one hour before", func(t *testing.T) {
		now := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, ValidateModification(res, now), ErrLockedWindow)
	})
	t.Run("locked while in use", func(t *testing.T) {
		now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, ValidateModification(res, now), ErrLockedWindow)
	})
	t.Run("locked after completion on the same day", func(t *testing.T) {
		now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, ValidateModification(res, now), ErrLockedWindow)
	})
	t.Run("different day is free", func(t *testing.T) {
		now := time.Date(2025, 3, 9, 13, 30, 0, 0, time.UTC)
		assert.NoError(t, ValidateModification(res, now))
	})
}
