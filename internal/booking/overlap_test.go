package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{"identical", 14, 16, 14, 16, true},
		{"contained", 14, 16, 14, 15, true},
		{"partial front", 13, 15, 14, 16, true},
		{"partial back", 15, 17, 14, 16, true},
		{"surrounding", 13, 17, 14, 16, true},
		{"back to back before", 12, 14, 14, 16, false},
		{"back to back after", 16, 18, 14, 16, false},
		{"disjoint", 9, 10, 14, 16, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// overlap is symmetric
			assert.Equal(t, tc.want, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestSameDate(t *testing.T) {
	a := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.True(t, SameDate(a, time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)))
	assert.False(t, SameDate(a, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)))
	assert.False(t, SameDate(a, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)))
}
