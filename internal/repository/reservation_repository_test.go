package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/study-room-reservation/internal/booking"
)

func TestOverlapSQL(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("room scope", func(t *testing.T) {
		query, args := overlapSQL(booking.OverlapQuery{RoomID: 5, Date: day, Start: 14, End: 16})
		assert.Contains(t, query, "start_hour < ? AND end_hour > ?")
		assert.Contains(t, query, "status = 'CONFIRMED'")
		assert.Contains(t, query, "room_id = ?")
		assert.NotContains(t, query, "user_id")
		assert.NotContains(t, query, "id <>")
		assert.True(t, strings.HasSuffix(query, "LIMIT 1"))
		// end binds before start: existing.start < new.end, existing.end > new.start
		assert.Equal(t, []any{"2025-03-10", 16, 14, uint64(5)}, args)
	})
	t.Run("user scope with exclusion", func(t *testing.T) {
		query, args := overlapSQL(booking.OverlapQuery{UserID: 7, Date: day, Start: 14, End: 16, ExcludeID: 42})
		assert.Contains(t, query, "user_id = ?")
		assert.Contains(t, query, "id <> ?")
		assert.NotContains(t, query, "room_id")
		assert.Equal(t, []any{"2025-03-10", 16, 14, uint64(7), uint64(42)}, args)
	})
	t.Run("both scopes", func(t *testing.T) {
		query, args := overlapSQL(booking.OverlapQuery{RoomID: 5, UserID: 7, Date: day, Start: 9, End: 10})
		assert.Contains(t, query, "room_id = ?")
		assert.Contains(t, query, "user_id = ?")
		assert.Len(t, args, 5)
	})
}
