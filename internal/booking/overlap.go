package booking

import "time"

// Overlaps reports whether the half-open hour intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Back-to-back slots (aEnd == bStart) do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// OverlapQuery describes a conflict-detection probe: does any CONFIRMED
// reservation on Date overlap [Start,End)? Exactly one of RoomID/UserID
// is normally set, selecting the scope; a zero value means the dimension
// is not filtered. ExcludeID, when non-zero, ignores that reservation so
// a modification does not conflict with itself.
type OverlapQuery struct {
	RoomID    uint64
	UserID    uint64
	Date      time.Time
	Start     int
	End       int
	ExcludeID uint64
}

// SameDate reports whether two instants fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
