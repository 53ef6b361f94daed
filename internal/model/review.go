package model

import "time"

// Review is a user's review of a completed reservation. At most one review
// exists per reservation (unique key in the schema). Rating is 1–5.
type Review struct {
	ID            uint64    // reviews.id
	UserID        uint64    // reviews.user_id
	RoomID        uint64    // reviews.room_id
	ReservationID uint64    // reviews.reservation_id
	Rating        int       // reviews.rating
	Content       *string   // reviews.content (nullable)
	CreatedAt     time.Time // reviews.created_at
}
