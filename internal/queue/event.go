// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation is successfully
// created. It carries enough information for downstream consumers to log,
// notify, or feed analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	RoomID        uint64 `json:"room_id"`
	Date          string `json:"reservation_date"`
	StartHour     int    `json:"start_hour"`
	EndHour       int    `json:"end_hour"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published when a user cancels a reservation.
type ReservationCancelledEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	CancelledAt   string `json:"cancelled_at"`
}
