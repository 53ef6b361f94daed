package model

import "time"

// Room represents a bookable study room in the `rooms` table. Rooms are
// referenced by reservations and reviews via their numeric ID only; no
// embedded relations exist at this layer.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name (e.g. "A1").
//  Floor         – floor the room is located on.
//  Capacity      – maximum number of occupants.
//  HasWhiteboard – whether a whiteboard is installed.
//  HasProjector  – whether a projector is installed.
//  Description   – optional free-text description.
//  ImageURL      – optional image URL.
//  IsActive      – whether the room can currently be booked.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Room struct {
	ID            uint64    // rooms.id
	Name          string    // rooms.name
	Floor         int       // rooms.floor
	Capacity      int       // rooms.capacity
	HasWhiteboard bool      // rooms.has_whiteboard
	HasProjector  bool      // rooms.has_projector
	Description   *string   // rooms.description (nullable)
	ImageURL      *string   // rooms.image_url (nullable)
	IsActive      bool      // rooms.is_active
	CreatedAt     time.Time // rooms.created_at
	UpdatedAt     time.Time // rooms.updated_at
}
