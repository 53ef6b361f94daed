package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/study-room-reservation/internal/booking"
	"github.com/iliyamo/study-room-reservation/internal/config"
	"github.com/iliyamo/study-room-reservation/internal/middleware"
	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/repository"
)

// Availability labels reported alongside each room in public listings.
const (
	availInactive  = "INACTIVE"
	availInUse     = "IN_USE"
	availAvailable = "AVAILABLE"
)

// RoomHandler serves the public room catalog and the admin-only
// mutations. Public reads go through the Redis response cache, so every
// mutation invalidates the catalog paths.
type RoomHandler struct {
	Rooms  *repository.RoomRepo
	Engine *booking.Engine
	Cache  config.CacheConfig
	RDB    *redis.Client
}

func NewRoomHandler(rooms *repository.RoomRepo, engine *booking.Engine, cache config.CacheConfig, rdb *redis.Client) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Engine: engine, Cache: cache, RDB: rdb}
}

type roomReq struct {
	Name          string  `json:"name"`
	Floor         int     `json:"floor"`
	Capacity      int     `json:"capacity"`
	HasWhiteboard bool    `json:"has_whiteboard"`
	HasProjector  bool    `json:"has_projector"`
	Description   *string `json:"description"`
	ImageURL      *string `json:"image_url"`
}

type roomPatchReq struct {
	Name          *string `json:"name"`
	Floor         *int    `json:"floor"`
	Capacity      *int    `json:"capacity"`
	HasWhiteboard *bool   `json:"has_whiteboard"`
	HasProjector  *bool   `json:"has_projector"`
	Description   *string `json:"description"`
	ImageURL      *string `json:"image_url"`
	IsActive      *bool   `json:"is_active"`
}

type roomResp struct {
	ID                 uint64  `json:"id"`
	Name               string  `json:"name"`
	Floor              int     `json:"floor"`
	Capacity           int     `json:"capacity"`
	HasWhiteboard      bool    `json:"has_whiteboard"`
	HasProjector       bool    `json:"has_projector"`
	Description        *string `json:"description,omitempty"`
	ImageURL           *string `json:"image_url,omitempty"`
	IsActive           bool    `json:"is_active"`
	AvailabilityStatus string  `json:"availability_status"`
}

// availability reports what a walk-in student sees right now: inactive
// rooms stay INACTIVE regardless of bookings, otherwise the current
// clock hour decides between IN_USE and AVAILABLE.
func (h *RoomHandler) availability(c echo.Context, room *model.Room) string {
	if !room.IsActive {
		return availInactive
	}
	occupied, err := h.Engine.CurrentOccupancy(c.Request().Context(), room.ID)
	if err != nil {
		log.Printf("room: occupancy check failed for room %d: %v", room.ID, err)
		return availAvailable
	}
	if occupied {
		return availInUse
	}
	return availAvailable
}

func (h *RoomHandler) toResp(c echo.Context, room *model.Room) roomResp {
	return roomResp{
		ID:                 room.ID,
		Name:               room.Name,
		Floor:              room.Floor,
		Capacity:           room.Capacity,
		HasWhiteboard:      room.HasWhiteboard,
		HasProjector:       room.HasProjector,
		Description:        room.Description,
		ImageURL:           room.ImageURL,
		IsActive:           room.IsActive,
		AvailabilityStatus: h.availability(c, room),
	}
}

// List handles GET /rooms. Inactive rooms are included so the catalog
// stays complete; their availability marks them unusable.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.Rooms.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	out := make([]roomResp, 0, len(rooms))
	for i := range rooms {
		out = append(out, h.toResp(c, &rooms[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	roomID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	return c.JSON(http.StatusOK, h.toResp(c, &room))
}

func (h *RoomHandler) invalidateCatalog(roomID uint64) {
	paths := []string{"/v1/rooms"}
	if roomID != 0 {
		paths = append(paths, "/v1/rooms/"+utoa(roomID))
	}
	middleware.InvalidateCache(h.RDB, h.Cache, paths...)
}

// Create handles POST /v1/rooms (ADMIN only).
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive capacity are required"})
	}
	room := &model.Room{
		Name:          req.Name,
		Floor:         req.Floor,
		Capacity:      req.Capacity,
		HasWhiteboard: req.HasWhiteboard,
		HasProjector:  req.HasProjector,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		IsActive:      true,
	}
	if err := h.Rooms.Create(c.Request().Context(), room); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}
	h.invalidateCatalog(0)
	return c.JSON(http.StatusCreated, h.toResp(c, room))
}

// Update handles PATCH /v1/rooms/:id (ADMIN only). Setting is_active to
// false retires the room without touching existing reservations.
func (h *RoomHandler) Update(c echo.Context) error {
	roomID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	patch := repository.RoomPatch{
		Name:          req.Name,
		Floor:         req.Floor,
		Capacity:      req.Capacity,
		HasWhiteboard: req.HasWhiteboard,
		HasProjector:  req.HasProjector,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		IsActive:      req.IsActive,
	}
	if err := h.Rooms.Update(c.Request().Context(), roomID, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	h.invalidateCatalog(roomID)
	return c.JSON(http.StatusOK, h.toResp(c, &room))
}

// Delete handles DELETE /v1/rooms/:id (ADMIN only). Rejected while the
// room still has confirmed upcoming reservations.
func (h *RoomHandler) Delete(c echo.Context) error {
	roomID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	if err := h.Rooms.Delete(c.Request().Context(), roomID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room has upcoming reservations"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete room"})
		}
	}
	h.invalidateCatalog(roomID)
	return c.NoContent(http.StatusNoContent)
}
