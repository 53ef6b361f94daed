package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-room-reservation/internal/booking"
	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/queue"
	queue_publisher "github.com/iliyamo/study-room-reservation/internal/service"
)

const dateLayout = "2006-01-02"

// ReservationHandler exposes the reservation engine over HTTP. All
// routes require JWT authentication; the engine owns every rule and
// conflict decision, this layer only parses, maps errors to status codes
// and publishes domain events.
type ReservationHandler struct {
	Engine *booking.Engine
	Clock  booking.Clock
}

func NewReservationHandler(engine *booking.Engine, clock booking.Clock) *ReservationHandler {
	if engine == nil || clock == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine, Clock: clock}
}

type createReservationReq struct {
	RoomID    uint64 `json:"room_id"`
	Date      string `json:"reservation_date"` // YYYY-MM-DD
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

type updateReservationReq struct {
	Date      *string `json:"reservation_date"`
	StartHour *int    `json:"start_hour"`
	EndHour   *int    `json:"end_hour"`
}

type reservationResp struct {
	ID            uint64     `json:"id"`
	UserID        uint64     `json:"user_id"`
	RoomID        uint64     `json:"room_id"`
	Date          string     `json:"reservation_date"`
	StartHour     int        `json:"start_hour"`
	EndHour       int        `json:"end_hour"`
	Status        string     `json:"status"`
	CurrentStatus string     `json:"current_status"`
	CreatedAt     time.Time  `json:"created_at"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`
}

func (h *ReservationHandler) toResp(res *model.Reservation) reservationResp {
	return reservationResp{
		ID:            res.ID,
		UserID:        res.UserID,
		RoomID:        res.RoomID,
		Date:          res.Date.Format(dateLayout),
		StartHour:     res.StartHour,
		EndHour:       res.EndHour,
		Status:        res.Status,
		CurrentStatus: booking.DeriveState(res, h.Clock.Now()),
		CreatedAt:     res.CreatedAt,
		CanceledAt:    res.CanceledAt,
	}
}

// mapBookingErr translates engine sentinels into HTTP responses. Every
// rejection kind keeps its own message so clients can react specifically.
func mapBookingErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrInvalidShape),
		errors.Is(err, booking.ErrPastDate),
		errors.Is(err, booking.ErrTooLate):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrSlotTaken),
		errors.Is(err, booking.ErrDoubleBooked),
		errors.Is(err, booking.ErrLockedWindow),
		errors.Is(err, booking.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, booking.ErrTxConflict):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "please retry"})
	default:
		log.Printf("reservation: unexpected error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_date must be YYYY-MM-DD"})
	}

	res, err := h.Engine.Create(c.Request().Context(), userID, req.RoomID, date, req.StartHour, req.EndHour)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return mapBookingErr(c, err)
	}

	// Fire-and-forget: a broker outage must not fail the booking.
	go func(ev queue.ReservationConfirmedEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishReservationConfirmed(ctx, ev)
	}(queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		RoomID:        res.RoomID,
		Date:          res.Date.Format(dateLayout),
		StartHour:     res.StartHour,
		EndHour:       res.EndHour,
		ConfirmedAt:   res.CreatedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, h.toResp(res))
}

// ListMine handles GET /v1/reservations/me. Most recent slot first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Engine.ListMine(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	out := make([]reservationResp, 0, len(items))
	for i := range items {
		out = append(out, h.toResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Update handles PATCH /v1/reservations/:id. Omitted fields keep their
// stored values.
func (h *ReservationHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var patch booking.Patch
	if req.Date != nil {
		d, err := time.ParseInLocation(dateLayout, *req.Date, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_date must be YYYY-MM-DD"})
		}
		patch.Date = &d
	}
	patch.StartHour = req.StartHour
	patch.EndHour = req.EndHour

	res, err := h.Engine.Modify(c.Request().Context(), userID, resID, patch)
	if err != nil {
		return mapBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, h.toResp(res))
}

// Cancel handles DELETE /v1/reservations/:id. The row is kept with
// status CANCELLED; reservations are never physically deleted.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Engine.Cancel(c.Request().Context(), userID, resID); err != nil {
		return mapBookingErr(c, err)
	}

	go func(id, uid uint64) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishReservationCancelled(ctx, queue.ReservationCancelledEvent{
			ReservationID: id,
			UserID:        uid,
			CancelledAt:   h.Clock.Now().Format(time.RFC3339),
		})
	}(resID, userID)

	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled"})
}
