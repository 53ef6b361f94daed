package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-room-reservation/internal/booking"
	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/repository"
)

// ReviewHandler guards review creation behind the eligibility gate: the
// reservation must belong to the caller, be completed and still inside
// the review window, and carry no earlier review.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Engine  *booking.Engine
}

func NewReviewHandler(reviews *repository.ReviewRepo, engine *booking.Engine) *ReviewHandler {
	if reviews == nil || engine == nil {
		panic("nil dependency passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: reviews, Engine: engine}
}

type createReviewReq struct {
	ReservationID uint64  `json:"reservation_id"`
	Rating        int     `json:"rating"`
	Content       *string `json:"content"`
}

type reviewResp struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	RoomID        uint64    `json:"room_id"`
	ReservationID uint64    `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Content       *string   `json:"content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toReviewResp(rv *model.Review) reviewResp {
	return reviewResp{
		ID:            rv.ID,
		UserID:        rv.UserID,
		RoomID:        rv.RoomID,
		ReservationID: rv.ReservationID,
		Rating:        rv.Rating,
		Content:       rv.Content,
		CreatedAt:     rv.CreatedAt,
	}
}

// Create handles POST /v1/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id is required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx := c.Request().Context()

	// Ownership first: a reservation the caller does not own reads as
	// not found, never as forbidden.
	res, err := h.Engine.Get(ctx, userID, req.ReservationID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	ok, err := h.Engine.IsReviewable(ctx, req.ReservationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check eligibility"})
	}
	if !ok {
		if res.Status == model.StatusCancelled {
			return c.JSON(http.StatusConflict, echo.Map{"error": "cancelled reservations cannot be reviewed"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation is not open for review"})
	}
	exists, err := h.Reviews.ExistsForReservation(ctx, req.ReservationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing review"})
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already reviewed"})
	}

	rv := &model.Review{
		UserID:        userID,
		RoomID:        res.RoomID,
		ReservationID: req.ReservationID,
		Rating:        req.Rating,
		Content:       req.Content,
	}
	if err := h.Reviews.Create(ctx, rv); err != nil {
		// UNIQUE(reservation_id) closes the check/insert race.
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already reviewed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create review"})
	}
	return c.JSON(http.StatusCreated, toReviewResp(rv))
}

// ListByRoom handles GET /rooms/:id/reviews (public).
func (h *ReviewHandler) ListByRoom(c echo.Context) error {
	roomID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	items, err := h.Reviews.ListByRoom(c.Request().Context(), roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reviews"})
	}
	out := make([]reviewResp, 0, len(items))
	for i := range items {
		out = append(out, toReviewResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListMine handles GET /v1/reviews/me.
func (h *ReviewHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reviews.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reviews"})
	}
	out := make([]reviewResp, 0, len(items))
	for i := range items {
		out = append(out, toReviewResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Delete handles DELETE /v1/reviews/:id. Only the author may delete.
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	if err := h.Reviews.Delete(c.Request().Context(), reviewID, userID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your review"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete review"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
