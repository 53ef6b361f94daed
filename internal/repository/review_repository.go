package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// ReviewRepo provides data access to the reviews table. Eligibility rules
// (completed reservation, 7-day window) live in the booking package; this
// layer only owns persistence and the one-review-per-reservation check.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewCols = "id,user_id,room_id,reservation_id,rating,content,created_at"

func scanReview(row interface{ Scan(...any) error }) (model.Review, error) {
	var (
		rv      model.Review
		content sql.NullString
	)
	err := row.Scan(&rv.ID, &rv.UserID, &rv.RoomID, &rv.ReservationID, &rv.Rating, &content, &rv.CreatedAt)
	if err != nil {
		return model.Review{}, err
	}
	if content.Valid {
		rv.Content = &content.String
	}
	return rv, nil
}

// Create inserts a review and populates the generated ID. A duplicate
// reservation_id trips the unique index and maps to ErrConflict.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (user_id, room_id, reservation_id, rating, content) VALUES (?,?,?,?,?)",
		rv.UserID, rv.RoomID, rv.ReservationID, rv.Rating, rv.Content)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// ExistsForReservation reports whether a review was already written for
// the reservation.
func (r *ReviewRepo) ExistsForReservation(ctx context.Context, reservationID uint64) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM reviews WHERE reservation_id=? LIMIT 1", reservationID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID returns a single review. sql.ErrNoRows when absent.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+reviewCols+" FROM reviews WHERE id=?", id)
	return scanReview(row)
}

// ListByRoom returns all reviews for a room, newest first.
func (r *ReviewRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Review, error) {
	return r.list(ctx, "room_id", roomID)
}

// ListByUser returns all reviews written by a user, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	return r.list(ctx, "user_id", userID)
}

func (r *ReviewRepo) list(ctx context.Context, col string, id uint64) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE "+col+"=? ORDER BY created_at DESC", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Delete removes a review owned by userID. It returns sql.ErrNoRows when
// the review does not exist and ErrForbidden when it belongs to someone
// else.
func (r *ReviewRepo) Delete(ctx context.Context, id, userID uint64) error {
	var owner uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT user_id FROM reviews WHERE id=?", id).Scan(&owner); err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
	return err
}
