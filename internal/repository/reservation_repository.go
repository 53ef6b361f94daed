package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/study-room-reservation/internal/booking"
	"github.com/iliyamo/study-room-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations table. Write
// paths are transaction-scoped (...Tx methods taking *sql.Tx) so the
// engine's store can group the conflict check and the guarded write into
// one atomic unit; the caller owns commit/rollback. All timestamps are
// stored in UTC and the reservation date as a DATE column.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const dateLayout = "2006-01-02"

const resCols = "id,user_id,room_id,reservation_date,start_hour,end_hour,status,created_at,canceled_at"

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var (
		res      model.Reservation
		canceled sql.NullTime
	)
	err := row.Scan(&res.ID, &res.UserID, &res.RoomID, &res.Date, &res.StartHour, &res.EndHour,
		&res.Status, &res.CreatedAt, &canceled)
	if err != nil {
		return nil, err
	}
	if canceled.Valid {
		t := canceled.Time
		res.CanceledAt = &t
	}
	return &res, nil
}

// overlapSQL builds the conflict probe for a scope described by q:
// a CONFIRMED reservation on the same date whose [start,end) interval
// intersects the candidate one (existing.start < new.end AND
// existing.end > new.start). Back-to-back intervals do not match.
func overlapSQL(q booking.OverlapQuery) (string, []any) {
	query := `SELECT id FROM reservations
	          WHERE reservation_date = ? AND start_hour < ? AND end_hour > ? AND status = 'CONFIRMED'`
	args := []any{q.Date.Format(dateLayout), q.End, q.Start}
	if q.RoomID != 0 {
		query += " AND room_id = ?"
		args = append(args, q.RoomID)
	}
	if q.UserID != 0 {
		query += " AND user_id = ?"
		args = append(args, q.UserID)
	}
	if q.ExcludeID != 0 {
		query += " AND id <> ?"
		args = append(args, q.ExcludeID)
	}
	query += " LIMIT 1"
	return query, args
}

// HasOverlapTx runs the conflict probe inside tx with a locking read, so
// under serializable isolation InnoDB holds the matching index range
// (including the gap) until the transaction commits. Two concurrent
// transactions probing the same empty slot therefore cannot both proceed
// to insert.
func (r *ReservationRepo) HasOverlapTx(ctx context.Context, tx *sql.Tx, q booking.OverlapQuery) (bool, error) {
	query, args := overlapSQL(q)
	var id uint64
	err := tx.QueryRowContext(ctx, query+" FOR UPDATE", args...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasOverlap is the non-locking variant used for read-only availability
// display.
func (r *ReservationRepo) HasOverlap(ctx context.Context, q booking.OverlapQuery) (bool, error) {
	query, args := overlapSQL(q)
	var id uint64
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertTx persists a new reservation within tx and populates the
// generated ID and the database-assigned creation timestamp.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	out, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, room_id, reservation_date, start_hour, end_hour, status) VALUES (?,?,?,?,?,?)",
		res.UserID, res.RoomID, res.Date.Format(dateLayout), res.StartHour, res.EndHour, res.Status)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at FROM reservations WHERE id = ?", res.ID).Scan(&res.CreatedAt)
}

// GetForUpdateTx loads a reservation with a write lock so concurrent
// cancellations/modifications of the same row serialize. sql.ErrNoRows
// when absent.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+resCols+" FROM reservations WHERE id = ? FOR UPDATE", id)
	return scanReservation(row)
}

// UpdateTx writes back the mutable fields (time fields, status,
// cancellation timestamp) of an already-loaded reservation.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	var canceled any
	if res.CanceledAt != nil {
		canceled = res.CanceledAt.UTC()
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET reservation_date=?, start_hour=?, end_hour=?, status=?, canceled_at=? WHERE id=?",
		res.Date.Format(dateLayout), res.StartHour, res.EndHour, res.Status, canceled, res.ID)
	return err
}

// GetByID returns a single reservation without locking.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+resCols+" FROM reservations WHERE id = ?", id)
	return scanReservation(row)
}

// ListByUser returns all reservations for the user, most recent slot
// first (date descending, then start hour descending). When none exist an
// empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+resCols+" FROM reservations WHERE user_id = ? ORDER BY reservation_date DESC, start_hour DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
