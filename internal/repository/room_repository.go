package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// RoomRepo provides CRUD for study rooms. Reservations reference rooms by
// id only; the reservation engine consumes this repository through the
// read-only IsActiveRoom check.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

const roomCols = "id,name,floor,capacity,has_whiteboard,has_projector,description,image_url,is_active,created_at,updated_at"

func scanRoom(row interface{ Scan(...any) error }) (model.Room, error) {
	var (
		rm          model.Room
		desc, image sql.NullString
	)
	err := row.Scan(&rm.ID, &rm.Name, &rm.Floor, &rm.Capacity, &rm.HasWhiteboard, &rm.HasProjector,
		&desc, &image, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return model.Room{}, err
	}
	if desc.Valid {
		rm.Description = &desc.String
	}
	if image.Valid {
		rm.ImageURL = &image.String
	}
	return rm, nil
}

// Create inserts a room and populates the generated ID.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO rooms (name, floor, capacity, has_whiteboard, has_projector, description, image_url) VALUES (?,?,?,?,?,?,?)",
		rm.Name, rm.Floor, rm.Capacity, rm.HasWhiteboard, rm.HasProjector, rm.Description, rm.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	return nil
}

// GetByID returns a single room. sql.ErrNoRows when absent.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+roomCols+" FROM rooms WHERE id=?", id)
	return scanRoom(row)
}

// List returns all rooms ordered by floor then name.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+roomCols+" FROM rooms ORDER BY floor, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// IsActive reports whether the room exists and is bookable. Unknown IDs
// return sql.ErrNoRows so callers can distinguish absence from inactivity.
func (r *RoomRepo) IsActive(ctx context.Context, id uint64) (bool, error) {
	var active bool
	err := r.DB.QueryRowContext(ctx, "SELECT is_active FROM rooms WHERE id=?", id).Scan(&active)
	if err != nil {
		return false, err
	}
	return active, nil
}

// RoomPatch carries optional fields for a partial room update. Nil fields
// are left unchanged.
type RoomPatch struct {
	Name          *string
	Floor         *int
	Capacity      *int
	HasWhiteboard *bool
	HasProjector  *bool
	Description   *string
	ImageURL      *string
	IsActive      *bool
}

// Update applies a patch. It returns sql.ErrNoRows when the room does not
// exist.
func (r *RoomRepo) Update(ctx context.Context, id uint64, p RoomPatch) error {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *p.Name)
	}
	if p.Floor != nil {
		sets = append(sets, "floor=?")
		args = append(args, *p.Floor)
	}
	if p.Capacity != nil {
		sets = append(sets, "capacity=?")
		args = append(args, *p.Capacity)
	}
	if p.HasWhiteboard != nil {
		sets = append(sets, "has_whiteboard=?")
		args = append(args, *p.HasWhiteboard)
	}
	if p.HasProjector != nil {
		sets = append(sets, "has_projector=?")
		args = append(args, *p.HasProjector)
	}
	if p.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *p.Description)
	}
	if p.ImageURL != nil {
		sets = append(sets, "image_url=?")
		args = append(args, *p.ImageURL)
	}
	if p.IsActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *p.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE rooms SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either absent or a no-op update; confirm existence.
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM rooms WHERE id=?", id).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a room. It refuses with ErrConflict while confirmed
// reservations for a future or current date exist, and returns
// sql.ErrNoRows for unknown IDs.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	var pending int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE room_id = ? AND status = 'CONFIRMED' AND reservation_date >= UTC_DATE()`,
		id).Scan(&pending)
	if err != nil {
		return err
	}
	if pending > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM rooms WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
