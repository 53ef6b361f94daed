package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// Store is the transactional storage the engine writes reservations
// through. InTx runs fn inside one atomic transaction whose isolation
// guarantees that a conflict check and the write it guards observe a
// consistent snapshot: no other transaction can commit a conflicting
// reservation in between. Implementations return ErrTxConflict when the
// storage layer aborts on contention.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Reads outside a transaction; a consistent snapshot is enough.
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	HasOverlap(ctx context.Context, q OverlapQuery) (bool, error)
}

// Tx is the slice of Store available inside a transaction. GetForUpdate
// must take a write lock on the row so concurrent modifications of the
// same reservation serialize instead of losing updates.
type Tx interface {
	HasOverlap(ctx context.Context, q OverlapQuery) (bool, error)
	Insert(ctx context.Context, res *model.Reservation) error
	GetForUpdate(ctx context.Context, id uint64) (*model.Reservation, error)
	Update(ctx context.Context, res *model.Reservation) error
}

// RoomCatalog is the read-only room existence/activity check consumed
// from the room feature. Implementations return ErrNotFound for unknown
// room IDs.
type RoomCatalog interface {
	IsActiveRoom(ctx context.Context, roomID uint64) (bool, error)
}

// Patch carries the optional fields of a modification request. Nil fields
// keep their current values.
type Patch struct {
	Date      *time.Time
	StartHour *int
	EndHour   *int
}

// txAttempts bounds the transparent retry on ErrTxConflict before the
// error is surfaced to the caller.
const txAttempts = 3

// Engine is the only writer of reservation rows. It composes the rule
// validators and the conflict detector inside per-operation transactions
// so that no two confirmed reservations for the same room, or the same
// user, ever overlap.
type Engine struct {
	store Store
	rooms RoomCatalog
	clock Clock
}

// NewEngine wires the engine with its collaborators. All dependencies
// must be non-nil.
func NewEngine(store Store, rooms RoomCatalog, clock Clock) *Engine {
	if store == nil || rooms == nil || clock == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{store: store, rooms: rooms, clock: clock}
}

// Create validates and persists a new CONFIRMED reservation. Validation
// order: shape/date rules, room existence and activity, then — inside the
// transaction — the room-scope and user-scope conflict checks. Any
// rejection leaves storage untouched.
func (e *Engine) Create(ctx context.Context, userID, roomID uint64, date time.Time, start, end int) (*model.Reservation, error) {
	now := e.clock.Now()
	if err := ValidateNewBooking(date, start, end, now); err != nil {
		return nil, err
	}
	active, err := e.rooms.IsActiveRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !active {
		// An inactive room is rejected the same way as a missing one.
		return nil, ErrNotFound
	}

	res := &model.Reservation{
		UserID:    userID,
		RoomID:    roomID,
		Date:      date,
		StartHour: start,
		EndHour:   end,
		Status:    model.StatusConfirmed,
		CreatedAt: now,
	}
	err = e.inTx(ctx, func(tx Tx) error {
		taken, err := tx.HasOverlap(ctx, OverlapQuery{RoomID: roomID, Date: date, Start: start, End: end})
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}
		busy, err := tx.HasOverlap(ctx, OverlapQuery{UserID: userID, Date: date, Start: start, End: end})
		if err != nil {
			return err
		}
		if busy {
			return ErrDoubleBooked
		}
		return tx.Insert(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel transitions a reservation owned by userID to CANCELLED and
// records the cancellation instant. Cancellation is refused inside the
// lock window and for already-cancelled reservations.
func (e *Engine) Cancel(ctx context.Context, userID, reservationID uint64) error {
	now := e.clock.Now()
	return e.inTx(ctx, func(tx Tx) error {
		res, err := tx.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.UserID != userID {
			return ErrNotFound
		}
		if res.Status == model.StatusCancelled {
			return ErrAlreadyCancelled
		}
		if err := ValidateModification(res, now); err != nil {
			return err
		}
		res.Status = model.StatusCancelled
		canceled := now
		res.CanceledAt = &canceled
		return tx.Update(ctx, res)
	})
}

// Modify merges the patch over the stored time fields, revalidates the
// merged interval and re-runs both conflict scopes excluding the
// reservation itself. The lock window is checked against the *current*
// stored start, not the patched one. On any failure the row is left
// untouched.
func (e *Engine) Modify(ctx context.Context, userID, reservationID uint64, p Patch) (*model.Reservation, error) {
	now := e.clock.Now()
	var out *model.Reservation
	err := e.inTx(ctx, func(tx Tx) error {
		res, err := tx.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.UserID != userID {
			return ErrNotFound
		}
		if res.Status == model.StatusCancelled {
			return ErrAlreadyCancelled
		}
		if err := ValidateModification(res, now); err != nil {
			return err
		}

		date, start, end := res.Date, res.StartHour, res.EndHour
		if p.Date != nil {
			date = *p.Date
		}
		if p.StartHour != nil {
			start = *p.StartHour
		}
		if p.EndHour != nil {
			end = *p.EndHour
		}
		if err := ValidateNewBooking(date, start, end, now); err != nil {
			return err
		}

		taken, err := tx.HasOverlap(ctx, OverlapQuery{RoomID: res.RoomID, Date: date, Start: start, End: end, ExcludeID: res.ID})
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}
		busy, err := tx.HasOverlap(ctx, OverlapQuery{UserID: res.UserID, Date: date, Start: start, End: end, ExcludeID: res.ID})
		if err != nil {
			return err
		}
		if busy {
			return ErrDoubleBooked
		}

		res.Date, res.StartHour, res.EndHour = date, start, end
		if err := tx.Update(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMine returns the caller's reservations, most recent slot first
// (date descending, then start hour descending).
func (e *Engine) ListMine(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return e.store.ListByUser(ctx, userID)
}

// Get loads a single reservation owned by userID. An ownership mismatch
// is reported as ErrNotFound.
func (e *Engine) Get(ctx context.Context, userID, reservationID uint64) (*model.Reservation, error) {
	res, err := e.store.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrNotFound
	}
	return res, nil
}

// CurrentOccupancy reports whether the room is occupied by a confirmed
// reservation during the current hour. It is the conflict predicate
// specialized to the slot [now.Hour, now.Hour+1) today.
func (e *Engine) CurrentOccupancy(ctx context.Context, roomID uint64) (bool, error) {
	now := e.clock.Now()
	return e.store.HasOverlap(ctx, OverlapQuery{
		RoomID: roomID,
		Date:   now,
		Start:  now.Hour(),
		End:    now.Hour() + 1,
	})
}

// IsReviewable reports whether the reservation is completed and still
// inside the post-completion review window.
func (e *Engine) IsReviewable(ctx context.Context, reservationID uint64) (bool, error) {
	res, err := e.store.GetByID(ctx, reservationID)
	if err != nil {
		return false, err
	}
	return Reviewable(res, e.clock.Now()), nil
}

// inTx runs fn through the store, retrying a bounded number of times when
// the storage layer aborts on contention. Business-rule rejections are
// never retried.
func (e *Engine) inTx(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = e.store.InTx(ctx, fn)
		if !errors.Is(err, ErrTxConflict) {
			return err
		}
	}
	return err
}
