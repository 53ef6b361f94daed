// Package mysql adapts the repository layer to the booking engine's
// transactional Store interface. Transactions run at SERIALIZABLE
// isolation and the conflict probes inside them use locking reads, so two
// concurrent check-then-insert sequences for the same slot cannot both
// observe "no conflict". InnoDB resolves the contention by aborting one
// side with a deadlock or lock-wait error, which is mapped to
// booking.ErrTxConflict for the engine's bounded retry.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/study-room-reservation/internal/booking"
	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/repository"
)

// MySQL server error numbers surfaced on lock contention.
const (
	errDeadlock    = 1213
	errLockTimeout = 1205
)

// Store implements booking.Store over the reservation and room
// repositories.
type Store struct {
	db    *sql.DB
	repo  *repository.ReservationRepo
	rooms *repository.RoomRepo
}

func NewStore(db *sql.DB, repo *repository.ReservationRepo, rooms *repository.RoomRepo) *Store {
	return &Store{db: db, repo: repo, rooms: rooms}
}

// InTx runs fn inside one serializable transaction. The transaction is
// rolled back unless fn succeeds and the commit goes through.
func (s *Store) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&storeTx{tx: tx, repo: s.repo}); err != nil {
		return mapTxErr(err)
	}
	if err := tx.Commit(); err != nil {
		return mapTxErr(err)
	}
	committed = true
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return res, err
}

func (s *Store) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Store) HasOverlap(ctx context.Context, q booking.OverlapQuery) (bool, error) {
	return s.repo.HasOverlap(ctx, q)
}

// IsActiveRoom satisfies booking.RoomCatalog. Unknown rooms surface as
// booking.ErrNotFound.
func (s *Store) IsActiveRoom(ctx context.Context, roomID uint64) (bool, error) {
	active, err := s.rooms.IsActive(ctx, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, booking.ErrNotFound
	}
	return active, err
}

// storeTx is the in-transaction view handed to the engine.
type storeTx struct {
	tx   *sql.Tx
	repo *repository.ReservationRepo
}

func (t *storeTx) HasOverlap(ctx context.Context, q booking.OverlapQuery) (bool, error) {
	return t.repo.HasOverlapTx(ctx, t.tx, q)
}

func (t *storeTx) Insert(ctx context.Context, res *model.Reservation) error {
	return t.repo.InsertTx(ctx, t.tx, res)
}

func (t *storeTx) GetForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := t.repo.GetForUpdateTx(ctx, t.tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return res, err
}

func (t *storeTx) Update(ctx context.Context, res *model.Reservation) error {
	return t.repo.UpdateTx(ctx, t.tx, res)
}

// mapTxErr translates driver-level contention aborts into the engine's
// retryable sentinel while leaving business-rule errors untouched.
func mapTxErr(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == errDeadlock || myErr.Number == errLockTimeout {
			return fmt.Errorf("%w: %v", booking.ErrTxConflict, err)
		}
	}
	return err
}
