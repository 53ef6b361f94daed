package booking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// fakeClock lets tests move time explicitly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// memStore is an in-memory Store. A mutex serializes InTx bodies, which
// gives the same guarantee a serializable database transaction provides:
// the conflict check and the write inside one call observe a consistent
// state no concurrent call can slip between. Writes are staged and only
// applied when the transaction body succeeds.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Reservation
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, rows: make(map[uint64]*model.Reservation)}
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{s: s, staged: make(map[uint64]model.Reservation)}
	if err := fn(tx); err != nil {
		return err
	}
	for id, res := range tx.staged {
		cp := res
		s.rows[id] = &cp
	}
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, res := range s.rows {
		if res.UserID == userID {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].StartHour > out[j].StartHour
	})
	return out, nil
}

func (s *memStore) HasOverlap(ctx context.Context, q OverlapQuery) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlapLocked(q), nil
}

func (s *memStore) overlapLocked(q OverlapQuery) bool {
	for _, res := range s.rows {
		if res.Status != model.StatusConfirmed {
			continue
		}
		if q.ExcludeID != 0 && res.ID == q.ExcludeID {
			continue
		}
		if q.RoomID != 0 && res.RoomID != q.RoomID {
			continue
		}
		if q.UserID != 0 && res.UserID != q.UserID {
			continue
		}
		if !SameDate(res.Date, q.Date) {
			continue
		}
		if Overlaps(q.Start, q.End, res.StartHour, res.EndHour) {
			return true
		}
	}
	return false
}

type memTx struct {
	s      *memStore
	staged map[uint64]model.Reservation
}

func (t *memTx) HasOverlap(ctx context.Context, q OverlapQuery) (bool, error) {
	return t.s.overlapLocked(q), nil
}

func (t *memTx) Insert(ctx context.Context, res *model.Reservation) error {
	res.ID = t.s.nextID
	t.s.nextID++
	t.staged[res.ID] = *res
	return nil
}

func (t *memTx) GetForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, ok := t.s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (t *memTx) Update(ctx context.Context, res *model.Reservation) error {
	if _, ok := t.s.rows[res.ID]; !ok {
		return ErrNotFound
	}
	t.staged[res.ID] = *res
	return nil
}

// fakeRooms marks which room IDs exist and whether they are active.
type fakeRooms struct{ active map[uint64]bool }

func (f *fakeRooms) IsActiveRoom(ctx context.Context, roomID uint64) (bool, error) {
	active, ok := f.active[roomID]
	if !ok {
		return false, ErrNotFound
	}
	return active, nil
}

func newTestEngine(now time.Time) (*Engine, *memStore, *fakeClock) {
	store := newMemStore()
	clock := &fakeClock{now: now}
	rooms := &fakeRooms{active: map[uint64]bool{1: true, 2: true, 3: false}}
	return NewEngine(store, rooms, clock), store, clock
}

var morning = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func TestCreateHappyPath(t *testing.T) {
	eng, _, _ := newTestEngine(morning)
	ctx := context.Background()

	res, err := eng.Create(ctx, 7, 1, date(2025, 3, 10), 14, 16)
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	assert.Equal(t, morning, res.CreatedAt)
	assert.Nil(t, res.CanceledAt)

	got, err := eng.Get(ctx, 7, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
}

func TestCreateRejections(t *testing.T) {
	eng, _, _ := newTestEngine(morning)
	ctx := context.Background()
	day := date(2025, 3, 11)

	_, err := eng.Create(ctx, 7, 1, day, 14, 16)
	require.NoError(t, err)

	t.Run("same room overlapping slot", func(t *testing.T) {
		_, err := eng.Create(ctx, 8, 1, day, 15, 17)
		assert.ErrorIs(t, err, ErrSlotTaken)
	})
	t.Run("same user overlapping slot in another room", func(t *testing.T) {
		_, err := eng.Create(ctx, 7, 2, day, 15, 16)
		assert.ErrorIs(t, err, ErrDoubleBooked)
	})
	t.Run("room scope checked before user scope", func(t *testing.T) {
		// Same user, same room, same slot trips both; the room check wins.
		_, err := eng.Create(ctx, 7, 1, day, 14, 16)
		assert.ErrorIs(t, err, ErrSlotTaken)
	})
	t.Run("back to back is free", func(t *testing.T) {
		_, err := eng.Create(ctx, 8, 1, day, 16, 18)
		assert.NoError(t, err)
	})
	t.Run("inactive room", func(t *testing.T) {
		_, err := eng.Create(ctx, 7, 3, day, 18, 19)
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("unknown room", func(t *testing.T) {
		_, err := eng.Create(ctx, 7, 99, day, 18, 19)
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("validation precedes conflicts", func(t *testing.T) {
		_, err := eng.Create(ctx, 8, 1, day, 14, 17)
		assert.ErrorIs(t, err, ErrInvalidShape)
	})
}

func TestCancel(t *testing.T) {
	eng, _, clock := newTestEngine(morning)
	ctx := context.Background()

	res, err := eng.Create(ctx, 7, 1, date(2025, 3, 10), 14, 16)
	require.NoError(t, err)

	t.Run("not the owner", func(t *testing.T) {
		assert.ErrorIs(t, eng.Cancel(ctx, 8, res.ID), ErrNotFound)
	})
	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, eng.Cancel(ctx, 7, 999), ErrNotFound)
	})
	t.Run("success sets status and timestamp", func(t *testing.T) {
		clock.Set(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
		require.NoError(t, eng.Cancel(ctx, 7, res.ID))

		got, err := eng.Get(ctx, 7, res.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		require.NotNil(t, got.CanceledAt)
		assert.Equal(t, clock.Now(), *got.CanceledAt)
	})
	t.Run("second cancel rejected", func(t *testing.T) {
		assert.ErrorIs(t, eng.Cancel(ctx, 7, res.ID), ErrAlreadyCancelled)
	})
	t.Run("cancelled slot is free again", func(t *testing.T) {
		_, err := eng.Create(ctx, 8, 1, date(2025, 3, 10), 14, 16)
		assert.NoError(t, err)
	})
}

func TestCancelLockedWindow(t *testing.T) {
	eng, _, clock := newTestEngine(morning)
	ctx := context.Background()

	res, err := eng.Create(ctx, 7, 1, date(2025, 3, 10), 14, 16)
	require.NoError(t, err)

	clock.Set(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, eng.Cancel(ctx, 7, res.ID), ErrLockedWindow)

	// Still confirmed.
	got, err := eng.Get(ctx, 7, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
}

func TestModify(t *testing.T) {
	eng, _, clock := newTestEngine(morning)
	ctx := context.Background()
	day := date(2025, 3, 11)

	res, err := eng.Create(ctx, 7, 1, day, 14, 16)
	require.NoError(t, err)
	_, err = eng.Create(ctx, 8, 1, day, 18, 20)
	require.NoError(t, err)

	t.Run("shrink within own slot", func(t *testing.T) {
		// The old interval overlaps the new one; the reservation must
		// not conflict with itself.
		end := 15
		got, err := eng.Modify(ctx, 7, res.ID, Patch{EndHour: &end})
		require.NoError(t, err)
		assert.Equal(t, 14, got.StartHour)
		assert.Equal(t, 15, got.EndHour)
	})
	t.Run("move onto another reservation", func(t *testing.T) {
		start, end := 19, 20
		_, err := eng.Modify(ctx, 7, res.ID, Patch{StartHour: &start, EndHour: &end})
		assert.ErrorIs(t, err, ErrSlotTaken)

		// Failed modification leaves the row untouched.
		got, err := eng.Get(ctx, 7, res.ID)
		require.NoError(t, err)
		assert.Equal(t, 14, got.StartHour)
		assert.Equal(t, 15, got.EndHour)
	})
	t.Run("patched interval is revalidated", func(t *testing.T) {
		start, end := 20, 23
		_, err := eng.Modify(ctx, 7, res.ID, Patch{StartHour: &start, EndHour: &end})
		assert.ErrorIs(t, err, ErrInvalidShape)
	})
	t.Run("not the owner", func(t *testing.T) {
		start := 16
		_, err := eng.Modify(ctx, 8, res.ID, Patch{StartHour: &start})
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("lock window uses the stored start", func(t *testing.T) {
		today, err := eng.Create(ctx, 9, 2, date(2025, 3, 10), 14, 15)
		require.NoError(t, err)

		// 13:00 is inside the lock window of the stored 14:00 start;
		// patching to a later hour must not bypass it.
		clock.Set(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC))
		start, end := 20, 21
		_, err = eng.Modify(ctx, 9, today.ID, Patch{StartHour: &start, EndHour: &end})
		assert.ErrorIs(t, err, ErrLockedWindow)
	})
}

func TestListMineOrdering(t *testing.T) {
	eng, _, _ := newTestEngine(morning)
	ctx := context.Background()

	_, err := eng.Create(ctx, 7, 1, date(2025, 3, 11), 10, 11)
	require.NoError(t, err)
	_, err = eng.Create(ctx, 7, 1, date(2025, 3, 11), 15, 16)
	require.NoError(t, err)
	_, err = eng.Create(ctx, 7, 2, date(2025, 3, 12), 9, 10)
	require.NoError(t, err)
	_, err = eng.Create(ctx, 8, 1, date(2025, 3, 12), 12, 13) // someone else
	require.NoError(t, err)

	items, err := eng.ListMine(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, date(2025, 3, 12), items[0].Date)
	assert.Equal(t, 15, items[1].StartHour)
	assert.Equal(t, 10, items[2].StartHour)
}

func TestCurrentOccupancy(t *testing.T) {
	eng, _, clock := newTestEngine(morning)
	ctx := context.Background()

	res, err := eng.Create(ctx, 7, 1, date(2025, 3, 10), 14, 16)
	require.NoError(t, err)

	check := func(h, min int, want bool) {
		clock.Set(time.Date(2025, 3, 10, h, min, 0, 0, time.UTC))
		got, err := eng.CurrentOccupancy(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, want, got, "at %02d:%02d", h, min)
	}

	check(13, 30, false)
	check(14, 0, true)
	check(15, 59, true)
	check(16, 0, false)

	// Cancellation frees the hour immediately.
	clock.Set(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, eng.Cancel(ctx, 7, res.ID))
	check(15, 0, false)
}

func TestIsReviewable(t *testing.T) {
	eng, _, clock := newTestEngine(morning)
	ctx := context.Background()

	res, err := eng.Create(ctx, 7, 1, date(2025, 3, 10), 14, 16)
	require.NoError(t, err)

	clock.Set(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC))
	ok, err := eng.IsReviewable(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, ok, "still in use")

	clock.Set(time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC))
	ok, err = eng.IsReviewable(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, ok, "just completed")

	clock.Set(time.Date(2025, 3, 18, 16, 1, 0, 0, time.UTC))
	ok, err = eng.IsReviewable(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, ok, "window expired")
}

// conflictStore fails InTx with ErrTxConflict a fixed number of times
// before delegating, imitating deadlock aborts under contention.
type conflictStore struct {
	*memStore
	mu       sync.Mutex
	failures int
	attempts int
}

func (s *conflictStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	s.attempts++
	fail := s.attempts <= s.failures
	s.mu.Unlock()
	if fail {
		return ErrTxConflict
	}
	return s.memStore.InTx(ctx, fn)
}

func TestCreateRetriesOnTxConflict(t *testing.T) {
	ctx := context.Background()
	rooms := &fakeRooms{active: map[uint64]bool{1: true}}
	clock := &fakeClock{now: morning}

	t.Run("recovers within the retry limit", func(t *testing.T) {
		store := &conflictStore{memStore: newMemStore(), failures: 2}
		eng := NewEngine(store, rooms, clock)

		res, err := eng.Create(ctx, 7, 1, date(2025, 3, 11), 14, 16)
		require.NoError(t, err)
		assert.NotZero(t, res.ID)
		assert.Equal(t, 3, store.attempts)
	})
	t.Run("gives up after the retry limit", func(t *testing.T) {
		store := &conflictStore{memStore: newMemStore(), failures: 10}
		eng := NewEngine(store, rooms, clock)

		_, err := eng.Create(ctx, 7, 1, date(2025, 3, 11), 14, 16)
		assert.ErrorIs(t, err, ErrTxConflict)
		assert.Equal(t, 3, store.attempts)
	})
}

// TestConcurrentCreatesSingleWinner races many users for the same room
// and slot. Exactly one create may win; every loser sees the room
// conflict and no two confirmed reservations overlap afterwards.
func TestConcurrentCreatesSingleWinner(t *testing.T) {
	eng, store, _ := newTestEngine(morning)
	ctx := context.Background()
	day := date(2025, 3, 11)

	const n = 32
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Create(ctx, uint64(100+i), 1, day, 14, 16)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, wins)

	confirmed := 0
	for _, res := range store.rows {
		if res.Status == model.StatusConfirmed {
			confirmed++
		}
	}
	assert.Equal(t, 1, confirmed)
}

// TestReservationLifecycle walks one reservation through its whole life:
// created in the morning, locked an hour before the slot, in use, then
// completed and open for review for a week.
func TestReservationLifecycle(t *testing.T) {
	eng, _, clock := newTestEngine(morning)
	ctx := context.Background()
	day := date(2025, 3, 10)

	res, err := eng.Create(ctx, 7, 1, day, 14, 16)
	require.NoError(t, err)
	assert.Equal(t, model.StateUpcoming, DeriveState(res, clock.Now()))

	// A rival cannot take the slot, and our user cannot double-book.
	_, err = eng.Create(ctx, 8, 1, day, 15, 17)
	assert.ErrorIs(t, err, ErrSlotTaken)
	_, err = eng.Create(ctx, 7, 2, day, 15, 16)
	assert.ErrorIs(t, err, ErrDoubleBooked)

	// 13:00: the modification lock has engaged.
	clock.Set(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, eng.Cancel(ctx, 7, res.ID), ErrLockedWindow)
	start := 20
	_, err = eng.Modify(ctx, 7, res.ID, Patch{StartHour: &start})
	assert.ErrorIs(t, err, ErrLockedWindow)

	// 14:30: in use, not yet reviewable.
	clock.Set(time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC))
	got, err := eng.Get(ctx, 7, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateInUse, DeriveState(got, clock.Now()))
	ok, err := eng.IsReviewable(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// 16:00: completed and reviewable.
	clock.Set(time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC))
	got, err = eng.Get(ctx, 7, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, DeriveState(got, clock.Now()))
	ok, err = eng.IsReviewable(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Eight days on, the review window has closed.
	clock.Set(time.Date(2025, 3, 18, 17, 0, 0, 0, time.UTC))
	ok, err = eng.IsReviewable(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
