//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"biblio/internal/domain/reservation"
	"biblio/internal/domain/user"
	"biblio/internal/infra"
	"biblio/internal/infra/db"
	"biblio/internal/usecase/queries"
	"biblio/internal/usecase/shared"

	"github.com/google/uuid"
)

// fakeStore is an in-memory document store honoring the same contracts
// as the Postgres layer: the inventory decrement is conditional and
// atomic, slot occupation is unique per (user, index), and the batch
// inside Within commits all-or-nothing.
type fakeStore struct {
	mu sync.Mutex

	resources map[uuid.UUID]*shared.ResourceSnapshot
	copies    map[uuid.UUID]int32
	slots     map[uuid.UUID]map[int32]reservation.SlotEntry
	records   map[uuid.UUID]*reservation.Record
	jobs      int

	maxSlots int32

	// failBatches makes the next N Within calls fail after running the
	// closure, discarding its writes.
	failBatches int
	// failReads makes the next N resource snapshot reads fail with a
	// transient store error.
	failReads int
	// failViewReads does the same for read-model lookups by ID.
	failViewReads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		resources: map[uuid.UUID]*shared.ResourceSnapshot{},
		copies:    map[uuid.UUID]int32{},
		slots:     map[uuid.UUID]map[int32]reservation.SlotEntry{},
		records:   map[uuid.UUID]*reservation.Record{},
		maxSlots:  5,
	}
}

func (s *fakeStore) addResource(title string, copies int32, decrementable bool) uuid.UUID {
	id := uuid.New()
	s.resources[id] = &shared.ResourceSnapshot{
		ID:               id,
		Title:            title,
		Category:         "textbook",
		SourceCollection: "engineering",
		InitialCopies:    copies,
		AvailableCopies:  copies,
		IsDecrementable:  decrementable,
	}
	s.copies[id] = copies
	return id
}

var errBatchFailed = errors.New("forced batch failure")

func (s *fakeStore) copyRecord(rec *reservation.Record) *reservation.Record {
	return reservation.ReconstructRecord(
		rec.ID(), rec.UserID(), rec.ResourceID(),
		rec.ResourceTitle(), rec.Category(), rec.SourceCollection(), rec.ImageURL(),
		rec.Quantity(), rec.State(), rec.ReservedAt(), rec.UpdatedAt(),
	)
}

// --- shared.InventoryCounter ---

type fakeInventory struct {
	store *fakeStore

	// failIncrements makes the next N Increment calls fail, exercising
	// the restore retry path.
	failIncrements int
	increments     int
}

func (f *fakeInventory) Decrement(_ context.Context, resourceID uuid.UUID, n int32) (int32, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	available, ok := s.copies[resourceID]
	if !ok {
		return 0, infra.WrapRepoErr("resource not found", nil, infra.KindNotFound)
	}
	if available < n {
		return 0, infra.WrapRepoErr("insufficient copies", nil, infra.KindInsufficientCopies)
	}
	s.copies[resourceID] = available - n
	s.resources[resourceID].AvailableCopies = available - n
	return available - n, nil
}

func (f *fakeInventory) Increment(_ context.Context, resourceID uuid.UUID, n int32) (int32, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.failIncrements > 0 {
		f.failIncrements--
		return 0, infra.WrapRepoErr("store unavailable", nil, infra.KindDBFailure)
	}

	f.increments++
	s.copies[resourceID] += n
	s.resources[resourceID].AvailableCopies += n
	return s.copies[resourceID], nil
}

// --- shared.SlotRepository ---

type fakeSlots struct {
	store *fakeStore
}

func (f *fakeSlots) Occupy(_ context.Context, _ db.DBTX, userID uuid.UUID, entry reservation.SlotEntry) error {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	bySlot := s.slots[userID]
	if bySlot == nil {
		bySlot = map[int32]reservation.SlotEntry{}
		s.slots[userID] = bySlot
	}
	if _, taken := bySlot[entry.SlotIndex]; taken {
		return infra.WrapRepoErr("slot already occupied", nil, infra.KindDuplicateKey)
	}
	bySlot[entry.SlotIndex] = entry
	return nil
}

func (f *fakeSlots) Clear(_ context.Context, _ db.DBTX, userID uuid.UUID, slotIndex int32) error {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots[userID], slotIndex)
	return nil
}

func (f *fakeSlots) OccupiedIndices(_ context.Context, _ db.DBTX, userID uuid.UUID) ([]int32, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	indices := make([]int32, 0, len(s.slots[userID]))
	for idx := range s.slots[userID] {
		indices = append(indices, idx)
	}
	return indices, nil
}

func (f *fakeSlots) FindByResource(_ context.Context, _ db.DBTX, userID, resourceID uuid.UUID) (*reservation.SlotEntry, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.slots[userID] {
		if entry.ResourceID == resourceID {
			found := entry
			return &found, nil
		}
	}
	return nil, infra.WrapRepoErr("slot not found", nil, infra.KindNotFound)
}

// --- shared.LedgerRepository ---

type fakeLedger struct {
	store *fakeStore
}

func (f *fakeLedger) Append(_ context.Context, _ db.DBTX, rec *reservation.Record) (uuid.UUID, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID()] = s.copyRecord(rec)
	return rec.ID(), nil
}

func (f *fakeLedger) UpdateState(_ context.Context, _ db.DBTX, recordID uuid.UUID, state reservation.State, now time.Time) error {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordID]
	if !ok {
		return infra.WrapRepoErr("record not found", nil, infra.KindNotFound)
	}
	s.records[recordID] = reservation.ReconstructRecord(
		rec.ID(), rec.UserID(), rec.ResourceID(),
		rec.ResourceTitle(), rec.Category(), rec.SourceCollection(), rec.ImageURL(),
		rec.Quantity(), state, rec.ReservedAt(), now,
	)
	return nil
}

func (f *fakeLedger) FindActiveByResource(_ context.Context, _ db.DBTX, userID, resourceID uuid.UUID) (*reservation.Record, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.UserID() == userID && rec.ResourceID() == resourceID && rec.IsActive() {
			return s.copyRecord(rec), nil
		}
	}
	return nil, infra.WrapRepoErr("active record not found", nil, infra.KindNotFound)
}

func (f *fakeLedger) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*reservation.Record, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, infra.WrapRepoErr("record not found", nil, infra.KindNotFound)
	}
	return s.copyRecord(rec), nil
}

// --- shared.UserRepository ---

type fakeUsers struct{}

func (fakeUsers) Create(_ context.Context, _ db.DBTX, _ *user.User) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (fakeUsers) UpdateLastLogin(_ context.Context, _ db.DBTX, _ uuid.UUID) error {
	return nil
}

// --- shared.UnitOfWork ---

// fakeTx journals an undo closure per write so a failed batch rolls
// back only its own effects, leaving concurrent batches untouched.
type fakeTx struct {
	store *fakeStore
	undo  []func()
}

func (t *fakeTx) journal(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *fakeTx) rollback() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *fakeTx) Slots() shared.SlotRepository                 { return &txSlots{fakeSlots{store: t.store}, t} }
func (t *fakeTx) Ledger() shared.LedgerRepository              { return &txLedger{fakeLedger{store: t.store}, t} }
func (t *fakeTx) Notifications() shared.NotificationRepository { return &txNotifications{t} }
func (t *fakeTx) Users() shared.UserRepository                 { return fakeUsers{} }
func (t *fakeTx) DB() db.DBTX                                  { return nil }

type txSlots struct {
	fakeSlots
	tx *fakeTx
}

func (f *txSlots) Occupy(ctx context.Context, dbtx db.DBTX, userID uuid.UUID, entry reservation.SlotEntry) error {
	if err := f.fakeSlots.Occupy(ctx, dbtx, userID, entry); err != nil {
		return err
	}
	s := f.store
	f.tx.journal(func() { delete(s.slots[userID], entry.SlotIndex) })
	return nil
}

func (f *txSlots) Clear(ctx context.Context, dbtx db.DBTX, userID uuid.UUID, slotIndex int32) error {
	s := f.store
	s.mu.Lock()
	prev, existed := s.slots[userID][slotIndex]
	s.mu.Unlock()

	if err := f.fakeSlots.Clear(ctx, dbtx, userID, slotIndex); err != nil {
		return err
	}
	if existed {
		f.tx.journal(func() {
			if s.slots[userID] == nil {
				s.slots[userID] = map[int32]reservation.SlotEntry{}
			}
			s.slots[userID][slotIndex] = prev
		})
	}
	return nil
}

type txLedger struct {
	fakeLedger
	tx *fakeTx
}

func (f *txLedger) Append(ctx context.Context, dbtx db.DBTX, rec *reservation.Record) (uuid.UUID, error) {
	id, err := f.fakeLedger.Append(ctx, dbtx, rec)
	if err != nil {
		return uuid.Nil, err
	}
	s := f.store
	f.tx.journal(func() { delete(s.records, id) })
	return id, nil
}

func (f *txLedger) UpdateState(ctx context.Context, dbtx db.DBTX, recordID uuid.UUID, state reservation.State, now time.Time) error {
	s := f.store
	s.mu.Lock()
	prev := s.records[recordID]
	s.mu.Unlock()

	if err := f.fakeLedger.UpdateState(ctx, dbtx, recordID, state, now); err != nil {
		return err
	}
	f.tx.journal(func() { s.records[recordID] = prev })
	return nil
}

type txNotifications struct {
	tx *fakeTx
}

func (f *txNotifications) CreateJob(_ context.Context, _ db.DBTX, _, _ string, _ []byte, _ time.Time) error {
	s := f.tx.store
	s.mu.Lock()
	s.jobs++
	s.mu.Unlock()
	f.tx.journal(func() { s.jobs-- })
	return nil
}

type fakeUoW struct {
	store *fakeStore
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s := u.store

	s.mu.Lock()
	forceFail := s.failBatches > 0
	if forceFail {
		s.failBatches--
	}
	s.mu.Unlock()

	tx := &fakeTx{store: s}
	err := fn(ctx, tx)
	if err == nil && forceFail {
		err = errBatchFailed
	}
	if err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) CommandReads() shared.CommandReads {
	return &fakeCommandReads{store: u.store}
}

type fakeCommandReads struct {
	store *fakeStore
}

func (r *fakeCommandReads) ResourceByID(_ context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failReads > 0 {
		s.failReads--
		return nil, infra.WrapRepoErr("store unavailable", nil, infra.KindDBFailure)
	}

	snap, ok := s.resources[id]
	if !ok {
		return nil, infra.WrapRepoErr("resource not found", nil, infra.KindNotFound)
	}
	copied := *snap
	return &copied, nil
}

// --- shared.SettingsProvider ---

type fakeSettings struct {
	store *fakeStore
}

func (f *fakeSettings) MaxSlotsPerUser(_ context.Context) (int32, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.maxSlots, nil
}

func (f *fakeSettings) Invalidate() {}

// --- queries.ReservationQueries ---

type fakeReservationQueries struct {
	store *fakeStore
}

func (q *fakeReservationQueries) viewOf(rec *reservation.Record) *queries.ReservationView {
	return &queries.ReservationView{
		ID:               rec.ID(),
		UserID:           rec.UserID(),
		ResourceID:       rec.ResourceID(),
		ResourceTitle:    rec.ResourceTitle(),
		Category:         rec.Category(),
		SourceCollection: rec.SourceCollection(),
		ImageURL:         rec.ImageURL(),
		Quantity:         rec.Quantity(),
		State:            rec.State().String(),
		ReservedAt:       rec.ReservedAt(),
		UpdatedAt:        rec.UpdatedAt(),
	}
}

func (q *fakeReservationQueries) GetByID(_ context.Context, actor uuid.UUID, id uuid.UUID) (*queries.ReservationView, error) {
	s := q.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, infra.WrapRepoErr("record not found", nil, infra.KindNotFound)
	}
	if rec.UserID() != actor {
		return nil, queries.ErrForbidden
	}
	return q.viewOf(rec), nil
}

func (q *fakeReservationQueries) GetByIDSystem(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	s := q.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failViewReads > 0 {
		s.failViewReads--
		return nil, infra.WrapRepoErr("store unavailable", nil, infra.KindDBFailure)
	}

	rec, ok := s.records[id]
	if !ok {
		return nil, infra.WrapRepoErr("record not found", nil, infra.KindNotFound)
	}
	return q.viewOf(rec), nil
}

func (q *fakeReservationQueries) ListByUser(_ context.Context, userID uuid.UUID) ([]*queries.ReservationView, error) {
	s := q.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []*queries.ReservationView
	for _, rec := range s.records {
		if rec.UserID() == userID {
			views = append(views, q.viewOf(rec))
		}
	}
	return views, nil
}

func (q *fakeReservationQueries) ListSlots(_ context.Context, userID uuid.UUID) ([]*queries.SlotView, error) {
	s := q.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []*queries.SlotView
	for _, entry := range s.slots[userID] {
		views = append(views, &queries.SlotView{
			SlotIndex:        entry.SlotIndex,
			ResourceID:       entry.ResourceID,
			ResourceTitle:    entry.ResourceTitle,
			ResourceCategory: entry.ResourceCategory,
			SourceCollection: entry.SourceCollection,
			ImageURL:         entry.ImageURL,
			Quantity:         entry.Quantity,
			ReservedAt:       entry.ReservedAt,
		})
	}
	return views, nil
}
