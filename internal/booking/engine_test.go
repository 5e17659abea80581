package booking

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/room-reservation/internal/model"
)

// fakeStore is an in-memory Gateway.  One mutex is held for the whole
// of InTx, serializing transactions globally; tx writes are buffered
// and applied only when fn succeeds.  That is coarser than the per-row
// lock contract the real gateway provides, so lock-granularity
// properties are exercised against rowLockStore below instead.
type fakeStore struct {
    mu           sync.Mutex
    rooms        map[uint64]*model.Room
    reservations map[uint64]*model.Reservation
    history      []model.StatusHistory
    nextResID    uint64
    nextHistID   uint64
}

func newFakeStore() *fakeStore {
    return &fakeStore{
        rooms:        make(map[uint64]*model.Room),
        reservations: make(map[uint64]*model.Reservation),
    }
}

func (s *fakeStore) addRoom(id uint64, active bool) {
    s.rooms[id] = &model.Room{ID: id, Code: "R", Name: "Room", Capacity: 4, IsActive: active}
}

func (s *fakeStore) GetRoom(_ context.Context, roomID uint64) (*model.Room, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if r, ok := s.rooms[roomID]; ok {
        cp := *r
        return &cp, nil
    }
    return nil, nil
}

func (s *fakeStore) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if r, ok := s.reservations[id]; ok {
        cp := *r
        return &cp, nil
    }
    return nil, nil
}

func (s *fakeStore) GetDetail(_ context.Context, id uint64) (*ReservationDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.reservations[id]
    if !ok {
        return nil, nil
    }
    d := ReservationDetail{Reservation: *r}
    if room, ok := s.rooms[r.RoomID]; ok {
        d.RoomCode = room.Code
        d.RoomName = room.Name
    }
    return &d, nil
}

func (s *fakeStore) ListByRequester(_ context.Context, userID uint64) ([]ReservationDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []ReservationDetail
    for _, r := range s.reservations {
        if r.RequestedBy == userID {
            out = append(out, ReservationDetail{Reservation: *r})
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out, nil
}

func (s *fakeStore) ListAll(_ context.Context) ([]ReservationDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []ReservationDetail
    for _, r := range s.reservations {
        out = append(out, ReservationDetail{Reservation: *r})
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out, nil
}

func (s *fakeStore) ListHistory(_ context.Context, reservationID uint64) ([]model.StatusHistory, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.StatusHistory
    for _, h := range s.history {
        if h.ReservationID == reservationID {
            out = append(out, h)
        }
    }
    // Newest first; insertion order breaks timestamp ties.
    sort.Slice(out, func(i, j int) bool {
        if !out[i].ChangedAt.Equal(out[j].ChangedAt) {
            return out[i].ChangedAt.After(out[j].ChangedAt)
        }
        return out[i].ID > out[j].ID
    })
    return out, nil
}

func (s *fakeStore) InTx(_ context.Context, fn func(tx Tx) error) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    tx := &fakeTx{store: s}
    if err := fn(tx); err != nil {
        return err
    }
    tx.commit()
    return nil
}

type fakeTx struct {
    store          *fakeStore
    pendingInserts []*model.Reservation
    pendingUpdates []*model.Reservation
    pendingHistory []*model.StatusHistory
}

func (t *fakeTx) LockRoom(_ context.Context, roomID uint64) (*model.Room, error) {
    if r, ok := t.store.rooms[roomID]; ok {
        cp := *r
        return &cp, nil
    }
    return nil, nil
}

func (t *fakeTx) LockReservation(_ context.Context, id uint64) (*model.Reservation, error) {
    if r, ok := t.store.reservations[id]; ok {
        cp := *r
        return &cp, nil
    }
    return nil, nil
}

func (t *fakeTx) ListLiveWindows(_ context.Context, roomID, excludeID uint64) ([]model.ReservationWindow, error) {
    var out []model.ReservationWindow
    for _, r := range t.store.reservations {
        if r.RoomID != roomID || r.ID == excludeID || !r.Status.IsLive() {
            continue
        }
        out = append(out, model.ReservationWindow{ID: r.ID, StartTime: r.StartTime, EndTime: r.EndTime, Status: r.Status})
    }
    return out, nil
}

func (t *fakeTx) ListApprovedWindows(_ context.Context, roomID, excludeID uint64) ([]model.ReservationWindow, error) {
    var out []model.ReservationWindow
    for _, r := range t.store.reservations {
        if r.RoomID != roomID || r.ID == excludeID || r.Status != model.StatusApproved {
            continue
        }
        out = append(out, model.ReservationWindow{ID: r.ID, StartTime: r.StartTime, EndTime: r.EndTime, Status: r.Status})
    }
    return out, nil
}

func (t *fakeTx) InsertReservation(_ context.Context, res *model.Reservation) error {
    t.store.nextResID++
    res.ID = t.store.nextResID
    t.pendingInserts = append(t.pendingInserts, res)
    return nil
}

func (t *fakeTx) UpdateStatusAndAppendHistory(_ context.Context, res *model.Reservation, entry *model.StatusHistory) error {
    t.store.nextHistID++
    entry.ID = t.store.nextHistID
    t.pendingUpdates = append(t.pendingUpdates, res)
    t.pendingHistory = append(t.pendingHistory, entry)
    return nil
}

func (t *fakeTx) commit() {
    for _, r := range t.pendingInserts {
        cp := *r
        t.store.reservations[cp.ID] = &cp
    }
    for _, r := range t.pendingUpdates {
        cp := *r
        t.store.reservations[cp.ID] = &cp
    }
    for _, h := range t.pendingHistory {
        t.store.history = append(t.store.history, *h)
    }
}

// ----- helpers -----

var engineNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)

func newTestEngine(store *fakeStore) *Engine {
    return NewEngine(store, DefaultRules()).WithClock(func() time.Time { return engineNow })
}

func slot(hour, min int) time.Time {
    return time.Date(2025, 6, 2, hour, min, 0, 0, time.Local)
}

var (
    member      = Identity{ID: 1, Name: "Dana Member", RefNo: "M-001"}
    otherMember = Identity{ID: 2, Name: "Robin Member", RefNo: "M-002"}
    admin       = Identity{ID: 9, Name: "Alex Admin", RefNo: "A-001", IsAdmin: true}
)

func mustCreate(t *testing.T, e *Engine, req CreateRequest) *ReservationDetail {
    t.Helper()
    d, err := e.Create(context.Background(), req)
    if err != nil {
        t.Fatalf("Create: %v", err)
    }
    return d
}

// ----- Create -----

func TestCreateRejectsInvalidInterval(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)

    _, err := e.Create(context.Background(), CreateRequest{
        RoomID: 1, Requester: member, Start: slot(11, 0), End: slot(10, 0),
    })
    if !errors.Is(err, ErrInvalidInterval) {
        t.Fatalf("err = %v, want ErrInvalidInterval", err)
    }
    // Zero-length intervals are invalid too.
    _, err = e.Create(context.Background(), CreateRequest{
        RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(10, 0),
    })
    if !errors.Is(err, ErrInvalidInterval) {
        t.Fatalf("err = %v, want ErrInvalidInterval", err)
    }
}

func TestCreateUnknownAndInactiveRoom(t *testing.T) {
    store := newFakeStore()
    store.addRoom(2, false)
    e := newTestEngine(store)

    _, err := e.Create(context.Background(), CreateRequest{
        RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0),
    })
    if !errors.Is(err, ErrRoomNotFound) {
        t.Fatalf("err = %v, want ErrRoomNotFound", err)
    }

    _, err = e.Create(context.Background(), CreateRequest{
        RoomID: 2, Requester: member, Start: slot(10, 0), End: slot(11, 0),
    })
    if !errors.Is(err, ErrRoomInactive) {
        t.Fatalf("err = %v, want ErrRoomInactive", err)
    }
}

func TestCreateReportsPolicyViolations(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)

    // 19:30-20:30 runs past closing time.
    _, err := e.Create(context.Background(), CreateRequest{
        RoomID: 1, Requester: member, Start: slot(19, 30), End: slot(20, 30),
    })
    var policy *PolicyViolationError
    if !errors.As(err, &policy) {
        t.Fatalf("err = %v, want *PolicyViolationError", err)
    }
    if len(policy.Violations) != 1 {
        t.Fatalf("violations = %v, want exactly one", policy.Violations)
    }
    if store.nextResID != 0 {
        t.Fatal("nothing should have been persisted")
    }
}

func TestCreateDetectsScheduleConflict(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)

    mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})

    _, err := e.Create(context.Background(), CreateRequest{
        RoomID: 1, Requester: otherMember, Start: slot(10, 30), End: slot(11, 30),
    })
    if !errors.Is(err, ErrScheduleConflict) {
        t.Fatalf("err = %v, want ErrScheduleConflict", err)
    }

    // Back-to-back is legal: the intervals are half-open.
    d := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: otherMember, Start: slot(11, 0), End: slot(12, 0)})
    if d.Status != model.StatusPending {
        t.Fatalf("status = %s, want pending", d.Status)
    }
    if d.RoomCode == "" || d.RoomName == "" {
        t.Fatal("detail should carry the room summary")
    }
}

func TestCreateStampsRequesterIdentity(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)

    // A member's on-behalf fields are ignored outright.
    d := mustCreate(t, e, CreateRequest{
        RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0),
        OnBehalfName: "Somebody Else", OnBehalfRef: "X-999",
    })
    if d.BookedForName != member.Name || d.BookedForRef != member.RefNo {
        t.Fatalf("booked-for = %q/%q, want requester's own identity", d.BookedForName, d.BookedForRef)
    }
    if d.RequestedBy != member.ID {
        t.Fatalf("requested_by = %d, want %d", d.RequestedBy, member.ID)
    }

    // Admins may book for someone else; ownership still binds to them.
    d = mustCreate(t, e, CreateRequest{
        RoomID: 1, Requester: admin, Start: slot(12, 0), End: slot(13, 0),
        OnBehalfName: "Guest Lecturer", OnBehalfRef: "G-042",
    })
    if d.BookedForName != "Guest Lecturer" || d.BookedForRef != "G-042" {
        t.Fatalf("booked-for = %q/%q, want on-behalf identity", d.BookedForName, d.BookedForRef)
    }
    if d.RequestedBy != admin.ID {
        t.Fatalf("requested_by = %d, want %d", d.RequestedBy, admin.ID)
    }
}

func TestCreateLeavesNoHistoryEntry(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)

    d := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})
    entries, err := e.History(context.Background(), d.ID, member)
    if err != nil {
        t.Fatalf("History: %v", err)
    }
    if len(entries) != 0 {
        t.Fatalf("creation must not write history, got %d entries", len(entries))
    }
}

// ----- Transition -----

func TestTransitionLifecycle(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)
    d := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})

    // pending -> completed skips the decision step and is illegal.
    _, err := e.Transition(context.Background(), d.ID, admin, model.StatusCompleted, nil)
    if !errors.Is(err, ErrIllegalTransition) {
        t.Fatalf("err = %v, want ErrIllegalTransition", err)
    }

    comment := "double booked"
    res, err := e.Transition(context.Background(), d.ID, admin, model.StatusRejected, &comment)
    if err != nil {
        t.Fatalf("Transition: %v", err)
    }
    if res.Status != model.StatusRejected {
        t.Fatalf("status = %s, want rejected", res.Status)
    }

    entries, err := e.History(context.Background(), d.ID, admin)
    if err != nil {
        t.Fatalf("History: %v", err)
    }
    if len(entries) != 1 {
        t.Fatalf("history entries = %d, want 1", len(entries))
    }
    h := entries[0]
    if h.FromStatus != model.StatusPending || h.ToStatus != model.StatusRejected {
        t.Fatalf("history edge = %s->%s", h.FromStatus, h.ToStatus)
    }
    if h.ChangedByID == nil || *h.ChangedByID != admin.ID || h.ChangedByLabel != admin.RefNo {
        t.Fatalf("history actor = %v/%q", h.ChangedByID, h.ChangedByLabel)
    }
    if h.Comment == nil || *h.Comment != comment {
        t.Fatalf("history comment = %v", h.Comment)
    }

    // Rejected is terminal.
    _, err = e.Transition(context.Background(), d.ID, admin, model.StatusCancelled, nil)
    if !errors.Is(err, ErrIllegalTransition) {
        t.Fatalf("err = %v, want ErrIllegalTransition", err)
    }
}

func TestTransitionSameStatusIsRefused(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)
    d := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})

    _, err := e.Transition(context.Background(), d.ID, admin, model.StatusPending, nil)
    if !errors.Is(err, ErrSameStatus) {
        t.Fatalf("err = %v, want ErrSameStatus", err)
    }
}

func TestTransitionUnknownReservation(t *testing.T) {
    store := newFakeStore()
    e := newTestEngine(store)
    _, err := e.Transition(context.Background(), 42, admin, model.StatusApproved, nil)
    if !errors.Is(err, ErrNotFound) {
        t.Fatalf("err = %v, want ErrNotFound", err)
    }
}

func TestApprovalConflictChecksApprovedOnly(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)

    first := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})

    // A second overlapping pending request: creation conflicts, so seed
    // it directly the way a pre-policy import would.
    second := &model.Reservation{
        ID: 100, RoomID: 1, RequestedBy: otherMember.ID,
        StartTime: slot(10, 30), EndTime: slot(11, 30), Status: model.StatusPending,
    }
    store.reservations[second.ID] = second

    // Approving the first succeeds: the other overlap is merely pending.
    if _, err := e.Transition(context.Background(), first.ID, admin, model.StatusApproved, nil); err != nil {
        t.Fatalf("approve first: %v", err)
    }

    // Approving the second now collides with an approved reservation.
    _, err := e.Transition(context.Background(), second.ID, admin, model.StatusApproved, nil)
    if !errors.Is(err, ErrApprovalConflict) {
        t.Fatalf("err = %v, want ErrApprovalConflict", err)
    }

    // The loser can still be rejected.
    if _, err := e.Transition(context.Background(), second.ID, admin, model.StatusRejected, nil); err != nil {
        t.Fatalf("reject second: %v", err)
    }
}

// ----- Access control -----

func TestMemberMayOnlyCancelOwnReservation(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)
    d := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})

    // Someone else's member account: no touch.
    _, err := e.Cancel(context.Background(), d.ID, otherMember, nil)
    if !errors.Is(err, ErrForbidden) {
        t.Fatalf("err = %v, want ErrForbidden", err)
    }

    // The owner cannot approve their own request.
    _, err = e.Transition(context.Background(), d.ID, member, model.StatusApproved, nil)
    if !errors.Is(err, ErrForbidden) {
        t.Fatalf("err = %v, want ErrForbidden", err)
    }

    // Cancelling their own is allowed.
    res, err := e.Cancel(context.Background(), d.ID, member, nil)
    if err != nil {
        t.Fatalf("Cancel: %v", err)
    }
    if res.Status != model.StatusCancelled {
        t.Fatalf("status = %s, want cancelled", res.Status)
    }

    // A second cancel reports the terminal state distinctly.
    _, err = e.Cancel(context.Background(), d.ID, member, nil)
    if !errors.Is(err, ErrAlreadyFinal) {
        t.Fatalf("err = %v, want ErrAlreadyFinal", err)
    }
}

func TestAdminMayCancelApprovedReservation(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)
    d := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})

    if _, err := e.Transition(context.Background(), d.ID, admin, model.StatusApproved, nil); err != nil {
        t.Fatalf("approve: %v", err)
    }
    res, err := e.Cancel(context.Background(), d.ID, admin, nil)
    if err != nil {
        t.Fatalf("cancel: %v", err)
    }
    if res.Status != model.StatusCancelled {
        t.Fatalf("status = %s, want cancelled", res.Status)
    }
}

func TestReadVisibility(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)

    mine := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})
    theirs := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: otherMember, Start: slot(12, 0), End: slot(13, 0)})

    if _, err := e.Get(context.Background(), theirs.ID, member); !errors.Is(err, ErrForbidden) {
        t.Fatalf("Get foreign reservation: err = %v, want ErrForbidden", err)
    }
    if _, err := e.History(context.Background(), theirs.ID, member); !errors.Is(err, ErrForbidden) {
        t.Fatalf("History foreign reservation: err = %v, want ErrForbidden", err)
    }
    if _, err := e.Get(context.Background(), mine.ID, member); err != nil {
        t.Fatalf("Get own reservation: %v", err)
    }
    if _, err := e.Get(context.Background(), 999, admin); !errors.Is(err, ErrNotFound) {
        t.Fatalf("Get unknown: err = %v, want ErrNotFound", err)
    }

    own, err := e.List(context.Background(), member)
    if err != nil {
        t.Fatalf("List member: %v", err)
    }
    if len(own) != 1 || own[0].ID != mine.ID {
        t.Fatalf("member list = %+v, want only their own reservation", own)
    }

    all, err := e.List(context.Background(), admin)
    if err != nil {
        t.Fatalf("List admin: %v", err)
    }
    if len(all) != 2 {
        t.Fatalf("admin list length = %d, want 2", len(all))
    }
}

// ----- History ordering -----

func TestHistoryNewestFirst(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)

    clock := engineNow
    e := NewEngine(store, DefaultRules()).WithClock(func() time.Time { return clock })

    d := mustCreate(t, e, CreateRequest{RoomID: 1, Requester: member, Start: slot(10, 0), End: slot(11, 0)})

    if _, err := e.Transition(context.Background(), d.ID, admin, model.StatusApproved, nil); err != nil {
        t.Fatalf("approve: %v", err)
    }
    clock = clock.Add(time.Minute)
    if _, err := e.Transition(context.Background(), d.ID, admin, model.StatusCancelled, nil); err != nil {
        t.Fatalf("cancel: %v", err)
    }

    entries, err := e.History(context.Background(), d.ID, admin)
    if err != nil {
        t.Fatalf("History: %v", err)
    }
    if len(entries) != 2 {
        t.Fatalf("entries = %d, want 2", len(entries))
    }
    if entries[0].ToStatus != model.StatusCancelled || entries[1].ToStatus != model.StatusApproved {
        t.Fatalf("order = %s, %s; want cancelled then approved", entries[0].ToStatus, entries[1].ToStatus)
    }
}

// ----- Concurrency -----

// Two racing creates for overlapping slots: exactly one commits, the
// other observes the winner's row and reports a schedule conflict.
func TestConcurrentCreatesAdmitExactlyOne(t *testing.T) {
    store := newFakeStore()
    store.addRoom(1, true)
    e := newTestEngine(store)

    var wg sync.WaitGroup
    errs := make([]error, 2)
    for i := 0; i < 2; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = e.Create(context.Background(), CreateRequest{
                RoomID:    1,
                Requester: Identity{ID: uint64(i + 1), RefNo: "M"},
                Start:     slot(10, 0),
                End:       slot(11, 0),
            })
        }(i)
    }
    wg.Wait()

    var ok, conflict int
    for _, err := range errs {
        switch {
        case err == nil:
            ok++
        case errors.Is(err, ErrScheduleConflict):
            conflict++
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    if ok != 1 || conflict != 1 {
        t.Fatalf("ok = %d, conflict = %d; want exactly one of each", ok, conflict)
    }
    if len(store.reservations) != 1 {
        t.Fatalf("persisted reservations = %d, want 1", len(store.reservations))
    }
}

// rowLockStore is a Gateway whose transactions take only the locks the
// Tx contract promises: per-row locks acquired by LockRoom and
// LockReservation, held until commit, over reads of committed state.
// Transactions are otherwise free to interleave, matching what the
// MySQL gateway allows, so tests against it catch writes that rely on
// locks the engine never took.
type rowLockStore struct {
    mu           sync.Mutex
    rooms        map[uint64]*model.Room
    reservations map[uint64]*model.Reservation
    history      []model.StatusHistory
    nextResID    uint64
    nextHistID   uint64
    rowLocks     map[string]*sync.Mutex
}

func newRowLockStore() *rowLockStore {
    return &rowLockStore{
        rooms:        make(map[uint64]*model.Room),
        reservations: make(map[uint64]*model.Reservation),
        rowLocks:     make(map[string]*sync.Mutex),
    }
}

func (s *rowLockStore) addRoom(id uint64, active bool) {
    s.rooms[id] = &model.Room{ID: id, Code: "R", Name: "Room", Capacity: 4, IsActive: active}
}

func (s *rowLockStore) rowLock(key string) *sync.Mutex {
    s.mu.Lock()
    defer s.mu.Unlock()
    if l, ok := s.rowLocks[key]; ok {
        return l
    }
    l := &sync.Mutex{}
    s.rowLocks[key] = l
    return l
}

func (s *rowLockStore) GetRoom(_ context.Context, roomID uint64) (*model.Room, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if r, ok := s.rooms[roomID]; ok {
        cp := *r
        return &cp, nil
    }
    return nil, nil
}

func (s *rowLockStore) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if r, ok := s.reservations[id]; ok {
        cp := *r
        return &cp, nil
    }
    return nil, nil
}

func (s *rowLockStore) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
    r, err := s.GetReservation(ctx, id)
    if r == nil || err != nil {
        return nil, err
    }
    return &ReservationDetail{Reservation: *r}, nil
}

func (s *rowLockStore) ListByRequester(_ context.Context, userID uint64) ([]ReservationDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []ReservationDetail
    for _, r := range s.reservations {
        if r.RequestedBy == userID {
            out = append(out, ReservationDetail{Reservation: *r})
        }
    }
    return out, nil
}

func (s *rowLockStore) ListAll(_ context.Context) ([]ReservationDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []ReservationDetail
    for _, r := range s.reservations {
        out = append(out, ReservationDetail{Reservation: *r})
    }
    return out, nil
}

func (s *rowLockStore) ListHistory(_ context.Context, reservationID uint64) ([]model.StatusHistory, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.StatusHistory
    for _, h := range s.history {
        if h.ReservationID == reservationID {
            out = append(out, h)
        }
    }
    return out, nil
}

func (s *rowLockStore) InTx(_ context.Context, fn func(tx Tx) error) error {
    tx := &rowLockTx{store: s}
    defer tx.release()
    if err := fn(tx); err != nil {
        return err
    }
    tx.commit()
    return nil
}

type rowLockTx struct {
    store          *rowLockStore
    held           []*sync.Mutex
    pendingInserts []*model.Reservation
    pendingUpdates []*model.Reservation
    pendingHistory []*model.StatusHistory
}

func (t *rowLockTx) acquire(key string) {
    l := t.store.rowLock(key)
    l.Lock()
    t.held = append(t.held, l)
}

func (t *rowLockTx) LockRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
    t.acquire(fmt.Sprintf("room:%d", roomID))
    return t.store.GetRoom(ctx, roomID)
}

func (t *rowLockTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    t.acquire(fmt.Sprintf("res:%d", id))
    return t.store.GetReservation(ctx, id)
}

func (t *rowLockTx) ListLiveWindows(_ context.Context, roomID, excludeID uint64) ([]model.ReservationWindow, error) {
    t.store.mu.Lock()
    defer t.store.mu.Unlock()
    var out []model.ReservationWindow
    for _, r := range t.store.reservations {
        if r.RoomID != roomID || r.ID == excludeID || !r.Status.IsLive() {
            continue
        }
        out = append(out, model.ReservationWindow{ID: r.ID, StartTime: r.StartTime, EndTime: r.EndTime, Status: r.Status})
    }
    return out, nil
}

func (t *rowLockTx) ListApprovedWindows(_ context.Context, roomID, excludeID uint64) ([]model.ReservationWindow, error) {
    t.store.mu.Lock()
    defer t.store.mu.Unlock()
    var out []model.ReservationWindow
    for _, r := range t.store.reservations {
        if r.RoomID != roomID || r.ID == excludeID || r.Status != model.StatusApproved {
            continue
        }
        out = append(out, model.ReservationWindow{ID: r.ID, StartTime: r.StartTime, EndTime: r.EndTime, Status: r.Status})
    }
    return out, nil
}

func (t *rowLockTx) InsertReservation(_ context.Context, res *model.Reservation) error {
    t.store.mu.Lock()
    t.store.nextResID++
    res.ID = t.store.nextResID
    t.store.mu.Unlock()
    t.pendingInserts = append(t.pendingInserts, res)
    return nil
}

func (t *rowLockTx) UpdateStatusAndAppendHistory(_ context.Context, res *model.Reservation, entry *model.StatusHistory) error {
    t.store.mu.Lock()
    t.store.nextHistID++
    entry.ID = t.store.nextHistID
    t.store.mu.Unlock()
    t.pendingUpdates = append(t.pendingUpdates, res)
    t.pendingHistory = append(t.pendingHistory, entry)
    return nil
}

func (t *rowLockTx) commit() {
    t.store.mu.Lock()
    defer t.store.mu.Unlock()
    for _, r := range t.pendingInserts {
        cp := *r
        t.store.reservations[cp.ID] = &cp
    }
    for _, r := range t.pendingUpdates {
        cp := *r
        t.store.reservations[cp.ID] = &cp
    }
    for _, h := range t.pendingHistory {
        t.store.history = append(t.store.history, *h)
    }
}

func (t *rowLockTx) release() {
    for _, l := range t.held {
        l.Unlock()
    }
    t.held = nil
}

// Two racing approvals of different overlapping pending reservations:
// each transaction locks its own reservation row, so only the room lock
// taken on the approval path serializes them.  Exactly one may commit;
// the loser must observe the winner's approved row and report an
// approval conflict.
func TestConcurrentApprovalsAdmitExactlyOne(t *testing.T) {
    store := newRowLockStore()
    store.addRoom(1, true)
    store.reservations[1] = &model.Reservation{
        ID: 1, RoomID: 1, RequestedBy: member.ID,
        StartTime: slot(10, 0), EndTime: slot(11, 0), Status: model.StatusPending,
    }
    store.reservations[2] = &model.Reservation{
        ID: 2, RoomID: 1, RequestedBy: otherMember.ID,
        StartTime: slot(10, 30), EndTime: slot(11, 30), Status: model.StatusPending,
    }
    store.nextResID = 2

    e := NewEngine(store, DefaultRules()).WithClock(func() time.Time { return engineNow })

    var wg sync.WaitGroup
    errs := make([]error, 2)
    for i := 0; i < 2; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = e.Transition(context.Background(), uint64(i+1), admin, model.StatusApproved, nil)
        }(i)
    }
    wg.Wait()

    var ok, conflict int
    for _, err := range errs {
        switch {
        case err == nil:
            ok++
        case errors.Is(err, ErrApprovalConflict):
            conflict++
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    if ok != 1 || conflict != 1 {
        t.Fatalf("ok = %d, conflict = %d; want exactly one of each", ok, conflict)
    }

    var approved int
    for _, r := range store.reservations {
        if r.Status == model.StatusApproved {
            approved++
        }
    }
    if approved != 1 {
        t.Fatalf("approved rows = %d, want 1", approved)
    }
}
