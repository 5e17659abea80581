package booking

import (
    "context"

    "github.com/iliyamo/room-reservation/internal/model"
)

// Gateway is the persistence contract the engine runs against.  All
// durable state lives behind it; the engine holds no cross-request
// state of its own.  Lookup methods return (nil, nil) when the record
// does not exist so the engine can map absence to its own error kinds.
type Gateway interface {
    // GetRoom loads a room outside any transaction.
    GetRoom(ctx context.Context, roomID uint64) (*model.Room, error)
    // GetReservation loads the raw reservation row.
    GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
    // GetDetail loads a reservation joined with its room summary.
    GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error)
    // ListByRequester returns the reservations owned by one user, newest first.
    ListByRequester(ctx context.Context, userID uint64) ([]ReservationDetail, error)
    // ListAll returns every reservation, newest first.  Privileged reads only.
    ListAll(ctx context.Context) ([]ReservationDetail, error)
    // ListHistory returns the audit trail of a reservation, newest entry
    // first, with insertion order breaking timestamp ties.
    ListHistory(ctx context.Context, reservationID uint64) ([]model.StatusHistory, error)
    // InTx runs fn inside one storage transaction.  A non-nil error from
    // fn rolls everything back; nil commits.  Writes made through tx are
    // invisible to other callers until commit.
    InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional face of the gateway.  LockRoom and
// LockReservation must take row locks held until commit, so the
// check-then-write sequences in the engine serialize per room: of two
// racing writers, the loser re-reads after the winner's commit and
// observes the conflicting row.
type Tx interface {
    // LockRoom loads a room and locks its row for the transaction.
    LockRoom(ctx context.Context, roomID uint64) (*model.Room, error)
    // LockReservation loads a reservation and locks its row.
    LockReservation(ctx context.Context, id uint64) (*model.Reservation, error)
    // ListLiveWindows returns the intervals of every live (not rejected,
    // not cancelled) reservation for a room, excluding excludeID (0 = none).
    ListLiveWindows(ctx context.Context, roomID, excludeID uint64) ([]model.ReservationWindow, error)
    // ListApprovedWindows is like ListLiveWindows restricted to approved rows.
    ListApprovedWindows(ctx context.Context, roomID, excludeID uint64) ([]model.ReservationWindow, error)
    // InsertReservation persists a new reservation and fills in its ID.
    InsertReservation(ctx context.Context, res *model.Reservation) error
    // UpdateStatusAndAppendHistory applies the status change and appends
    // the audit entry as one unit, never one without the other.
    UpdateStatusAndAppendHistory(ctx context.Context, res *model.Reservation, entry *model.StatusHistory) error
}

// ReservationDetail is a reservation joined with the summary of its
// room, the shape returned to callers of the read operations.
type ReservationDetail struct {
    model.Reservation
    RoomCode string
    RoomName string
}
