package booking

import (
    "context"
    "strings"
    "time"

    "github.com/iliyamo/room-reservation/internal/model"
)

// Identity is the resolved actor of a request: who they are and
// whether they hold the privileged (admin) capability.  The engine
// never parses tokens itself; the auth layer resolves this per request.
type Identity struct {
    ID      uint64
    Name    string
    RefNo   string
    IsAdmin bool
}

// Engine orchestrates the booking rules, the conflict detector and the
// transition table against the persistence gateway.  It is stateless
// and safe for concurrent use; every operation is one gateway
// transaction, so partial state changes are never visible.
type Engine struct {
    store Gateway
    rules Rules
    now   func() time.Time
}

// NewEngine builds an engine over the given gateway and rules.
func NewEngine(store Gateway, rules Rules) *Engine {
    return &Engine{store: store, rules: rules, now: time.Now}
}

// WithClock overrides the engine's clock.  Tests use this to pin "now".
func (e *Engine) WithClock(now func() time.Time) *Engine {
    e.now = now
    return e
}

// Rules returns the policy the engine validates against.
func (e *Engine) Rules() Rules { return e.rules }

// CreateRequest carries the inputs of a Create call.  OnBehalfName and
// OnBehalfRef are honored only for admin requesters; for everyone else
// the reservation is bound to the requester's own name and ref.
type CreateRequest struct {
    RoomID       uint64
    Requester    Identity
    Start        time.Time
    End          time.Time
    Notes        *string
    OnBehalfName string
    OnBehalfRef  string
}

// Create validates and persists a new pending reservation.
// Failure modes: ErrInvalidInterval, ErrRoomNotFound, ErrRoomInactive,
// *PolicyViolationError, ErrScheduleConflict.  The conflict check and
// the insert run inside one transaction with the room row locked, so
// of two racing creates for overlapping intervals exactly one commits.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*ReservationDetail, error) {
    if !req.End.After(req.Start) {
        return nil, ErrInvalidInterval
    }

    // Only admins may book on behalf of someone else; a member's
    // supplied name/ref is never trusted over their identity record.
    name := strings.TrimSpace(req.Requester.Name)
    ref := strings.TrimSpace(req.Requester.RefNo)
    if req.Requester.IsAdmin {
        if v := strings.TrimSpace(req.OnBehalfName); v != "" {
            name = v
        }
        if v := strings.TrimSpace(req.OnBehalfRef); v != "" {
            ref = v
        }
    }
    if name == "" {
        name = ref
    }

    var detail *ReservationDetail
    err := e.store.InTx(ctx, func(tx Tx) error {
        room, err := tx.LockRoom(ctx, req.RoomID)
        if err != nil {
            return err
        }
        if room == nil {
            return ErrRoomNotFound
        }
        if !room.IsActive {
            return ErrRoomInactive
        }

        if violations := e.rules.Validate(req.Start, req.End, e.now()); len(violations) > 0 {
            return &PolicyViolationError{Violations: violations}
        }

        windows, err := tx.ListLiveWindows(ctx, req.RoomID, 0)
        if err != nil {
            return err
        }
        if HasConflict(windows, req.Start, req.End, 0) {
            return ErrScheduleConflict
        }

        now := e.now()
        res := &model.Reservation{
            RoomID:        req.RoomID,
            RequestedBy:   req.Requester.ID,
            BookedForName: name,
            BookedForRef:  ref,
            StartTime:     req.Start,
            EndTime:       req.End,
            Status:        model.StatusPending,
            Notes:         req.Notes,
            CreatedAt:     now,
            UpdatedAt:     now,
        }
        if err := tx.InsertReservation(ctx, res); err != nil {
            return err
        }
        detail = &ReservationDetail{Reservation: *res, RoomCode: room.Code, RoomName: room.Name}
        return nil
    })
    if err != nil {
        return nil, err
    }
    return detail, nil
}

// Transition moves a reservation to a new status on behalf of actor and
// appends the audit entry in the same transaction.  Non-admin actors
// may only cancel their own reservations; every other edge is
// admin-only.  Moving to approved locks the room row before the
// approved-set conflict check, so of two concurrent approvals for
// overlapping intervals in the same room exactly one commits.  Failure
// modes: ErrNotFound, ErrForbidden, ErrSameStatus, ErrIllegalTransition,
// ErrApprovalConflict.
func (e *Engine) Transition(ctx context.Context, reservationID uint64, actor Identity, to model.Status, comment *string) (*model.Reservation, error) {
    return e.transition(ctx, reservationID, actor, to, comment, false)
}

// Cancel is the owner-facing cancellation path: Transition to cancelled,
// allowed for the owner or an admin, with terminal states reported as
// ErrAlreadyFinal for a clearer caller-facing signal.
func (e *Engine) Cancel(ctx context.Context, reservationID uint64, actor Identity, comment *string) (*model.Reservation, error) {
    return e.transition(ctx, reservationID, actor, model.StatusCancelled, comment, true)
}

func (e *Engine) transition(ctx context.Context, reservationID uint64, actor Identity, to model.Status, comment *string, ownerCancel bool) (*model.Reservation, error) {
    if !to.IsValid() {
        return nil, ErrIllegalTransition
    }

    var updated *model.Reservation
    err := e.store.InTx(ctx, func(tx Tx) error {
        res, err := tx.LockReservation(ctx, reservationID)
        if err != nil {
            return err
        }
        if res == nil {
            return ErrNotFound
        }

        if !actor.IsAdmin {
            if res.RequestedBy != actor.ID {
                return ErrForbidden
            }
            // Cancelling their own reservation is the only write a
            // member may perform.
            if to != model.StatusCancelled {
                return ErrForbidden
            }
        }

        from := res.Status
        if ownerCancel && from.IsTerminal() {
            return ErrAlreadyFinal
        }
        if from == to {
            return ErrSameStatus
        }
        if !IsValidTransition(from, to) {
            return ErrIllegalTransition
        }

        if to == model.StatusApproved {
            // Approvals contend on the room row, same as creates.  The
            // two racing transactions lock different reservation rows,
            // so without this lock both would read an empty approved
            // set and both would commit.
            room, err := tx.LockRoom(ctx, res.RoomID)
            if err != nil {
                return err
            }
            if room == nil {
                return ErrRoomNotFound
            }
            windows, err := tx.ListApprovedWindows(ctx, res.RoomID, res.ID)
            if err != nil {
                return err
            }
            if HasApprovedConflict(windows, res.StartTime, res.EndTime, res.ID) {
                return ErrApprovalConflict
            }
        }

        now := e.now()
        res.Status = to
        res.UpdatedAt = now

        actorID := actor.ID
        label := actor.RefNo
        if label == "" {
            label = "system"
        }
        entry := &model.StatusHistory{
            ReservationID:  res.ID,
            FromStatus:     from,
            ToStatus:       to,
            ChangedByID:    &actorID,
            ChangedByLabel: label,
            Comment:        comment,
            ChangedAt:      now,
        }
        if err := tx.UpdateStatusAndAppendHistory(ctx, res, entry); err != nil {
            return err
        }
        updated = res
        return nil
    })
    if err != nil {
        return nil, err
    }
    return updated, nil
}

// Get returns one reservation with its room summary.  Members may only
// read reservations they own; admins read everything.
func (e *Engine) Get(ctx context.Context, reservationID uint64, actor Identity) (*ReservationDetail, error) {
    detail, err := e.store.GetDetail(ctx, reservationID)
    if err != nil {
        return nil, err
    }
    if detail == nil {
        return nil, ErrNotFound
    }
    if !actor.IsAdmin && detail.RequestedBy != actor.ID {
        return nil, ErrForbidden
    }
    return detail, nil
}

// List returns the reservations visible to actor: everything for
// admins, only owned reservations for members.  Newest first.
func (e *Engine) List(ctx context.Context, actor Identity) ([]ReservationDetail, error) {
    if actor.IsAdmin {
        return e.store.ListAll(ctx)
    }
    return e.store.ListByRequester(ctx, actor.ID)
}

// History returns a reservation's audit trail, newest entry first,
// under the same access rule as Get.
func (e *Engine) History(ctx context.Context, reservationID uint64, actor Identity) ([]model.StatusHistory, error) {
    res, err := e.store.GetReservation(ctx, reservationID)
    if err != nil {
        return nil, err
    }
    if res == nil {
        return nil, ErrNotFound
    }
    if !actor.IsAdmin && res.RequestedBy != actor.ID {
        return nil, ErrForbidden
    }
    return e.store.ListHistory(ctx, reservationID)
}
