package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
)

// ReservationRepo is the MySQL implementation of the booking engine's
// persistence gateway.  Every engine write runs inside one InTx call;
// LockRoom/LockReservation take InnoDB row locks (SELECT ... FOR
// UPDATE) that serialize check-then-write sequences per room, so two
// racing creates or approvals for overlapping intervals cannot both
// observe "no conflict".
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

var _ booking.Gateway = (*ReservationRepo)(nil)

const reservationColumns = `id, room_id, requested_by, booked_for_name, booked_for_ref,
    start_time, end_time, status, notes, created_at, updated_at`

// GetRoom loads a room, returning (nil, nil) when it does not exist.
func (r *ReservationRepo) GetRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, roomID)
    room, err := scanRoom(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return room, err
}

// GetReservation loads a raw reservation row, (nil, nil) when absent.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
    res, err := scanReservation(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return res, err
}

// GetDetail loads a reservation joined with its room code and name,
// (nil, nil) when absent.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*booking.ReservationDetail, error) {
    const q = `SELECT l.id, l.room_id, l.requested_by, l.booked_for_name, l.booked_for_ref,
                      l.start_time, l.end_time, l.status, l.notes, l.created_at, l.updated_at,
                      r.code, r.name
               FROM reservations l
               JOIN rooms r ON r.id = l.room_id
               WHERE l.id = ?`
    det, err := scanDetail(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return det, err
}

// ListByRequester returns all reservations owned by a user, newest
// first.
func (r *ReservationRepo) ListByRequester(ctx context.Context, userID uint64) ([]booking.ReservationDetail, error) {
    const q = `SELECT l.id, l.room_id, l.requested_by, l.booked_for_name, l.booked_for_ref,
                      l.start_time, l.end_time, l.status, l.notes, l.created_at, l.updated_at,
                      r.code, r.name
               FROM reservations l
               JOIN rooms r ON r.id = l.room_id
               WHERE l.requested_by = ?
               ORDER BY l.created_at DESC, l.id DESC`
    return r.queryDetails(ctx, q, userID)
}

// ListAll returns every reservation, newest first.  The engine gates
// this behind the privileged read path.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]booking.ReservationDetail, error) {
    const q = `SELECT l.id, l.room_id, l.requested_by, l.booked_for_name, l.booked_for_ref,
                      l.start_time, l.end_time, l.status, l.notes, l.created_at, l.updated_at,
                      r.code, r.name
               FROM reservations l
               JOIN rooms r ON r.id = l.room_id
               ORDER BY l.created_at DESC, l.id DESC`
    return r.queryDetails(ctx, q)
}

// ListHistory returns the audit trail of a reservation, newest entry
// first.  The id tiebreak preserves insertion order when two entries
// share a timestamp.
func (r *ReservationRepo) ListHistory(ctx context.Context, reservationID uint64) ([]model.StatusHistory, error) {
    const q = `SELECT id, reservation_id, from_status, to_status, changed_by_id, changed_by_label, comment, changed_at
               FROM reservation_status_history
               WHERE reservation_id = ?
               ORDER BY changed_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    entries := make([]model.StatusHistory, 0)
    for rows.Next() {
        var h model.StatusHistory
        var changedBy sql.NullInt64
        var comment sql.NullString
        if err := rows.Scan(&h.ID, &h.ReservationID, &h.FromStatus, &h.ToStatus,
            &changedBy, &h.ChangedByLabel, &comment, &h.ChangedAt); err != nil {
            return nil, err
        }
        if changedBy.Valid {
            v := uint64(changedBy.Int64)
            h.ChangedByID = &v
        }
        if comment.Valid {
            v := comment.String
            h.Comment = &v
        }
        entries = append(entries, h)
    }
    return entries, rows.Err()
}

// InTx runs fn inside one database transaction, rolling back on any
// error and committing otherwise.
func (r *ReservationRepo) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&reservationTx{tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func (r *ReservationRepo) queryDetails(ctx context.Context, q string, args ...any) ([]booking.ReservationDetail, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]booking.ReservationDetail, 0)
    for rows.Next() {
        det, err := scanDetail(rows)
        if err != nil {
            return nil, err
        }
        details = append(details, *det)
    }
    return details, rows.Err()
}

// reservationTx implements booking.Tx over an open *sql.Tx.
type reservationTx struct {
    tx *sql.Tx
}

// LockRoom reads the room row FOR UPDATE.  The lock is held until the
// surrounding transaction commits, serializing all booking writes for
// the room.
func (t *reservationTx) LockRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
    const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ? FOR UPDATE`
    room, err := scanRoom(t.tx.QueryRowContext(ctx, q, roomID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return room, err
}

// LockReservation reads the reservation row FOR UPDATE.
func (t *reservationTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
    res, err := scanReservation(t.tx.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return res, err
}

// ListLiveWindows returns the intervals of reservations that still
// occupy the room's schedule (not rejected, not cancelled).
func (t *reservationTx) ListLiveWindows(ctx context.Context, roomID, excludeID uint64) ([]model.ReservationWindow, error) {
    const q = `SELECT id, start_time, end_time, status FROM reservations
               WHERE room_id = ? AND id <> ? AND status NOT IN ('rejected', 'cancelled')`
    return t.queryWindows(ctx, q, roomID, excludeID)
}

// ListApprovedWindows returns the intervals of approved reservations
// only, the comparison set for the approval path.
func (t *reservationTx) ListApprovedWindows(ctx context.Context, roomID, excludeID uint64) ([]model.ReservationWindow, error) {
    const q = `SELECT id, start_time, end_time, status FROM reservations
               WHERE room_id = ? AND id <> ? AND status = 'approved'`
    return t.queryWindows(ctx, q, roomID, excludeID)
}

// InsertReservation persists a new reservation and populates its ID.
func (t *reservationTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
    const q = `INSERT INTO reservations
               (room_id, requested_by, booked_for_name, booked_for_ref, start_time, end_time, status, notes, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := t.tx.ExecContext(ctx, q,
        res.RoomID, res.RequestedBy, res.BookedForName, res.BookedForRef,
        fmtTime(res.StartTime), fmtTime(res.EndTime), string(res.Status), res.Notes,
        fmtTime(res.CreatedAt), fmtTime(res.UpdatedAt))
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return nil
}

// UpdateStatusAndAppendHistory applies the status change and appends
// the audit entry within the surrounding transaction: both writes
// commit or neither does.
func (t *reservationTx) UpdateStatusAndAppendHistory(ctx context.Context, res *model.Reservation, entry *model.StatusHistory) error {
    const upd = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`
    if _, err := t.tx.ExecContext(ctx, upd, string(res.Status), fmtTime(res.UpdatedAt), res.ID); err != nil {
        return err
    }
    const ins = `INSERT INTO reservation_status_history
                 (reservation_id, from_status, to_status, changed_by_id, changed_by_label, comment, changed_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`
    result, err := t.tx.ExecContext(ctx, ins,
        entry.ReservationID, string(entry.FromStatus), string(entry.ToStatus),
        entry.ChangedByID, entry.ChangedByLabel, entry.Comment, fmtTime(entry.ChangedAt))
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    entry.ID = uint64(id)
    return nil
}

func (t *reservationTx) queryWindows(ctx context.Context, q string, args ...any) ([]model.ReservationWindow, error) {
    rows, err := t.tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    windows := make([]model.ReservationWindow, 0)
    for rows.Next() {
        var w model.ReservationWindow
        if err := rows.Scan(&w.ID, &w.StartTime, &w.EndTime, &w.Status); err != nil {
            return nil, err
        }
        windows = append(windows, w)
    }
    return windows, rows.Err()
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
    var res model.Reservation
    var notes sql.NullString
    if err := row.Scan(&res.ID, &res.RoomID, &res.RequestedBy, &res.BookedForName, &res.BookedForRef,
        &res.StartTime, &res.EndTime, &res.Status, &notes, &res.CreatedAt, &res.UpdatedAt); err != nil {
        return nil, err
    }
    if notes.Valid {
        v := notes.String
        res.Notes = &v
    }
    return &res, nil
}

func scanDetail(row rowScanner) (*booking.ReservationDetail, error) {
    var det booking.ReservationDetail
    var notes sql.NullString
    if err := row.Scan(&det.ID, &det.RoomID, &det.RequestedBy, &det.BookedForName, &det.BookedForRef,
        &det.StartTime, &det.EndTime, &det.Status, &notes, &det.CreatedAt, &det.UpdatedAt,
        &det.RoomCode, &det.RoomName); err != nil {
        return nil, err
    }
    if notes.Valid {
        v := notes.String
        det.Notes = &v
    }
    return &det, nil
}
