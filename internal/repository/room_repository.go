package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo provides data access to the rooms table.  Rooms are managed
// by admins; members only read them.  Deactivation is the soft delete;
// the foreign key from reservations restricts hard deletes, preserving
// the audit trail of historical bookings.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, code, name, location, capacity, facilities, is_active, created_at, updated_at`

// List returns every room ordered by code.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY code`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    rooms := make([]model.Room, 0)
    for rows.Next() {
        room, err := scanRoom(rows)
        if err != nil {
            return nil, err
        }
        rooms = append(rooms, *room)
    }
    return rooms, rows.Err()
}

// GetByID loads a single room.  Returns sql.ErrNoRows when absent.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
    return scanRoom(row)
}

// Create inserts a new active room.  The unique code index maps
// duplicate-key violations to ErrRoomCodeExists.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
    const q = `INSERT INTO rooms (code, name, location, capacity, facilities, is_active)
               VALUES (?, ?, ?, ?, ?, 1)`
    result, err := r.db.ExecContext(ctx, q, room.Code, room.Name, room.Location, room.Capacity, room.Facilities)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == 1062 {
            return ErrRoomCodeExists
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    room.ID = uint64(id)
    // Read back timestamps and defaults assigned by the database.
    refreshed, err := r.GetByID(ctx, room.ID)
    if err != nil {
        return err
    }
    *room = *refreshed
    return nil
}

// Update rewrites a room's mutable fields.  Returns sql.ErrNoRows when
// the room does not exist and ErrRoomCodeExists when the new code
// collides with another room.
func (r *RoomRepo) Update(ctx context.Context, room *model.Room) error {
    const q = `UPDATE rooms SET code = ?, name = ?, location = ?, capacity = ?, facilities = ?, is_active = ?
               WHERE id = ?`
    result, err := r.db.ExecContext(ctx, q, room.Code, room.Name, room.Location, room.Capacity,
        room.Facilities, room.IsActive, room.ID)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == 1062 {
            return ErrRoomCodeExists
        }
        return err
    }
    if n, err := result.RowsAffected(); err == nil && n == 0 {
        // Distinguish "absent" from "unchanged": a no-op update on an
        // existing row also reports zero affected rows.
        if _, err := r.GetByID(ctx, room.ID); err != nil {
            return err
        }
    }
    refreshed, err := r.GetByID(ctx, room.ID)
    if err != nil {
        return err
    }
    *room = *refreshed
    return nil
}

// Deactivate soft-deletes a room: it stops accepting new reservations
// while historical ones remain valid.  Returns sql.ErrNoRows when the
// room does not exist.
func (r *RoomRepo) Deactivate(ctx context.Context, id uint64) error {
    if _, err := r.GetByID(ctx, id); err != nil {
        return err
    }
    _, err := r.db.ExecContext(ctx, `UPDATE rooms SET is_active = 0 WHERE id = ?`, id)
    return err
}

// ListAvailable returns active rooms with no live reservation
// overlapping [start, end), ordered by code.
func (r *RoomRepo) ListAvailable(ctx context.Context, start, end time.Time) ([]model.Room, error) {
    const q = `SELECT ` + roomColumns + ` FROM rooms r
               WHERE r.is_active = 1
                 AND NOT EXISTS (
                     SELECT 1 FROM reservations l
                     WHERE l.room_id = r.id
                       AND l.status NOT IN ('rejected', 'cancelled')
                       AND ? < l.end_time
                       AND ? > l.start_time
                 )
               ORDER BY r.code`
    rows, err := r.db.QueryContext(ctx, q, fmtTime(start), fmtTime(end))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    rooms := make([]model.Room, 0)
    for rows.Next() {
        room, err := scanRoom(rows)
        if err != nil {
            return nil, err
        }
        rooms = append(rooms, *room)
    }
    return rooms, rows.Err()
}

// ListConflicts returns the live reservations of one room overlapping
// [start, end), for the per-room availability endpoint.
func (r *RoomRepo) ListConflicts(ctx context.Context, roomID uint64, start, end time.Time) ([]model.ReservationWindow, error) {
    const q = `SELECT id, start_time, end_time, status FROM reservations
               WHERE room_id = ?
                 AND status NOT IN ('rejected', 'cancelled')
                 AND ? < end_time
                 AND ? > start_time
               ORDER BY start_time`
    rows, err := r.db.QueryContext(ctx, q, roomID, fmtTime(start), fmtTime(end))
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

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*model.Room, error) {
    var room model.Room
    var location, facilities sql.NullString
    if err := row.Scan(&room.ID, &room.Code, &room.Name, &location, &room.Capacity,
        &facilities, &room.IsActive, &room.CreatedAt, &room.UpdatedAt); err != nil {
        return nil, err
    }
    if location.Valid {
        v := location.String
        room.Location = &v
    }
    if facilities.Valid {
        v := facilities.String
        room.Facilities = &v
    }
    return &room, nil
}

func fmtTime(t time.Time) string { return t.Format("2006-01-02 15:04:05") }
