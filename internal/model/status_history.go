package model

import "time"

// StatusHistory is one append-only audit entry recording a status
// change on a reservation.  Entries are never updated or deleted; the
// ordered set of entries for a reservation reconstructs its full
// lifecycle.  ChangedByID is nil for system-initiated changes.
// ChangedByLabel is an informational display label only; access checks
// always use the structured ChangedByID reference.
//
// Fields:
//  ID             – primary key identifier.
//  ReservationID  – reservation this entry belongs to (immutable).
//  FromStatus     – status before the change.
//  ToStatus       – status after the change.
//  ChangedByID    – acting user, nil when the system made the change.
//  ChangedByLabel – display label for the actor ("system" fallback).
//  Comment        – optional free-text comment.
//  ChangedAt      – when the change happened.
type StatusHistory struct {
    ID             uint64    // reservation_status_history.id
    ReservationID  uint64    // reservation_status_history.reservation_id
    FromStatus     Status    // reservation_status_history.from_status
    ToStatus       Status    // reservation_status_history.to_status
    ChangedByID    *uint64   // reservation_status_history.changed_by_id (nullable)
    ChangedByLabel string    // reservation_status_history.changed_by_label
    Comment        *string   // reservation_status_history.comment (nullable)
    ChangedAt      time.Time // reservation_status_history.changed_at
}
