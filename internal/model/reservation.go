package model

import "time"

// Reservation records a booking of one room for one time interval.
// RoomID and RequestedBy are immutable after creation.  BookedForName
// and BookedForRef identify the person the reservation is for; they
// normally mirror the requester's own record but admins may book on
// behalf of someone else.  Ownership for access control always binds
// to RequestedBy, never to the display fields.
//
// Fields:
//  ID            – primary key identifier.
//  RoomID        – room being reserved.
//  RequestedBy   – user who created the reservation (owner).
//  BookedForName – display name of the person the booking is for.
//  BookedForRef  – identifier-of-record of that person.
//  StartTime     – interval start (naive local wall clock).
//  EndTime       – interval end, always after StartTime.
//  Status        – lifecycle state, see Status.
//  Notes         – optional free-text note.
//  CreatedAt     – creation timestamp (engine assigned).
//  UpdatedAt     – last update timestamp (engine assigned).
type Reservation struct {
    ID            uint64    // reservations.id
    RoomID        uint64    // reservations.room_id
    RequestedBy   uint64    // reservations.requested_by
    BookedForName string    // reservations.booked_for_name
    BookedForRef  string    // reservations.booked_for_ref
    StartTime     time.Time // reservations.start_time
    EndTime       time.Time // reservations.end_time
    Status        Status    // reservations.status
    Notes         *string   // reservations.notes (nullable)
    CreatedAt     time.Time // reservations.created_at
    UpdatedAt     time.Time // reservations.updated_at
}

// ReservationWindow is the slim projection the conflict detector works
// on: just the interval and status of a persisted reservation.
type ReservationWindow struct {
    ID        uint64
    StartTime time.Time
    EndTime   time.Time
    Status    Status
}
