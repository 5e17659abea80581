package model

import "time"

// Room represents a bookable room as stored in the `rooms` table.
// Rooms are created by admins and are never hard-deleted while
// reservations reference them; deactivation (`is_active=false`) is the
// soft-delete: inactive rooms accept no new reservations but their
// historical reservations stay valid.
//
// Fields:
//  ID         – primary key identifier.
//  Code       – unique short code (e.g. "R-101").
//  Name       – display name of the room.
//  Location   – optional free-text location.
//  Capacity   – maximum occupancy, always > 0.
//  Facilities – optional free-text facility description.
//  IsActive   – whether the room accepts new reservations.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Room struct {
    ID         uint64    // rooms.id
    Code       string    // rooms.code
    Name       string    // rooms.name
    Location   *string   // rooms.location (nullable)
    Capacity   uint32    // rooms.capacity
    Facilities *string   // rooms.facilities (nullable)
    IsActive   bool      // rooms.is_active
    CreatedAt  time.Time // rooms.created_at
    UpdatedAt  time.Time // rooms.updated_at
}
