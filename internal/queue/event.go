// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationStatusEvent is published whenever a reservation changes
// status (including creation into pending).  It carries enough for
// downstream consumers to log or notify without querying the primary
// database.  Timestamps are naive local wall-clock strings.
type ReservationStatusEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    RoomID        uint64 `json:"room_id"`
    RoomCode      string `json:"room_code,omitempty"`
    RequestedBy   uint64 `json:"requested_by"`
    BookedForRef  string `json:"booked_for_ref,omitempty"`
    FromStatus    string `json:"from_status,omitempty"`
    ToStatus      string `json:"to_status"`
    StartTime     string `json:"start_time"`
    EndTime       string `json:"end_time"`
    ChangedBy     string `json:"changed_by,omitempty"`
    ChangedAt     string `json:"changed_at"`
}
