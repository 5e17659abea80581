// Package booking implements the reservation scheduling core: the
// booking-rule policy, the status transition table, interval conflict
// detection and the engine that orchestrates them against persistent
// storage.  Everything here is transport-agnostic; handlers translate
// the error kinds below into HTTP responses.
package booking

import (
    "errors"
    "strings"
)

// Sentinel errors returned by the engine.  Each is a distinct, stable
// signal so callers can map failures without inspecting message text.
var (
    // ErrInvalidInterval means end is not after start.
    ErrInvalidInterval = errors.New("end time must be after start time")
    // ErrRoomNotFound means the referenced room does not exist.
    ErrRoomNotFound = errors.New("room not found")
    // ErrRoomInactive means the room exists but no longer accepts bookings.
    ErrRoomInactive = errors.New("room is inactive")
    // ErrScheduleConflict means the interval overlaps a live reservation.
    ErrScheduleConflict = errors.New("schedule conflict with an existing reservation")
    // ErrApprovalConflict means approval would overlap another approved reservation.
    ErrApprovalConflict = errors.New("schedule conflict with an approved reservation")
    // ErrNotFound means the reservation id does not exist.
    ErrNotFound = errors.New("reservation not found")
    // ErrForbidden means the actor may not read or mutate the reservation.
    ErrForbidden = errors.New("forbidden")
    // ErrSameStatus means the requested status equals the current one.
    ErrSameStatus = errors.New("status unchanged")
    // ErrIllegalTransition means the requested edge is not in the transition table.
    ErrIllegalTransition = errors.New("illegal status transition")
    // ErrAlreadyFinal means cancel was attempted on a terminal reservation.
    ErrAlreadyFinal = errors.New("reservation is already final")
)

// PolicyViolationError reports every booking rule the candidate
// interval violated.  Violations is never empty and never truncated.
type PolicyViolationError struct {
    Violations []string
}

func (e *PolicyViolationError) Error() string {
    return "booking policy violated: " + strings.Join(e.Violations, "; ")
}
