package model

// Status enumerates the lifecycle states of a reservation.  The set is
// closed: values outside the five constants below are never stored and
// never accepted from callers.  rejected and cancelled are terminal;
// completed is terminal by convention but no write path in this service
// produces it.
type Status string

const (
    StatusPending   Status = "pending"   // initial state of every reservation
    StatusApproved  Status = "approved"  // confirmed by an admin
    StatusRejected  Status = "rejected"  // declined by an admin (terminal)
    StatusCancelled Status = "cancelled" // withdrawn by owner or admin (terminal)
    StatusCompleted Status = "completed" // finished (terminal, external trigger only)
)

// AllStatuses returns every valid status value.  Used by validation and
// by the exhaustive transition tests.
func AllStatuses() []Status {
    return []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}
}

// IsValid reports whether s is one of the five known statuses.
func (s Status) IsValid() bool {
    switch s {
    case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
        return true
    }
    return false
}

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
    return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// IsLive reports whether a reservation in this status still occupies its
// room's schedule.  Rejected and cancelled reservations free the slot.
func (s Status) IsLive() bool {
    return s != StatusRejected && s != StatusCancelled
}

func (s Status) String() string { return string(s) }
