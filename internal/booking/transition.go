package booking

import "github.com/iliyamo/room-reservation/internal/model"

// IsValidTransition reports whether a reservation may move from one
// status to another.  The table is closed:
//
//	pending   -> approved, rejected, cancelled
//	approved  -> cancelled
//	rejected  -> (none)
//	cancelled -> (none)
//	completed -> (none)
//
// Self-transitions are the caller's concern (reported as ErrSameStatus
// before this table is consulted); the table itself simply has no
// self-edges.  The function is pure and total over all status pairs.
func IsValidTransition(from, to model.Status) bool {
    switch from {
    case model.StatusPending:
        return to == model.StatusApproved || to == model.StatusRejected || to == model.StatusCancelled
    case model.StatusApproved:
        return to == model.StatusCancelled
    default:
        return false
    }
}
