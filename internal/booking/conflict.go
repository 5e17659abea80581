package booking

import (
    "time"

    "github.com/iliyamo/room-reservation/internal/model"
)

// Overlaps reports whether the half-open intervals [start, end) and
// [otherStart, otherEnd) intersect.  Touching endpoints (end ==
// otherStart) do not overlap, so back-to-back reservations are legal.
func Overlaps(start, end, otherStart, otherEnd time.Time) bool {
    return start.Before(otherEnd) && end.After(otherStart)
}

// HasConflict reports whether the candidate interval [start, end)
// overlaps any of the given reservation windows.  Windows whose status
// is not live (rejected/cancelled) never conflict, and the window with
// ID excludeID is skipped so a reservation does not conflict with
// itself.  Pass excludeID 0 to compare against every window.
func HasConflict(windows []model.ReservationWindow, start, end time.Time, excludeID uint64) bool {
    for _, w := range windows {
        if w.ID == excludeID {
            continue
        }
        if !w.Status.IsLive() {
            continue
        }
        if Overlaps(start, end, w.StartTime, w.EndTime) {
            return true
        }
    }
    return false
}

// HasApprovedConflict is the approval-path variant of HasConflict: only
// windows already in approved status block, since pending reservations
// do not contend with each other for approval.
func HasApprovedConflict(windows []model.ReservationWindow, start, end time.Time, excludeID uint64) bool {
    for _, w := range windows {
        if w.ID == excludeID {
            continue
        }
        if w.Status != model.StatusApproved {
            continue
        }
        if Overlaps(start, end, w.StartTime, w.EndTime) {
            return true
        }
    }
    return false
}
