package booking

import (
    "testing"

    "github.com/iliyamo/room-reservation/internal/model"
)

// The transition table, exhaustively: pending fans out to the three
// decision states, approved can only be cancelled, and the terminal
// states accept nothing.
func TestIsValidTransition(t *testing.T) {
    allowed := map[model.Status]map[model.Status]bool{
        model.StatusPending: {
            model.StatusApproved:  true,
            model.StatusRejected:  true,
            model.StatusCancelled: true,
        },
        model.StatusApproved: {
            model.StatusCancelled: true,
        },
    }

    for _, from := range model.AllStatuses() {
        for _, to := range model.AllStatuses() {
            want := allowed[from][to]
            if got := IsValidTransition(from, to); got != want {
                t.Errorf("IsValidTransition(%s, %s) = %v, want %v", from, to, got, want)
            }
        }
    }
}

func TestTerminalStatesAcceptNoTransition(t *testing.T) {
    for _, from := range []model.Status{model.StatusRejected, model.StatusCancelled, model.StatusCompleted} {
        for _, to := range model.AllStatuses() {
            if IsValidTransition(from, to) {
                t.Errorf("terminal status %s must not transition to %s", from, to)
            }
        }
    }
}
