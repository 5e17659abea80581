package handler

import (
    "errors"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
)

// errNoIdentity signals that the JWT middleware did not leave a usable
// identity in the request context.
var errNoIdentity = errors.New("no authenticated identity in context")

// getUserID extracts the authenticated user's ID from the context
// values stored by the JWT middleware.  The sub claim arrives as a
// float64 after JSON decoding; string form is accepted for robustness.
func getUserID(c echo.Context) (uint64, error) {
    switch v := c.Get("user_id").(type) {
    case float64:
        if v > 0 {
            return uint64(v), nil
        }
    case string:
        if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
            return id, nil
        }
    }
    return 0, errNoIdentity
}

// actorFrom builds the acting identity for the booking engine from the
// JWT claims.  Name is left empty; paths that stamp an authoritative
// name (create) re-read the user record instead of trusting claims.
func actorFrom(c echo.Context) (booking.Identity, error) {
    id, err := getUserID(c)
    if err != nil {
        return booking.Identity{}, err
    }
    role, _ := c.Get("role").(string)
    ref, _ := c.Get("ref").(string)
    return booking.Identity{ID: id, RefNo: ref, IsAdmin: role == model.RoleAdmin}, nil
}

// naiveTimeLayouts are the accepted wall-clock formats for reservation
// intervals.  No timezone designator is accepted: timestamps are naive
// local values by contract.
var naiveTimeLayouts = []string{
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
    "2006-01-02 15:04:05",
    "2006-01-02 15:04",
}

// parseNaiveTime parses a naive local wall-clock timestamp.
func parseNaiveTime(s string) (time.Time, error) {
    var lastErr error
    for _, layout := range naiveTimeLayouts {
        if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
            return t, nil
        } else {
            lastErr = err
        }
    }
    return time.Time{}, lastErr
}

// formatNaiveTime renders a timestamp the way parseNaiveTime reads it.
func formatNaiveTime(t time.Time) string { return t.Format("2006-01-02T15:04:05") }
