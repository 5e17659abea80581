package config

import (
    "log"
    "strconv"
    "strings"

    "github.com/iliyamo/room-reservation/internal/booking"
)

// LoadBookingRules reads the booking policy from environment variables,
// falling back to the institutional defaults for anything unset:
//
//   BOOKING_OPEN_TIME        "07:00"
//   BOOKING_CLOSE_TIME       "20:00"
//   BOOKING_MIN_DURATION_MIN 30
//   BOOKING_MAX_DURATION_MIN 240
//   BOOKING_MIN_LEAD_MIN     10
//   BOOKING_MAX_ADVANCE_DAYS 30
//   BOOKING_ALLOW_WEEKEND    true
//
// A malformed clock value is a configuration error and aborts startup.
func LoadBookingRules() booking.Rules {
    rules := booking.DefaultRules()
    if v := envStr("BOOKING_OPEN_TIME", ""); v != "" {
        rules.OpenTime = mustClock("BOOKING_OPEN_TIME", v)
    }
    if v := envStr("BOOKING_CLOSE_TIME", ""); v != "" {
        rules.CloseTime = mustClock("BOOKING_CLOSE_TIME", v)
    }
    rules.MinDurationMinutes = envInt("BOOKING_MIN_DURATION_MIN", rules.MinDurationMinutes)
    rules.MaxDurationMinutes = envInt("BOOKING_MAX_DURATION_MIN", rules.MaxDurationMinutes)
    rules.MinLeadMinutes = envInt("BOOKING_MIN_LEAD_MIN", rules.MinLeadMinutes)
    rules.MaxAdvanceDays = envInt("BOOKING_MAX_ADVANCE_DAYS", rules.MaxAdvanceDays)
    rules.AllowWeekend = envBool("BOOKING_ALLOW_WEEKEND", rules.AllowWeekend)
    return rules
}

// mustClock parses "HH:MM" (24h) or exits with a fatal log message.
func mustClock(key, v string) booking.ClockTime {
    parts := strings.SplitN(v, ":", 2)
    if len(parts) == 2 {
        h, errH := strconv.Atoi(parts[0])
        m, errM := strconv.Atoi(parts[1])
        if errH == nil && errM == nil && h >= 0 && h <= 23 && m >= 0 && m <= 59 {
            return booking.ClockTime{Hour: h, Minute: m}
        }
    }
    log.Fatalf("invalid clock time for %s: %q (want HH:MM)", key, v)
    return booking.ClockTime{}
}
