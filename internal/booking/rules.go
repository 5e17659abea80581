package booking

import (
    "fmt"
    "time"
)

// Rules holds the configurable booking policy for reservation
// intervals.  A zero value is not usable; construct via DefaultRules or
// config.LoadBookingRules.  Rules is stateless and safe for concurrent
// use.
//
// Fields:
//  OpenTime           – earliest minute-of-day an interval may start.
//  CloseTime          – latest minute-of-day an interval may end.
//  MinDurationMinutes – minimum interval length.
//  MaxDurationMinutes – maximum interval length.
//  MinLeadMinutes     – start must be at least this far in the future.
//  MaxAdvanceDays     – start date must be within this many days of now.
//  AllowWeekend       – whether Saturday/Sunday intervals are allowed.
type Rules struct {
    OpenTime           ClockTime
    CloseTime          ClockTime
    MinDurationMinutes int
    MaxDurationMinutes int
    MinLeadMinutes     int
    MaxAdvanceDays     int
    AllowWeekend       bool
}

// ClockTime is a wall-clock time of day, independent of date.
type ClockTime struct {
    Hour   int
    Minute int
}

// Minutes returns the time of day as minutes after midnight.
func (ct ClockTime) Minutes() int { return ct.Hour*60 + ct.Minute }

func (ct ClockTime) String() string { return fmt.Sprintf("%02d:%02d", ct.Hour, ct.Minute) }

// ClockTimeOf extracts the wall-clock portion of t.
func ClockTimeOf(t time.Time) ClockTime {
    return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// DefaultRules returns the institutional defaults: open 07:00-20:00,
// duration 30-240 minutes, 10 minute lead, bookable up to 30 days
// ahead, weekends allowed.
func DefaultRules() Rules {
    return Rules{
        OpenTime:           ClockTime{Hour: 7},
        CloseTime:          ClockTime{Hour: 20},
        MinDurationMinutes: 30,
        MaxDurationMinutes: 240,
        MinLeadMinutes:     10,
        MaxAdvanceDays:     30,
        AllowWeekend:       true,
    }
}

// Validate checks the candidate interval [start, end) against every
// policy rule and returns one message per violated rule.  All checks
// run independently; callers receive the complete violation list in a
// single pass, never just the first failure.  An empty result means the
// interval is policy-compliant.  All timestamps are naive local wall
// clock; now is the validation instant supplied by the caller.
func (r Rules) Validate(start, end, now time.Time) []string {
    var violations []string

    duration := end.Sub(start).Minutes()
    if duration < float64(r.MinDurationMinutes) {
        violations = append(violations, fmt.Sprintf("duration must be at least %d minutes", r.MinDurationMinutes))
    }
    if duration > float64(r.MaxDurationMinutes) {
        violations = append(violations, fmt.Sprintf("duration must not exceed %d minutes", r.MaxDurationMinutes))
    }

    // No bookings in the past or starting almost immediately.
    if start.Before(now.Add(time.Duration(r.MinLeadMinutes) * time.Minute)) {
        violations = append(violations, fmt.Sprintf("start must be at least %d minutes from now", r.MinLeadMinutes))
    }

    // Advance horizon compares calendar dates, not instants.
    horizon := dateOnly(now).AddDate(0, 0, r.MaxAdvanceDays)
    if dateOnly(start).After(horizon) {
        violations = append(violations, fmt.Sprintf("bookings are accepted at most %d days in advance", r.MaxAdvanceDays))
    }

    // Both endpoints must fall inside operating hours.
    if ClockTimeOf(start).Minutes() < r.OpenTime.Minutes() || ClockTimeOf(end).Minutes() > r.CloseTime.Minutes() {
        violations = append(violations, fmt.Sprintf("bookings are only accepted between %s and %s", r.OpenTime, r.CloseTime))
    }

    if !r.AllowWeekend {
        if isWeekend(start.Weekday()) || isWeekend(end.Weekday()) {
            violations = append(violations, "bookings are not accepted on weekends")
        }
    }

    return violations
}

func isWeekend(d time.Weekday) bool {
    return d == time.Saturday || d == time.Sunday
}

func dateOnly(t time.Time) time.Time {
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
