package booking

import (
    "strings"
    "testing"
    "time"
)

// Monday 2025-06-02 09:00 local, well inside operating hours.
var ruleNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)

func at(day int, hour, min int) time.Time {
    return time.Date(2025, 6, day, hour, min, 0, 0, time.Local)
}

func TestValidateAcceptsCompliantInterval(t *testing.T) {
    r := DefaultRules()
    if v := r.Validate(at(2, 10, 0), at(2, 11, 0), ruleNow); len(v) != 0 {
        t.Fatalf("expected no violations, got %v", v)
    }
}

func TestValidateSingleRuleViolations(t *testing.T) {
    r := DefaultRules()
    cases := []struct {
        name  string
        start time.Time
        end   time.Time
        want  string
    }{
        {"too short", at(2, 10, 0), at(2, 10, 15), "at least 30 minutes"},
        {"too long", at(2, 10, 0), at(2, 15, 0), "not exceed 240 minutes"},
        {"insufficient lead", at(2, 9, 5), at(2, 9, 45), "at least 10 minutes from now"},
        {"too far ahead", at(2, 10, 0).AddDate(0, 0, 31), at(2, 11, 0).AddDate(0, 0, 31), "30 days in advance"},
        {"before opening", at(2, 6, 0), at(2, 7, 0), "between 07:00 and 20:00"},
        {"past closing", at(2, 19, 30), at(2, 20, 30), "between 07:00 and 20:00"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got := r.Validate(tc.start, tc.end, ruleNow)
            if len(got) != 1 {
                t.Fatalf("expected exactly one violation, got %v", got)
            }
            if !strings.Contains(got[0], tc.want) {
                t.Fatalf("violation %q does not mention %q", got[0], tc.want)
            }
        })
    }
}

func TestValidateEndingExactlyAtCloseIsAllowed(t *testing.T) {
    r := DefaultRules()
    if v := r.Validate(at(2, 19, 0), at(2, 20, 0), ruleNow); len(v) != 0 {
        t.Fatalf("interval ending at close time should pass, got %v", v)
    }
}

func TestValidateWeekendRule(t *testing.T) {
    r := DefaultRules()
    r.AllowWeekend = false
    // 2025-06-07 is a Saturday.
    got := r.Validate(at(7, 10, 0), at(7, 11, 0), ruleNow)
    if len(got) != 1 || !strings.Contains(got[0], "weekends") {
        t.Fatalf("expected a weekend violation, got %v", got)
    }

    r.AllowWeekend = true
    if v := r.Validate(at(7, 10, 0), at(7, 11, 0), ruleNow); len(v) != 0 {
        t.Fatalf("weekends allowed but got violations: %v", v)
    }
}

// Every rule is checked independently: a bad interval reports the full
// list in one pass, never just the first failure.
func TestValidateReportsAllViolationsTogether(t *testing.T) {
    r := DefaultRules()
    r.AllowWeekend = false
    // Saturday, 5 minutes long, starting in the past, before opening.
    got := r.Validate(at(7, 5, 0), at(7, 5, 5), at(7, 6, 0))
    wants := []string{"at least 30 minutes", "from now", "between 07:00 and 20:00", "weekends"}
    if len(got) != len(wants) {
        t.Fatalf("expected %d violations, got %d: %v", len(wants), len(got), got)
    }
    for i, w := range wants {
        if !strings.Contains(got[i], w) {
            t.Fatalf("violation %d = %q, want mention of %q", i, got[i], w)
        }
    }
}

func TestClockTime(t *testing.T) {
    ct := ClockTime{Hour: 7, Minute: 30}
    if ct.Minutes() != 450 {
        t.Fatalf("Minutes() = %d, want 450", ct.Minutes())
    }
    if ct.String() != "07:30" {
        t.Fatalf("String() = %q, want 07:30", ct.String())
    }
    got := ClockTimeOf(at(2, 19, 45))
    if got != (ClockTime{Hour: 19, Minute: 45}) {
        t.Fatalf("ClockTimeOf = %+v", got)
    }
}
