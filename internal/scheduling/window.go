package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Window is an open period expressed in minutes since local midnight, [Open, Close).
type Window struct {
	Open  int
	Close int
}

// Minutes returns the window length.
func (w Window) Minutes() int {
	return w.Close - w.Open
}

// Contains reports whether [start, start+length) fits inside the window.
func (w Window) Contains(start, length int) bool {
	return start >= w.Open && start+length <= w.Close
}

// ResolveWindow returns the open window for the date's weekday. The bool is
// false when the clinic is closed that day. A missing weekday entry, a bad
// clock string or a window that does not close after it opens is a ConfigError.
func ResolveWindow(hours WorkingHours, date time.Time) (Window, bool, error) {
	key := WeekdayKey(date.Weekday())
	day, ok := hours.ForDay(date.Weekday())
	if !ok {
		return Window{}, false, &ConfigError{Reason: "no working hours entry for " + key}
	}
	if !day.Enabled {
		return Window{}, false, nil
	}
	w, err := openWindow(day)
	if err != nil {
		return Window{}, false, &ConfigError{Reason: key + ": " + err.Error()}
	}
	return w, true, nil
}

// WindowFor resolves the clinic's window for date, tagging config errors with the clinic id.
func (c *ClinicSchedule) WindowFor(date time.Time) (Window, bool, error) {
	w, open, err := ResolveWindow(c.WorkingHours, date)
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) && cfgErr.ClinicID == "" {
		cfgErr.ClinicID = c.ClinicID
	}
	return w, open, err
}

func openWindow(day DayHours) (Window, error) {
	open, err := ParseClock(day.Open)
	if err != nil {
		return Window{}, fmt.Errorf("open: %w", err)
	}
	closing, err := ParseClock(day.Close)
	if err != nil {
		return Window{}, fmt.Errorf("close: %w", err)
	}
	if closing <= open {
		return Window{}, fmt.Errorf("close %s is not after open %s", day.Close, day.Open)
	}
	return Window{Open: open, Close: closing}, nil
}

// ParseClock converts "HH:MM" (or "HH:MM:SS") into minutes since midnight.
// "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("malformed clock %q", s)
	}
	h, ok := clockField(parts[0], 1, 2)
	if !ok {
		return 0, fmt.Errorf("malformed clock %q", s)
	}
	m, ok := clockField(parts[1], 2, 2)
	if !ok {
		return 0, fmt.Errorf("malformed clock %q", s)
	}
	if len(parts) == 3 {
		if sec, ok := clockField(parts[2], 2, 2); !ok || sec != 0 {
			return 0, fmt.Errorf("malformed clock %q", s)
		}
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return h*60 + m, nil
}

// clockField parses an unsigned decimal field of minLen..maxLen digits.
func clockField(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ClockOf returns t's minutes since midnight in t's own location.
func ClockOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// At returns the instant minutes after midnight of date's calendar day in loc.
func At(date time.Time, minutes int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, loc)
}

// WallClock is At that also reports whether the wall time exists on that day.
// It is false inside a spring-forward gap, where time.Date shifts the clock.
func WallClock(date time.Time, minutes int, loc *time.Location) (time.Time, bool) {
	t := At(date, minutes, loc)
	return t, ClockOf(t) == minutes && t.Day() == date.Day()
}

// DayBounds returns [midnight, next midnight) for date's calendar day in loc.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
