package bookings

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format for appointment dates.
	DateLayout = "2006-01-02"
	// SlotLayout renders slot times as "09:00 AM".
	SlotLayout = "03:04 PM"

	closedSchedule = "Closed"
)

// ClockTime is a wall-clock time on a 24 hour dial.
type ClockTime struct {
	Hours   int
	Minutes int
}

// Window is one day's opening hours parsed from a schedule string such as
// "9:00 AM - 5:00 PM".
type Window struct {
	Start ClockTime
	End   ClockTime
}

// WeekdayKey returns the lower-case English weekday of a YYYY-MM-DD date,
// which is the key used in availability schedules.
func WeekdayKey(date string) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidDate, date, err)
	}
	return strings.ToLower(d.Weekday().String()), nil
}

// IsClosed reports whether a day's schedule string means no appointments.
func IsClosed(schedule string) bool {
	s := strings.TrimSpace(schedule)
	return s == "" || s == closedSchedule
}

// ParseWindow parses "<start> - <end>" where each side is "h:mm AM|PM".
func ParseWindow(schedule string) (Window, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(schedule), " - ")
	if !ok {
		return Window{}, fmt.Errorf("bookings: schedule %q is not a time range", schedule)
	}
	start, err := parseClock(startStr)
	if err != nil {
		return Window{}, err
	}
	end, err := parseClock(endStr)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

func parseClock(s string) (ClockTime, error) {
	clock, meridiem, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return ClockTime{}, fmt.Errorf("bookings: time %q is missing AM/PM", s)
	}
	hourStr, minuteStr, ok := strings.Cut(clock, ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("bookings: time %q is missing minutes", s)
	}
	hours, err := strconv.Atoi(hourStr)
	if err != nil {
		return ClockTime{}, fmt.Errorf("bookings: bad hour in %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(minuteStr)
	if err != nil {
		return ClockTime{}, fmt.Errorf("bookings: bad minutes in %q: %w", s, err)
	}

	switch strings.ToUpper(strings.TrimSpace(meridiem)) {
	case "PM":
		if hours != 12 {
			hours += 12
		}
	case "AM":
		if hours == 12 {
			hours = 0
		}
	default:
		return ClockTime{}, fmt.Errorf("bookings: time %q has unknown meridiem", s)
	}
	return ClockTime{Hours: hours, Minutes: minutes}, nil
}

// Slots returns one slot per whole hour from the start hour (inclusive) to
// the end hour (exclusive). Every slot reuses the start minutes, and a window
// that wraps past midnight yields nothing.
func (w Window) Slots() []string {
	var slots []string
	for hour := w.Start.Hours; hour < w.End.Hours; hour++ {
		slots = append(slots, FormatSlot(hour, w.Start.Minutes))
	}
	return slots
}

// FormatSlot renders an hour/minute pair as "hh:mm AM/PM".
func FormatSlot(hour, minute int) string {
	return time.Date(2000, time.January, 1, hour, minute, 0, 0, time.UTC).Format(SlotLayout)
}
