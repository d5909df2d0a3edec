package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"

	MinutesPerDay = 24 * 60
)

// TimeWindow is a half-open interval [Start, End) on a single calendar date.
// Start and End are wall-clock times formatted as HH:MM; End may be 24:00.
type TimeWindow struct {
	Date  string `json:"date" bson:"date" validate:"required,calendar_date"`
	Start string `json:"start" bson:"start" validate:"required,clock"`
	End   string `json:"end" bson:"end" validate:"required,clock"`
}

// ParseClock converts HH:MM into minutes since midnight. 24:00 is accepted.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid clock value %q: expected HH:MM", s)
	}
	if !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("invalid clock value %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock value %q: out of range", s)
	}
	return h*60 + m, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func (w TimeWindow) StartMinutes() int {
	m, _ := ParseClock(w.Start)
	return m
}

func (w TimeWindow) EndMinutes() int {
	m, _ := ParseClock(w.End)
	return m
}

// Validate checks the date and both clock values and rejects empty or inverted windows.
func (w TimeWindow) Validate() error {
	if _, err := ParseDate(w.Date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", w.Date)
	}
	start, err := ParseClock(w.Start)
	if err != nil {
		return err
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("window start %s must be before end %s", w.Start, w.End)
	}
	return nil
}

// Overlaps reports whether two windows on the same date intersect.
// Windows that only touch (one ends exactly when the other starts) do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	if w.Date != other.Date {
		return false
	}
	return w.StartMinutes() < other.EndMinutes() && w.EndMinutes() > other.StartMinutes()
}

func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.Date == other.Date && w.StartMinutes() == other.StartMinutes() && w.EndMinutes() == other.EndMinutes()
}

func (w TimeWindow) Hours() float64 {
	return float64(w.EndMinutes()-w.StartMinutes()) / 60
}

// EndsAt returns the instant the window ends in the given location.
func (w TimeWindow) EndsAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, w.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(w.EndMinutes()) * time.Minute), nil
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s %s-%s", w.Date, w.Start, w.End)
}

// Less orders windows by date, then start, then end.
func (w TimeWindow) Less(other TimeWindow) bool {
	if w.Date != other.Date {
		return w.Date < other.Date
	}
	if w.StartMinutes() != other.StartMinutes() {
		return w.StartMinutes() < other.StartMinutes()
	}
	return w.EndMinutes() < other.EndMinutes()
}
