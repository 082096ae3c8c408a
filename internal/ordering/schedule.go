package ordering

import (
	"fmt"
	"time"
)

const (
	DateLayout   = "2006-01-02"
	SlotInterval = 30 * time.Minute
)

// Hours is one day's opening window in "HH:MM".
type Hours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Schedule maps weekdays (time.Sunday == 0 .. time.Saturday == 6) to opening
// hours. A weekday without an entry is closed.
type Schedule map[time.Weekday]Hours

func DefaultSchedule() Schedule {
	return Schedule{
		time.Tuesday:   {Open: "08:00", Close: "18:00"},
		time.Wednesday: {Open: "08:00", Close: "18:00"},
		time.Thursday:  {Open: "08:00", Close: "18:00"},
		time.Friday:    {Open: "08:00", Close: "18:00"},
		time.Saturday:  {Open: "08:00", Close: "13:00"},
		time.Sunday:    {Open: "08:00", Close: "12:00"},
	}
}

// SlotsFor returns the pickup slot labels for a weekday. Slots start on a
// half hour and the last one starts at least 30 minutes before closing, so
// the closing time itself is never a slot.
func (s Schedule) SlotsFor(day time.Weekday) []string {
	hours, ok := s[day]
	if !ok {
		return []string{}
	}

	open, err := parseClock(hours.Open)
	if err != nil {
		return []string{}
	}
	closing, err := parseClock(hours.Close)
	if err != nil {
		return []string{}
	}

	step := int(SlotInterval / time.Minute)
	start := ((open + step - 1) / step) * step

	slots := []string{}
	for m := start; m+step <= closing; m += step {
		slots = append(slots, formatClock(m))
	}
	return slots
}

func (s Schedule) Slots(date time.Time) []string {
	return s.SlotsFor(date.Weekday())
}

func (s Schedule) HasSlot(date time.Time, slot string) bool {
	for _, candidate := range s.Slots(date) {
		if candidate == slot {
			return true
		}
	}
	return false
}

func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return d, nil
}

// ShopLocation is the shop's local time zone, falling back to UTC when the
// zone database is unavailable.
func ShopLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Brussels")
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", raw, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
