package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// TimeOfDay - время суток в минутах от полуночи.
type TimeOfDay int

const minutesPerDay = 24 * 60

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay принимает HH:MM и HH:MM:SS (секунды отбрасываются).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layout := TimeFormat
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, NewValidationError("horario", fmt.Sprintf("horário inválido: %q, esperado HH:MM", s))
	}

	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// On возвращает момент времени в дату date (часовой пояс берется из date).
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDate разбирает дату YYYY-MM-DD в часовом поясе loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateFormat, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, NewValidationError("data", fmt.Sprintf("data inválida: %q, esperado AAAA-MM-DD", s))
	}
	return d, nil
}

// DateRange перебирает даты [from, to] включительно.
func DateRange(from, to time.Time) []time.Time {
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
