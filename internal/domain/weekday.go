package domain

import (
	"fmt"
	"strings"
	"time"
)

// Weekday - день недели в правилах расписания. Нумерация с понедельника,
// в базе хранится строковый ключ (segunda, terca, ...).
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayKeys = [...]string{
	Monday:    "segunda",
	Tuesday:   "terca",
	Wednesday: "quarta",
	Thursday:  "quinta",
	Friday:    "sexta",
	Saturday:  "sabado",
	Sunday:    "domingo",
}

var weekdayLabels = [...]string{
	Monday: "Seg", Tuesday: "Ter", Wednesday: "Qua", Thursday: "Qui",
	Friday: "Sex", Saturday: "Sab", Sunday: "Dom",
}

var weekdayAliases = map[string]Weekday{
	"seg": Monday, "monday": Monday, "mon": Monday,
	"ter": Tuesday, "tuesday": Tuesday, "tue": Tuesday,
	"qua": Wednesday, "wednesday": Wednesday, "wed": Wednesday,
	"qui": Thursday, "thursday": Thursday, "thu": Thursday,
	"sex": Friday, "friday": Friday, "fri": Friday,
	"sab": Saturday, "saturday": Saturday, "sat": Saturday,
	"dom": Sunday, "sunday": Sunday, "sun": Sunday,
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u",
	"ç", "c",
)

// AllWeekdays в порядке сортировки правил.
func AllWeekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// WeekdayOf - единственная точка перевода даты в день недели расписания.
func WeekdayOf(t time.Time) Weekday {
	if t.Weekday() == time.Sunday {
		return Sunday
	}
	return Weekday(t.Weekday())
}

func ParseWeekday(s string) (Weekday, error) {
	key := accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	key = strings.TrimSuffix(key, "-feira")
	key = strings.TrimSuffix(key, " feira")

	for w := Monday; w <= Sunday; w++ {
		if weekdayKeys[w] == key {
			return w, nil
		}
	}

	if w, ok := weekdayAliases[key]; ok {
		return w, nil
	}

	return 0, NewValidationError("dia_semana", fmt.Sprintf("dia da semana inválido: %q", s))
}

func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayKeys[w]
}

// Label - короткая подпись для отчетов.
func (w Weekday) Label() string {
	if !w.Valid() {
		return ""
	}
	return weekdayLabels[w]
}

func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("dia da semana inválido: %d", int(w))
	}
	return []byte(w.String()), nil
}

func (w *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// WeekdaySet - набор дней для массовой генерации слотов.
type WeekdaySet map[Weekday]struct{}

func NewWeekdaySet(days ...Weekday) WeekdaySet {
	set := make(WeekdaySet, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}

func (s WeekdaySet) Contains(w Weekday) bool {
	_, ok := s[w]
	return ok
}
