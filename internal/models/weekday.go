package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Weekday is the canonical, persisted day name of a weekly session.
type Weekday string

const (
	Monday    Weekday = "Lunes"
	Tuesday   Weekday = "Martes"
	Wednesday Weekday = "Miércoles"
	Thursday  Weekday = "Jueves"
	Friday    Weekday = "Viernes"
	Saturday  Weekday = "Sábado"
)

// Weekdays lists the teaching days in calendar order. There is no Sunday.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var weekdayAliases = map[string]Weekday{
	"lunes":     Monday,
	"martes":    Tuesday,
	"miercoles": Wednesday,
	"jueves":    Thursday,
	"viernes":   Friday,
	"sabado":    Saturday,
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"saturday":  Saturday,
}

// ParseWeekday maps any casing of the Spanish day names, with or without
// diacritics, or the English names, to the canonical Weekday.
func ParseWeekday(raw string) (Weekday, bool) {
	day, ok := weekdayAliases[foldName(raw)]
	return day, ok
}

// Valid reports whether w is one of the canonical weekdays.
func (w Weekday) Valid() bool {
	return w.Index() >= 0
}

// Index returns the zero-based position of w in Weekdays, or -1.
func (w Weekday) Index() int {
	for i, day := range Weekdays {
		if day == w {
			return i
		}
	}
	return -1
}

func foldName(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(raw))
	if err != nil {
		folded = strings.TrimSpace(raw)
	}
	return strings.ToLower(folded)
}
