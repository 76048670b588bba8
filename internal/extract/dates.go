package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var leadingDate = regexp.MustCompile(`^\s*(\d{4})-(\d{2})-(\d{2})`)

// ParseTimestamp parses a machine-readable timestamp and returns its calendar
// date in loc. Timestamps without a zone are read as UTC.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return CalendarDate(t, loc), true
	}

	// Иногда после даты идет мусор, который парсер не переваривает
	m := leadingDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	return dateFromParts(m[1], m[2], m[3], loc)
}

// CalendarDate truncates t to midnight of its day in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

var ukrainianMonths = map[string]time.Month{
	"січня":     time.January,
	"лютого":    time.February,
	"березня":   time.March,
	"квітня":    time.April,
	"травня":    time.May,
	"червня":    time.June,
	"липня":     time.July,
	"серпня":    time.August,
	"вересня":   time.September,
	"жовтня":    time.October,
	"листопада": time.November,
	"грудня":    time.December,
}

// ParseUkrainianDate parses dates like "27 жовтня, 12:30" or "27 жовтня 2024".
// When the year is missing the current one is used, and a date that would
// land in the future is moved to the previous year.
func ParseUkrainianDate(s string, now time.Time) (time.Time, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}

	fields := strings.Fields(s)
	if len(fields) < 2 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, false
	}
	month, ok := ukrainianMonths[fields[1]]
	if !ok {
		return time.Time{}, false
	}

	loc := now.Location()
	if len(fields) > 2 {
		if year, err := strconv.Atoi(strings.TrimSuffix(fields[2], "р.")); err == nil && year > 1900 {
			return validDate(year, month, day, loc)
		}
	}

	d, ok := validDate(now.Year(), month, day, loc)
	if !ok {
		return time.Time{}, false
	}
	if d.After(CalendarDate(now, loc)) {
		return validDate(now.Year()-1, month, day, loc)
	}

	return d, true
}

func dateFromParts(y, m, d string, loc *time.Location) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 {
		return time.Time{}, false
	}

	return validDate(year, time.Month(month), day, loc)
}

// Отсекаем даты вроде 31 февраля, которые time.Date молча нормализует
func validDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
