// Package dates resolves the due date expressions users type into absolute dates.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
)

// ErrUnparseable is returned when an expression is neither relative nor a known date layout.
var ErrUnparseable = errors.New("unparseable date")

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var smallNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var inPattern = regexp.MustCompile(`^in\s+(\d+|[a-z]+)\s+(day|days|week|weeks)$`)

// Resolve converts expr to an absolute time using now as the reference.
// Relative expressions resolve to midnight in now's location.
func Resolve(expr string, now time.Time) (time.Time, error) {
	s := normalize(expr)
	if s == "" {
		return time.Time{}, fmt.Errorf("resolve %q: %w", expr, ErrUnparseable)
	}

	today := midnight(now)

	switch s {
	case "today", "tonight":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "day after tomorrow":
		return today.AddDate(0, 0, 2), nil
	case "next week":
		return today.AddDate(0, 0, 7), nil
	}

	if d, ok := resolveWeekday(s, today); ok {
		return d, nil
	}

	if m := inPattern.FindStringSubmatch(s); m != nil {
		n, ok := parseCount(m[1])
		if !ok {
			return time.Time{}, fmt.Errorf("resolve %q: %w", expr, ErrUnparseable)
		}
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		return today.AddDate(0, 0, n), nil
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(expr), now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve %q: %w", expr, ErrUnparseable)
	}
	return t, nil
}

// Format renders t the way due dates are passed to actions.
func Format(t time.Time) string {
	return t.Format(time.RFC3339)
}

// Human renders t for replies, e.g. "Friday, March 15th".
func Human(t time.Time) string {
	return fmt.Sprintf("%s, %s %s", t.Weekday(), t.Month(), humanize.Ordinal(t.Day()))
}

func normalize(expr string) string {
	s := strings.ToLower(strings.TrimSpace(expr))
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimPrefix(s, "by ")
	s = strings.TrimPrefix(s, "on ")
	s = strings.TrimPrefix(s, "the ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveWeekday handles "friday", "this friday" and "next friday". A bare or
// "this" weekday is the soonest such day after today; "next" adds a week.
func resolveWeekday(s string, today time.Time) (time.Time, bool) {
	extra := 0
	switch {
	case strings.HasPrefix(s, "next "):
		s = strings.TrimPrefix(s, "next ")
		extra = 7
	case strings.HasPrefix(s, "this "):
		s = strings.TrimPrefix(s, "this ")
	case strings.HasPrefix(s, "coming "):
		s = strings.TrimPrefix(s, "coming ")
	}
	wd, ok := weekdays[s]
	if !ok {
		return time.Time{}, false
	}
	delta := (int(wd) - int(today.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, delta+extra), true
}

func parseCount(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0
	}
	n, ok := smallNumbers[s]
	return n, ok
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
