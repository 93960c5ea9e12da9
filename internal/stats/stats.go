// Package stats rolls log entries up into daily, ISO-weekly and monthly
// histograms. Everything here is pure; callers pass the clock and location.
package stats

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/zyntracker/internal/models"
)

const (
	DefaultWindow = 30
	MinWindow     = 1
	MaxWindow     = 365

	day = 24 * time.Hour
)

// ClampWindow limits windowDays to [MinWindow, MaxWindow].
func ClampWindow(windowDays int) int {
	return max(MinWindow, min(windowDays, MaxWindow))
}

// ParseWindow reads a leading, optionally signed, decimal integer from s the
// way a lenient form field would ("14 days" is 14). Input without one yields
// DefaultWindow. The result is clamped.
func ParseWindow(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		if n <= MaxWindow {
			n = n*10 + int(r-'0')
		}
	}
	if digits == 0 {
		return DefaultWindow
	}
	if neg {
		n = -n
	}
	return ClampWindow(n)
}

// counter accumulates counts per key and remembers first-seen order.
type counter struct {
	keys   []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *counter) buckets(cmp func(a, b string) int) []models.Bucket {
	keys := slices.Clone(c.keys)
	slices.SortFunc(keys, cmp)

	out := make([]models.Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.Bucket{Period: k, Count: c.counts[k]})
	}
	return out
}

func compareDays(a, b string) int {
	ta, errA := time.Parse(time.DateOnly, a)
	tb, errB := time.Parse(time.DateOnly, b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return ta.Compare(tb)
}

// Daily counts entries no older than windowDays before now, keyed by
// calendar date in now's location.
func Daily(entries []models.LogEntry, windowDays int, now time.Time) []models.Bucket {
	windowDays = ClampWindow(windowDays)
	cutoff := now.Add(-time.Duration(windowDays) * day)
	loc := now.Location()

	c := newCounter()
	for _, e := range entries {
		t := e.Time()
		if t.Before(cutoff) {
			continue
		}
		c.add(t.In(loc).Format(time.DateOnly))
	}
	return c.buckets(compareDays)
}

// WeekKey returns the ISO week of t's calendar date in loc as "YYYY-WW".
// The year is the ISO week-numbering year, so early January can belong to
// the previous year.
func WeekKey(t time.Time, loc *time.Location) string {
	y, m, d := t.In(loc).Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := date.AddDate(0, 0, 4-weekday)
	week := (thursday.YearDay() + 6) / 7

	return fmt.Sprintf("%04d-%02d", thursday.Year(), week)
}

// Weekly counts every entry by ISO week in loc.
func Weekly(entries []models.LogEntry, loc *time.Location) []models.Bucket {
	c := newCounter()
	for _, e := range entries {
		c.add(WeekKey(e.Time(), loc))
	}
	return c.buckets(strings.Compare)
}

// Monthly counts every entry by calendar month in loc.
func Monthly(entries []models.LogEntry, loc *time.Location) []models.Bucket {
	c := newCounter()
	for _, e := range entries {
		c.add(e.Time().In(loc).Format("2006-01"))
	}
	return c.buckets(strings.Compare)
}

// Calculate builds all three rollups. Weekly and monthly use now's location.
func Calculate(entries []models.LogEntry, windowDays int, now time.Time) models.Stats {
	return models.Stats{
		Daily:   Daily(entries, windowDays, now),
		Weekly:  Weekly(entries, now.Location()),
		Monthly: Monthly(entries, now.Location()),
	}
}
