// Package models defines the log entry, sync configuration and statistics
// types shared by the store, the remote clients and the outer surfaces.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/zyntracker/internal/common"
)

// TimestampLayout is the canonical stored form of a timestamp: UTC with
// millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// LogEntry is a single tracked event.
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
}

// Time returns the entry instant. Entries are normalized before storage, so
// the parse only fails for values built by hand.
func (e LogEntry) Time() time.Time {
	t, _ := time.Parse(time.RFC3339, e.Timestamp)
	return t
}

// localLayouts are interpreted in the local time zone, like a
// datetime-local input value.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp parses a user or persisted timestamp into an instant.
// Date-only values are taken as UTC midnight.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, common.ErrInvalidTimestamp
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidTimestamp, s)
}

// FormatTimestamp renders t in the canonical stored form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NormalizeTimestamp parses s and renders it in the canonical stored form.
func NormalizeTimestamp(s string) (string, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t), nil
}

// rawEntry keeps the fields undecoded so that numeric strings and epoch
// milliseconds survive sanitization.
type rawEntry struct {
	ID        json.RawMessage `json:"id"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Sanitize validates one persisted element. It reports false when the id is
// not a finite integer or the timestamp does not parse.
func Sanitize(raw json.RawMessage) (LogEntry, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || raw[0] != '{' {
		return LogEntry{}, false
	}

	var re rawEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return LogEntry{}, false
	}

	id, ok := sanitizeID(re.ID)
	if !ok {
		return LogEntry{}, false
	}
	ts, ok := sanitizeTimestamp(re.Timestamp)
	if !ok {
		return LogEntry{}, false
	}
	return LogEntry{ID: id, Timestamp: ts}, true
}

const (
	// 2^63; float64 cannot hold math.MaxInt64 exactly.
	maxIDBound = 9223372036854775808.0
	// Largest epoch offset a JavaScript Date accepts.
	maxEpochMillis = 8.64e15
)

func sanitizeID(raw json.RawMessage) (int64, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= maxIDBound || f < -maxIDBound {
		return 0, false
	}
	return int64(f), true
}

func sanitizeTimestamp(raw json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}

	switch x := v.(type) {
	case string:
		ts, err := NormalizeTimestamp(x)
		if err != nil {
			return "", false
		}
		return ts, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > maxEpochMillis {
			return "", false
		}
		ts := FormatTimestamp(time.UnixMilli(int64(x)))
		if _, err := ParseTimestamp(ts); err != nil {
			return "", false
		}
		return ts, true
	}
	return "", false
}

// DecodeEntries decodes a JSON array of entries, silently dropping elements
// that fail Sanitize. It fails only when data is not a JSON array.
func DecodeEntries(data []byte) ([]LogEntry, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("logs document is not a JSON array: %w", err)
	}
	if raws == nil {
		return nil, fmt.Errorf("logs document is not a JSON array")
	}

	entries := make([]LogEntry, 0, len(raws))
	for _, raw := range raws {
		if e, ok := Sanitize(raw); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// EncodeEntries renders entries the way they are stored remotely: an
// indented JSON array followed by a newline.
func EncodeEntries(entries []LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []LogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// MaxID returns the largest id in entries, or 0 for an empty list.
func MaxID(entries []LogEntry) int64 {
	var max int64
	for _, e := range entries {
		if e.ID > max {
			max = e.ID
		}
	}
	return max
}

// SortedDesc returns a copy of entries ordered newest first.
func SortedDesc(entries []LogEntry) []LogEntry {
	out := cloneEntries(entries)
	// canonical timestamps compare correctly as strings
	slices.SortStableFunc(out, func(a, b LogEntry) int {
		return strings.Compare(b.Timestamp, a.Timestamp)
	})
	return out
}

// SortedAsc returns a copy of entries ordered oldest first.
func SortedAsc(entries []LogEntry) []LogEntry {
	out := cloneEntries(entries)
	slices.SortStableFunc(out, func(a, b LogEntry) int {
		return strings.Compare(a.Timestamp, b.Timestamp)
	})
	return out
}

func cloneEntries(entries []LogEntry) []LogEntry {
	out := make([]LogEntry, len(entries))
	copy(out, entries)
	return out
}
