package logstore

import (
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/stats"
)

// CSVHeader is the first line of every export.
const CSVHeader = "id,timestamp"

// WriteCSV writes the header and one row per entry, oldest first, joined by
// newlines with no trailing newline. Fields need no quoting.
func (s *Store) WriteCSV(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString(CSVHeader)
	for _, e := range s.Chronological() {
		buf.WriteByte('\n')
		buf.WriteString(strconv.FormatInt(e.ID, 10))
		buf.WriteByte(',')
		buf.WriteString(e.Timestamp)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (s *Store) CSV() string {
	var buf bytes.Buffer
	_ = s.WriteCSV(&buf)
	return buf.String()
}

// Stats rolls the current entries up relative to now.
func (s *Store) Stats(windowDays int, now time.Time) models.Stats {
	return stats.Calculate(s.Chronological(), windowDays, now)
}
