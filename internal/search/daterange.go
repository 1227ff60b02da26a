package search

import (
	"strings"
	"time"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
)

const dateLayout = "2006-01-02"

// ParseDateRange parses YYYY-MM-DD bounds in loc. Either bound may be empty.
// The end bound covers the whole day.
func ParseDateRange(start, end string, loc *time.Location) (convstore.DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	var dr convstore.DateRange
	if s := strings.TrimSpace(start); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return convstore.DateRange{}, chat.Invalid("invalid start date %q", s)
		}
		dr.Start = t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return convstore.DateRange{}, chat.Invalid("invalid end date %q", s)
		}
		dr.End = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !dr.Start.IsZero() && !dr.End.IsZero() && dr.End.Before(dr.Start) {
		return convstore.DateRange{}, chat.Invalid("end date is before start date")
	}
	return dr, nil
}
