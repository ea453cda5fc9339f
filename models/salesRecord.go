package models

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// SalesRecord is one normalized order line. Records are never patched after
// normalization; a reload replaces the whole slice.
type SalesRecord struct {
	ID          string  `json:"id"`
	AccountID   string  `json:"accountId"`
	ItemID      string  `json:"itemId"`
	ListingID   string  `json:"listingId"`
	Amount      float64 `json:"amount"`
	Quantity    int     `json:"quantity"`
	Date        string  `json:"date"`
	AccountName string  `json:"accountName"`
}

// RawRow is one upstream spreadsheet row keyed by header name.
type RawRow map[string]string

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Granularities is ordered by mode index.
var Granularities = []Granularity{GranularityDay, GranularityWeek, GranularityMonth}

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case GranularityDay:
		return GranularityDay, nil
	case GranularityWeek:
		return GranularityWeek, nil
	case GranularityMonth:
		return GranularityMonth, nil
	default:
		return "", errors.New("mode must be one of day, week, month")
	}
}

// GranularityIndex returns the mode index (day 0, week 1, month 2), or -1.
func GranularityIndex(g Granularity) int {
	for i, v := range Granularities {
		if v == g {
			return i
		}
	}
	return -1
}

func GranularityAt(i int) Granularity {
	if i < 0 || i >= len(Granularities) {
		return GranularityDay
	}
	return Granularities[i]
}

// ParseRecordDate parses a calendar date in UTC. Datetime forms are reduced to their date part.
func ParseRecordDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(DateLayout) {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateRange is an inclusive pair of YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: FormatDate(start), End: FormatDate(end)}
}

// ParseDateRange validates both ends and their order.
func ParseDateRange(start, end string) (DateRange, error) {
	s, ok := ParseRecordDate(start)
	if !ok {
		return DateRange{}, errors.New("invalid start date")
	}
	e, ok := ParseRecordDate(end)
	if !ok {
		return DateRange{}, errors.New("invalid end date")
	}
	if e.Before(s) {
		return DateRange{}, errors.New("end date is before start date")
	}
	return NewDateRange(s, e), nil
}

// Bounds returns the parsed start and end; ok is false when either end is unparsable.
func (r DateRange) Bounds() (start time.Time, end time.Time, ok bool) {
	start, okStart := ParseRecordDate(r.Start)
	end, okEnd := ParseRecordDate(r.End)
	return start, end, okStart && okEnd
}

// Contains reports whether date falls within the inclusive range.
func (r DateRange) Contains(date string) bool {
	t, ok := ParseRecordDate(date)
	if !ok {
		return false
	}
	start, end, ok := r.Bounds()
	if !ok {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

// Days is the inclusive length of the range, 0 when invalid.
func (r DateRange) Days() int {
	start, end, ok := r.Bounds()
	if !ok || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// LastNDays is the default custom range: from n days before today through today.
func LastNDays(today time.Time, n int) DateRange {
	y, m, d := today.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if n < 0 {
		n = 0
	}
	return NewDateRange(end.AddDate(0, 0, -n), end)
}
