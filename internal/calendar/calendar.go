package calendar

import (
	"strings"
	"time"
)

// JST is Japan Standard Time. Japan has no DST, so a fixed offset is exact.
var JST = time.FixedZone("JST", 9*60*60)

var Weekdays = []string{"日", "月", "火", "水", "木", "金", "土"}

const dateLayout = "2006-01-02"

// ParseTimestamp parses a backend timestamp. Values without a zone are UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !hasZone(value) {
		value += "Z"
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02T15:04:05.999999999Z07:00", strings.Replace(value, " ", "T", 1))
}

func hasZone(value string) bool {
	if strings.HasSuffix(value, "Z") || strings.Contains(value, "+") {
		return true
	}
	// A -hh:mm offset after the date, whichever separator precedes the time.
	if len(value) > len(dateLayout) {
		return strings.Contains(value[len(dateLayout):], "-")
	}
	return false
}

// DateKey returns the JST calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.In(JST).Format(dateLayout)
}

// TimestampDateKey is DateKey for a raw backend timestamp. Unparseable input
// yields an empty key.
func TimestampDateKey(value string) string {
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return ""
	}
	return DateKey(parsed)
}

// FormatJST renders a backend timestamp for display in JST.
func FormatJST(value string) string {
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return value
	}
	return parsed.In(JST).Format("2006/01/02 15:04")
}

// Today is the current JST date key.
func Today(now time.Time) string {
	return DateKey(now)
}

// ValidDate reports whether value is a YYYY-MM-DD date.
func ValidDate(value string) bool {
	_, err := time.ParseInLocation(dateLayout, value, JST)
	return err == nil
}

// BucketByDate groups items by the JST date of their timestamp. Items whose
// timestamp cannot be parsed are dropped.
func BucketByDate[T any](items []T, timestamp func(T) string) map[string][]T {
	buckets := make(map[string][]T)
	for _, item := range items {
		key := TimestampDateKey(timestamp(item))
		if key == "" {
			continue
		}
		buckets[key] = append(buckets[key], item)
	}
	return buckets
}

type Day struct {
	Date     string
	Day      int
	Count    int
	Today    bool
	Selected bool
}

// Grid is a Sunday-first month view. Padding holds the blank cells before
// the 1st.
type Grid struct {
	Year    int
	Month   int
	Label   string
	Padding int
	Days    []Day
}

func (g Grid) PaddingCells() []struct{} {
	return make([]struct{}, g.Padding)
}

// Month builds the grid for year/month with per-date counts.
func Month(year, month int, counts map[string]int, today, selected string) Grid {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, JST)
	year, month = first.Year(), int(first.Month())
	last := first.AddDate(0, 1, -1).Day()

	grid := Grid{
		Year:    year,
		Month:   month,
		Label:   first.Format("2006年1月"),
		Padding: int(first.Weekday()),
		Days:    make([]Day, 0, last),
	}
	for d := 1; d <= last; d++ {
		key := time.Date(year, time.Month(month), d, 0, 0, 0, 0, JST).Format(dateLayout)
		grid.Days = append(grid.Days, Day{
			Date:     key,
			Day:      d,
			Count:    counts[key],
			Today:    key == today,
			Selected: key == selected,
		})
	}
	return grid
}

// Shift moves year/month by delta months.
func Shift(year, month, delta int) (int, int) {
	t := time.Date(year, time.Month(month)+time.Month(delta), 1, 0, 0, 0, 0, JST)
	return t.Year(), int(t.Month())
}

// Counts turns buckets into per-date counts.
func Counts[T any](buckets map[string][]T) map[string]int {
	out := make(map[string]int, len(buckets))
	for key, items := range buckets {
		out[key] = len(items)
	}
	return out
}
