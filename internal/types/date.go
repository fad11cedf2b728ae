package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Date is a calendar date with optional month and day.
//
// Tag standards store dates at different precisions (a bare year in ID3v1
// and xid6, full dates in ID3v2.4), so the zero Month or Day means
// "not recorded" rather than January or the first.
type Date struct {
	Year  int
	Month int
	Day   int
}

// IsZero reports whether no year is recorded.
func (d Date) IsZero() bool {
	return d.Year == 0
}

// String formats the date at its recorded precision: "2006", "2006-01" or "2006-01-02".
func (d Date) String() string {
	switch {
	case d.Year == 0:
		return ""
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// ParseDate accepts "YYYY", "YYYY-MM", "YYYY-MM-DD" (optionally followed by a
// time), "YYYYMMDD" and "MM/DD/YYYY".
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}

	bad := func() (Date, error) {
		return Date{}, fmt.Errorf("%w: unrecognized date %q", ErrInvalidUpdate, s)
	}

	var parts []string
	switch {
	case strings.Count(s, "/") == 2:
		p := strings.Split(s, "/")
		parts = []string{p[2], p[0], p[1]}
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
	case len(s) == 8:
		parts = []string{s[:4], s[4:6], s[6:]}
	default:
		parts = []string{s}
	}
	if len(parts) > 3 {
		return bad()
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return bad()
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Year <= 0 || d.Year > 9999 || d.Month < 0 || d.Month > 12 || d.Day < 0 || d.Day > 31 {
		return bad()
	}
	if d.Month == 0 {
		d.Day = 0
	}
	return d, nil
}
