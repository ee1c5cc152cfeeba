package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned when parsing input that is not a strict
// YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

// CalendarDate 纯日历日期（年月日），不带时间与时区。
// 所有比较和运算只在日历层面进行，避免本地时区造成的 off-by-one。
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a strict YYYY-MM-DD string. Anything else, including
// mixed formats like MM/DD/YY or M-D, is rejected with ErrInvalidDate.
func ParseDate(s string) (CalendarDate, error) {
	if len(s) != len(dateLayout) {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf 把 time.Time 归一化成 CalendarDate。
// 这是整个引擎里唯一允许从时间戳得到日期的入口。
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// Today returns the current calendar date in the given location.
func Today(loc *time.Location) CalendarDate {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero value.
func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d CalendarDate) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1 if d is before o, 0 if equal, 1 if after.
func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(int(d.Month) - int(o.Month))
	default:
		return sign(d.Day - o.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// Before reports whether d is strictly before o.
func (d CalendarDate) Before(o CalendarDate) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly after o.
func (d CalendarDate) After(o CalendarDate) bool { return d.Compare(o) > 0 }

// Equal reports whether d and o are the same calendar day.
func (d CalendarDate) Equal(o CalendarDate) bool { return d.Compare(o) == 0 }

// AddDays returns the date n days after d (n may be negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.time().AddDate(0, 0, n))
}

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d CalendarDate) DaysUntil(o CalendarDate) int {
	return int(o.time().Sub(d.time()).Hours() / 24)
}

// Weekday returns the day of the week d falls on.
func (d CalendarDate) Weekday() time.Weekday {
	return d.time().Weekday()
}

// NextWorkday returns the first Monday-Friday date strictly after d.
func (d CalendarDate) NextWorkday() CalendarDate {
	next := d.AddDays(1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDays(1)
	}
	return next
}

// MarshalJSON encodes d as a "YYYY-MM-DD" string.
func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a strict "YYYY-MM-DD" string.
func (d *CalendarDate) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
