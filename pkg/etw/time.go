package etw

import "time"

// fileTimeEpochDiff is the offset between the FILETIME epoch
// (1601-01-01 UTC) and the Unix epoch, in 100ns intervals.
const fileTimeEpochDiff = 116444736000000000

// FileTime is a 64-bit tick count of 100ns intervals since 1601-01-01 UTC,
// the unit event timestamps are recorded in.
type FileTime int64

// Time converts the tick count to a calendar time in UTC.
func (t FileTime) Time() time.Time {
	return time.Unix(0, (int64(t)-fileTimeEpochDiff)*100).UTC()
}

// NewFileTime converts a calendar time to a FILETIME tick count.
func NewFileTime(t time.Time) FileTime {
	return FileTime(t.UnixNano()/100 + fileTimeEpochDiff)
}

// SystemTime is an already-decomposed calendar time, the second timestamp
// unit the wire supports. Field order matches the 16-byte SYSTEMTIME layout.
type SystemTime struct {
	Year         uint16
	Month        uint16
	DayOfWeek    uint16
	Day          uint16
	Hour         uint16
	Minute       uint16
	Second       uint16
	Milliseconds uint16
}

// Time converts the decomposed fields to a calendar time in UTC. DayOfWeek
// is derived, not trusted.
func (t SystemTime) Time() time.Time {
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
		int(t.Hour), int(t.Minute), int(t.Second),
		int(t.Milliseconds)*int(time.Millisecond), time.UTC)
}

// NewSystemTime decomposes a calendar time into SYSTEMTIME fields.
func NewSystemTime(t time.Time) SystemTime {
	t = t.UTC()
	return SystemTime{
		Year:         uint16(t.Year()),
		Month:        uint16(t.Month()),
		DayOfWeek:    uint16(t.Weekday()),
		Day:          uint16(t.Day()),
		Hour:         uint16(t.Hour()),
		Minute:       uint16(t.Minute()),
		Second:       uint16(t.Second()),
		Milliseconds: uint16(t.Nanosecond() / int(time.Millisecond)),
	}
}
