package etw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileTimeRoundTrip(t *testing.T) {
	want := time.Date(2023, time.August, 17, 9, 26, 39, 500*int(time.Millisecond), time.UTC)
	ft := NewFileTime(want)
	assert.Equal(t, want, ft.Time())
}

func TestFileTimeEpoch(t *testing.T) {
	// Tick zero is the 1601 epoch.
	assert.Equal(t, time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC), FileTime(0).Time())
	// The Unix epoch in ticks.
	assert.Equal(t, time.Unix(0, 0).UTC(), FileTime(116444736000000000).Time())
}

func TestSystemTimeRoundTrip(t *testing.T) {
	want := time.Date(2023, time.August, 17, 9, 26, 39, 123*int(time.Millisecond), time.UTC)
	st := NewSystemTime(want)
	assert.Equal(t, uint16(time.Thursday), st.DayOfWeek)
	assert.Equal(t, want, st.Time())
}

func TestPointerSize(t *testing.T) {
	t.Run("32-bit flag", func(t *testing.T) {
		r := &EventRecord{Header: EventHeader{Flags: Flag32BitHeader}}
		assert.Equal(t, 4, r.PointerSize())
	})
	t.Run("64-bit flag", func(t *testing.T) {
		r := &EventRecord{Header: EventHeader{Flags: Flag64BitHeader}}
		assert.Equal(t, 8, r.PointerSize())
	})
	t.Run("32-bit wins when both set", func(t *testing.T) {
		r := &EventRecord{Header: EventHeader{Flags: Flag32BitHeader | Flag64BitHeader}}
		assert.Equal(t, 4, r.PointerSize())
	})
}
