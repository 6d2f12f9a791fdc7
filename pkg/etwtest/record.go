package etwtest

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/yairfalse/etwparse/pkg/etw"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// RecordBuilder assembles an event record: header fields plus a
// little-endian payload written value by value in field order.
type RecordBuilder struct {
	header  etw.EventHeader
	payload []byte
}

// NewRecord starts a record with 8-byte pointers and a zero header.
func NewRecord() *RecordBuilder {
	b := &RecordBuilder{}
	b.header.Flags = etw.Flag64BitHeader
	return b
}

// Provider sets the provider GUID.
func (b *RecordBuilder) Provider(id uuid.UUID) *RecordBuilder {
	b.header.ProviderID = id
	return b
}

// Event sets the descriptor's event id and version.
func (b *RecordBuilder) Event(id uint16, version uint8) *RecordBuilder {
	b.header.Descriptor.ID = id
	b.header.Descriptor.Version = version
	return b
}

// Descriptor replaces the whole descriptor.
func (b *RecordBuilder) Descriptor(d etw.EventDescriptor) *RecordBuilder {
	b.header.Descriptor = d
	return b
}

// PointerSize marks the record as originating from a 4- or 8-byte-pointer
// process.
func (b *RecordBuilder) PointerSize(n int) *RecordBuilder {
	b.header.Flags &^= etw.Flag32BitHeader | etw.Flag64BitHeader
	if n == 4 {
		b.header.Flags |= etw.Flag32BitHeader
	} else {
		b.header.Flags |= etw.Flag64BitHeader
	}
	return b
}

// Execution sets the process and thread ids.
func (b *RecordBuilder) Execution(pid, tid uint32) *RecordBuilder {
	b.header.ProcessID, b.header.ThreadID = pid, tid
	return b
}

// TimeStamp sets the header timestamp.
func (b *RecordBuilder) TimeStamp(t time.Time) *RecordBuilder {
	b.header.TimeStamp = etw.NewFileTime(t)
	return b
}

// Activity sets the activity GUID.
func (b *RecordBuilder) Activity(id uuid.UUID) *RecordBuilder {
	b.header.ActivityID = id
	return b
}

// Build returns the assembled record.
func (b *RecordBuilder) Build() *etw.EventRecord {
	return &etw.EventRecord{
		Header:   b.header,
		UserData: append([]byte(nil), b.payload...),
	}
}

func (b *RecordBuilder) append(p ...byte) *RecordBuilder {
	b.payload = append(b.payload, p...)
	return b
}

// Uint8 writes one byte.
func (b *RecordBuilder) Uint8(v uint8) *RecordBuilder { return b.append(v) }

// Int8 writes one signed byte.
func (b *RecordBuilder) Int8(v int8) *RecordBuilder { return b.append(byte(v)) }

// Uint16 writes a little-endian 16-bit value.
func (b *RecordBuilder) Uint16(v uint16) *RecordBuilder {
	return b.append(binary.LittleEndian.AppendUint16(nil, v)...)
}

// Int16 writes a little-endian signed 16-bit value.
func (b *RecordBuilder) Int16(v int16) *RecordBuilder { return b.Uint16(uint16(v)) }

// Uint32 writes a little-endian 32-bit value.
func (b *RecordBuilder) Uint32(v uint32) *RecordBuilder {
	return b.append(binary.LittleEndian.AppendUint32(nil, v)...)
}

// Int32 writes a little-endian signed 32-bit value.
func (b *RecordBuilder) Int32(v int32) *RecordBuilder { return b.Uint32(uint32(v)) }

// Uint64 writes a little-endian 64-bit value.
func (b *RecordBuilder) Uint64(v uint64) *RecordBuilder {
	return b.append(binary.LittleEndian.AppendUint64(nil, v)...)
}

// Int64 writes a little-endian signed 64-bit value.
func (b *RecordBuilder) Int64(v int64) *RecordBuilder { return b.Uint64(uint64(v)) }

// Float32 writes a little-endian IEEE 754 single.
func (b *RecordBuilder) Float32(v float32) *RecordBuilder {
	return b.Uint32(math.Float32bits(v))
}

// Float64 writes a little-endian IEEE 754 double.
func (b *RecordBuilder) Float64(v float64) *RecordBuilder {
	return b.Uint64(math.Float64bits(v))
}

// Bool writes a 4-byte wire boolean.
func (b *RecordBuilder) Bool(v bool) *RecordBuilder {
	if v {
		return b.Uint32(1)
	}
	return b.Uint32(0)
}

// Pointer writes the value at the record's declared pointer width.
func (b *RecordBuilder) Pointer(v uint64) *RecordBuilder {
	if b.header.Flags&etw.Flag32BitHeader != 0 {
		return b.Uint32(uint32(v))
	}
	return b.Uint64(v)
}

// UTF16 writes the string as UTF-16LE without a terminator.
func (b *RecordBuilder) UTF16(s string) *RecordBuilder {
	enc, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return b.append(enc...)
}

// UTF16Z writes the string as UTF-16LE with a null terminator.
func (b *RecordBuilder) UTF16Z(s string) *RecordBuilder {
	return b.UTF16(s).append(0, 0)
}

// ANSI writes the raw bytes of the string without a terminator.
func (b *RecordBuilder) ANSI(s string) *RecordBuilder { return b.append([]byte(s)...) }

// ANSIZ writes the raw bytes of the string with a null terminator.
func (b *RecordBuilder) ANSIZ(s string) *RecordBuilder { return b.ANSI(s).append(0) }

// Bytes writes raw bytes.
func (b *RecordBuilder) Bytes(p []byte) *RecordBuilder { return b.append(p...) }

// GUID writes the identifier in the mixed-endian wire layout.
func (b *RecordBuilder) GUID(u uuid.UUID) *RecordBuilder {
	return b.append(
		u[3], u[2], u[1], u[0],
		u[5], u[4],
		u[7], u[6],
		u[8], u[9], u[10], u[11], u[12], u[13], u[14], u[15],
	)
}

// FileTime writes a FILETIME tick count.
func (b *RecordBuilder) FileTime(t etw.FileTime) *RecordBuilder {
	return b.Uint64(uint64(t))
}

// SystemTime writes the 16-byte SYSTEMTIME layout.
func (b *RecordBuilder) SystemTime(t etw.SystemTime) *RecordBuilder {
	for _, v := range [...]uint16{
		t.Year, t.Month, t.DayOfWeek, t.Day,
		t.Hour, t.Minute, t.Second, t.Milliseconds,
	} {
		b.Uint16(v)
	}
	return b
}
