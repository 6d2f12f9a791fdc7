// Package etw models raw trace event records: the header metadata the
// tracing subsystem stamps on every event and the opaque payload region the
// schema-driven decoders consume.
package etw

import (
	"math/bits"

	"github.com/google/uuid"
)

// Event header flags. Values match EVENT_HEADER_FLAG_*.
const (
	FlagExtendedInfo   uint16 = 0x0001
	FlagPrivateSession uint16 = 0x0002
	FlagStringOnly     uint16 = 0x0004
	FlagTraceMessage   uint16 = 0x0008
	FlagNoCPUTime      uint16 = 0x0010
	Flag32BitHeader    uint16 = 0x0020
	Flag64BitHeader    uint16 = 0x0040
	FlagClassicHeader  uint16 = 0x0100
)

// EventDescriptor carries the numeric identity and routing fields of an
// event kind, as recorded in the event header.
type EventDescriptor struct {
	ID      uint16
	Version uint8
	Channel uint8
	Level   uint8
	Opcode  uint8
	Task    uint16
	Keyword uint64
}

// EventHeader is the per-record metadata stamped by the tracing subsystem.
type EventHeader struct {
	Flags      uint16
	ThreadID   uint32
	ProcessID  uint32
	TimeStamp  FileTime
	ProviderID uuid.UUID
	ActivityID uuid.UUID
	Descriptor EventDescriptor
}

// EventRecord is one captured event: header plus the binary payload the
// schema describes. The decoders borrow a record for the duration of one
// decode call and never retain or mutate it.
type EventRecord struct {
	Header   EventHeader
	UserData []byte
}

// EventID returns the numeric id of the event kind.
func (r *EventRecord) EventID() uint16 { return r.Header.Descriptor.ID }

// Version returns the schema version of the event kind.
func (r *EventRecord) Version() uint8 { return r.Header.Descriptor.Version }

// ProviderID returns the GUID of the provider that emitted the event.
func (r *EventRecord) ProviderID() uuid.UUID { return r.Header.ProviderID }

// PointerSize returns the pointer width, in bytes, of the process that
// emitted the event. Pointer-typed fields decode at this width regardless of
// the decoding process's own bitness. When the header carries no bitness
// flag the decoder's native width is assumed, matching native consumers.
func (r *EventRecord) PointerSize() int {
	switch {
	case r.Header.Flags&Flag32BitHeader != 0:
		return 4
	case r.Header.Flags&Flag64BitHeader != 0:
		return 8
	default:
		return bits.UintSize / 8
	}
}
