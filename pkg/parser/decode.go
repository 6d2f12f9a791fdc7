package parser

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/yairfalse/etwparse/pkg/etw"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

// decodeValue converts the field's bytes to the strategy's representation.
// The span has already been bounds-checked against the payload.
func (p *Parser) decodeValue(strat tdh.Strategy, prop tdh.Property, sp span) (any, error) {
	data := p.record.UserData[sp.offset : sp.offset+sp.size]

	switch strat {
	case tdh.StrategyNull:
		return nil, nil
	case tdh.StrategyBool:
		// Wire booleans are 4-byte BOOL values.
		return binary.LittleEndian.Uint32(data) != 0, nil
	case tdh.StrategyInt8:
		return int8(data[0]), nil
	case tdh.StrategyUInt8:
		return data[0], nil
	case tdh.StrategyInt16:
		return int16(binary.LittleEndian.Uint16(data)), nil
	case tdh.StrategyUInt16:
		return binary.LittleEndian.Uint16(data), nil
	case tdh.StrategyInt32:
		return int32(binary.LittleEndian.Uint32(data)), nil
	case tdh.StrategyUInt32:
		return binary.LittleEndian.Uint32(data), nil
	case tdh.StrategyInt64:
		return int64(binary.LittleEndian.Uint64(data)), nil
	case tdh.StrategyUInt64:
		return binary.LittleEndian.Uint64(data), nil
	case tdh.StrategyPointer:
		if p.record.PointerSize() == 4 {
			return binary.LittleEndian.Uint32(data), nil
		}
		return binary.LittleEndian.Uint64(data), nil
	case tdh.StrategyFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
	case tdh.StrategyFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
	case tdh.StrategyString:
		return p.decodeString(prop, data)
	case tdh.StrategyBinary:
		return bytes.Clone(data), nil
	case tdh.StrategyFileTime:
		return etw.FileTime(binary.LittleEndian.Uint64(data)), nil
	case tdh.StrategySystemTime:
		return decodeSystemTime(data), nil
	case tdh.StrategyGUID:
		return guidFromWire(data), nil
	case tdh.StrategyIPAddr:
		return decodeIP(prop.Info.OutType, data)
	case tdh.StrategyInt8Array:
		out := make([]int8, sp.count)
		for i := range out {
			out[i] = int8(data[i])
		}
		return out, nil
	case tdh.StrategyUInt8Array:
		return bytes.Clone(data), nil
	case tdh.StrategyInt16Array:
		out := make([]int16, sp.count)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
		return out, nil
	case tdh.StrategyUInt16Array:
		out := make([]uint16, sp.count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
		return out, nil
	case tdh.StrategyInt32Array:
		out := make([]int32, sp.count)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return out, nil
	case tdh.StrategyUInt32Array:
		out := make([]uint32, sp.count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
		return out, nil
	case tdh.StrategyInt64Array:
		out := make([]int64, sp.count)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return out, nil
	case tdh.StrategyUInt64Array:
		out := make([]uint64, sp.count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(data[i*8:])
		}
		return out, nil
	case tdh.StrategyPointerArray:
		if p.record.PointerSize() == 4 {
			out := make([]uint32, sp.count)
			for i := range out {
				out[i] = binary.LittleEndian.Uint32(data[i*4:])
			}
			return out, nil
		}
		out := make([]uint64, sp.count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(data[i*8:])
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: field %q strategy %s", ErrUnimplemented, prop.Name, strat)
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func (p *Parser) decodeString(prop tdh.Property, data []byte) (string, error) {
	switch prop.Info.InType {
	case tdh.InTypeUnicodeString:
		out, err := utf16le.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: field %q: %v", ErrMalformed, prop.Name, err)
		}
		return strings.TrimRight(string(out), "\x00"), nil
	case tdh.InTypeAnsiString:
		if i := bytes.IndexByte(data, 0); i >= 0 {
			data = data[:i]
		}
		return string(data), nil
	case tdh.InTypeSID:
		return formatSID(prop.Name, data)
	}
	return "", fmt.Errorf("%w: field %q strategy String for in-type %s",
		ErrUnimplemented, prop.Name, prop.Info.InType)
}

func decodeSystemTime(data []byte) etw.SystemTime {
	u16 := func(i int) uint16 { return binary.LittleEndian.Uint16(data[i*2:]) }
	return etw.SystemTime{
		Year:         u16(0),
		Month:        u16(1),
		DayOfWeek:    u16(2),
		Day:          u16(3),
		Hour:         u16(4),
		Minute:       u16(5),
		Second:       u16(6),
		Milliseconds: u16(7),
	}
}

// guidFromWire converts the mixed-endian wire layout (three little-endian
// groups followed by eight raw bytes) to the canonical big-endian form.
func guidFromWire(b []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return u
}

func decodeIP(out tdh.OutType, data []byte) (net.IP, error) {
	switch {
	case out == tdh.OutTypeIPv6 || len(data) == 16:
		return net.IP(bytes.Clone(data)), nil
	case len(data) == 4:
		return net.IPv4(data[0], data[1], data[2], data[3]), nil
	}
	return nil, fmt.Errorf("%w: %d bytes for an IP address field", ErrMalformed, len(data))
}

// formatSID renders a security identifier in the S-R-I-S... string form:
// revision, big-endian 48-bit identifier authority, then little-endian
// 32-bit sub-authorities.
func formatSID(name string, b []byte) (string, error) {
	if len(b) < 8 {
		return "", fmt.Errorf("%w: field %q: SID shorter than its 8-byte header", ErrMalformed, name)
	}
	subAuthCount := int(b[1])
	if len(b) < 8+4*subAuthCount {
		return "", fmt.Errorf("%w: field %q: SID declares %d sub-authorities, %d bytes available",
			ErrMalformed, name, subAuthCount, len(b))
	}

	var auth uint64
	for _, byt := range b[2:8] {
		auth = auth<<8 | uint64(byt)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "S-%d-%d", b[0], auth)
	for i := 0; i < subAuthCount; i++ {
		fmt.Fprintf(&sb, "-%d", binary.LittleEndian.Uint32(b[8+4*i:]))
	}
	return sb.String(), nil
}
