package parser

import (
	"encoding/binary"
	"fmt"

	"github.com/yairfalse/etwparse/pkg/tdh"
)

// span is a field's resolved position within the payload: its byte offset,
// total byte size, element count (1 for scalars) and per-element size.
type span struct {
	offset int
	size   int
	count  int
	elem   int
}

// locate walks the property list in declared order, accumulating each
// field's byte size, until it reaches the target index. Field sizes may
// depend on the runtime values of earlier fields (length and count
// indicators), so the walk records every visited field's offset.
func (p *Parser) locate(props []tdh.Property, target int) (span, error) {
	data := p.record.UserData
	offsets := make([]int, target+1)

	off := 0
	for i := 0; i <= target; i++ {
		offsets[i] = off
		sp, err := p.measure(props, i, offsets)
		if err != nil {
			return span{}, err
		}
		if off+sp.size > len(data) {
			return span{}, fmt.Errorf("%w: field %q needs %d bytes at offset %d, buffer has %d",
				ErrMalformed, props[i].Name, sp.size, off, len(data))
		}
		if i == target {
			sp.offset = off
			return sp, nil
		}
		off += sp.size
	}
	// The caller guarantees target is a valid index.
	return span{}, fmt.Errorf("%w: property index %d out of range", ErrMalformed, target)
}

// measure determines the byte size of the property at index i, given the
// offsets of all earlier properties.
func (p *Parser) measure(props []tdh.Property, i int, offsets []int) (span, error) {
	info := props[i].Info

	if info.Kind == tdh.KindArray {
		count := int(info.Count.Value)
		if info.Count.Kind == tdh.CountFromField {
			v, err := p.fieldInt(props, int(info.Count.Value), i, offsets)
			if err != nil {
				return span{}, err
			}
			count = v
		}
		elem, ok := fixedSize(info.InType, p.record.PointerSize())
		if !ok {
			return span{}, fmt.Errorf("%w: field %q: array of %s has no fixed element size",
				ErrMalformed, props[i].Name, info.InType)
		}
		return span{size: elem * count, count: count, elem: elem}, nil
	}

	if elem, ok := fixedSize(info.InType, p.record.PointerSize()); ok {
		return span{size: elem, count: 1, elem: elem}, nil
	}

	off := offsets[i]
	switch info.InType {
	case tdh.InTypeUnicodeString:
		length, err := p.declaredLength(props, i, offsets)
		if err != nil {
			return span{}, err
		}
		if length > 0 {
			// Declared length counts UTF-16 code units, not bytes.
			return span{size: 2 * length, count: 1}, nil
		}
		size, err := p.utf16Size(off)
		if err != nil {
			return span{}, err
		}
		return span{size: size, count: 1}, nil

	case tdh.InTypeAnsiString:
		length, err := p.declaredLength(props, i, offsets)
		if err != nil {
			return span{}, err
		}
		if length > 0 {
			return span{size: length, count: 1}, nil
		}
		return span{size: p.ansiSize(off), count: 1}, nil

	case tdh.InTypeBinary:
		length, err := p.declaredLength(props, i, offsets)
		if err != nil {
			return span{}, err
		}
		if length == 0 && info.OutType == tdh.OutTypeIPv6 {
			// Providers declare IPv6 addresses as zero-length binary.
			return span{size: 16, count: 1}, nil
		}
		return span{size: length, count: 1}, nil

	case tdh.InTypeSID:
		return p.sidSize(props[i].Name, off)

	case tdh.InTypeCountedString:
		// Two-byte little-endian length prefix, counted in bytes.
		data := p.record.UserData
		if off+2 > len(data) {
			return span{}, fmt.Errorf("%w: field %q: counted string prefix at offset %d past buffer end",
				ErrMalformed, props[i].Name, off)
		}
		return span{size: 2 + int(binary.LittleEndian.Uint16(data[off:])), count: 1}, nil
	}

	return span{}, fmt.Errorf("%w: field %q: cannot determine size of %s",
		ErrMalformed, props[i].Name, info.InType)
}

// fixedSize returns the byte size of in-types whose size does not depend on
// payload contents.
func fixedSize(t tdh.InType, ptrSize int) (int, bool) {
	switch t {
	case tdh.InTypeNull:
		return 0, true
	case tdh.InTypeInt8, tdh.InTypeUInt8:
		return 1, true
	case tdh.InTypeInt16, tdh.InTypeUInt16:
		return 2, true
	case tdh.InTypeInt32, tdh.InTypeUInt32, tdh.InTypeHexInt32, tdh.InTypeFloat, tdh.InTypeBoolean:
		return 4, true
	case tdh.InTypeInt64, tdh.InTypeUInt64, tdh.InTypeHexInt64, tdh.InTypeDouble, tdh.InTypeFileTime:
		return 8, true
	case tdh.InTypePointer:
		return ptrSize, true
	case tdh.InTypeGUID, tdh.InTypeSystemTime:
		return 16, true
	}
	return 0, false
}

// declaredLength resolves a property's declared length, following the
// indirection through an earlier field when the schema says so.
func (p *Parser) declaredLength(props []tdh.Property, i int, offsets []int) (int, error) {
	info := props[i].Info
	if info.Length.Kind == tdh.LengthFromField {
		return p.fieldInt(props, int(info.Length.Value), i, offsets)
	}
	return int(info.Length.Value), nil
}

// fieldInt reads the runtime integer value of the property at index ref,
// used as a length or count for the property at index cur. Only scalar
// integer fields that precede cur are valid indicators.
func (p *Parser) fieldInt(props []tdh.Property, ref, cur int, offsets []int) (int, error) {
	if ref >= cur {
		return 0, fmt.Errorf("%w: field %q: length indicator index %d does not precede it",
			ErrMalformed, props[cur].Name, ref)
	}
	info := props[ref].Info
	if info.Kind != tdh.KindScalar {
		return 0, fmt.Errorf("%w: field %q: length indicator %q is not a scalar integer",
			ErrMalformed, props[cur].Name, props[ref].Name)
	}

	data := p.record.UserData
	off := offsets[ref]
	switch info.InType {
	case tdh.InTypeInt8, tdh.InTypeUInt8:
		if off+1 > len(data) {
			break
		}
		return int(data[off]), nil
	case tdh.InTypeInt16, tdh.InTypeUInt16:
		if off+2 > len(data) {
			break
		}
		return int(binary.LittleEndian.Uint16(data[off:])), nil
	case tdh.InTypeInt32, tdh.InTypeUInt32, tdh.InTypeHexInt32:
		if off+4 > len(data) {
			break
		}
		return int(binary.LittleEndian.Uint32(data[off:])), nil
	default:
		return 0, fmt.Errorf("%w: field %q: length indicator %q is not a scalar integer",
			ErrMalformed, props[cur].Name, props[ref].Name)
	}
	return 0, fmt.Errorf("%w: field %q: length indicator %q extends past buffer end",
		ErrMalformed, props[cur].Name, props[ref].Name)
}

// utf16Size scans for the UTF-16 null terminator, returning the byte size
// including it. A string running to the end of the buffer without a
// terminator is accepted; native decoders do the same for trailing fields.
func (p *Parser) utf16Size(off int) (int, error) {
	data := p.record.UserData
	for i := off; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			return i + 2 - off, nil
		}
	}
	size := len(data) - off
	if size%2 != 0 {
		return 0, fmt.Errorf("%w: odd-length unicode string at offset %d", ErrMalformed, off)
	}
	return size, nil
}

// ansiSize scans for the null terminator, returning the byte size including
// it, or the remaining buffer when unterminated.
func (p *Parser) ansiSize(off int) int {
	data := p.record.UserData
	for i := off; i < len(data); i++ {
		if data[i] == 0 {
			return i + 1 - off
		}
	}
	return len(data) - off
}

// sidSize reads the sub-authority count from the SID header to size the
// structure: an 8-byte header plus four bytes per sub-authority.
func (p *Parser) sidSize(name string, off int) (span, error) {
	data := p.record.UserData
	if off+8 > len(data) {
		return span{}, fmt.Errorf("%w: field %q: SID header at offset %d past buffer end",
			ErrMalformed, name, off)
	}
	subAuthCount := int(data[off+1])
	return span{size: 8 + 4*subAuthCount, count: 1}, nil
}
