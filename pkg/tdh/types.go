// Package tdh models the trace data helper wire types: the schema-declared
// property descriptors of an event kind and the mapping from a declared wire
// type to a concrete decoded representation.
package tdh

import "fmt"

// InType identifies the wire encoding of a property as published by the
// instrumentation source. Values match TDH_INTYPE_*.
type InType uint16

const (
	InTypeNull          InType = 0
	InTypeUnicodeString InType = 1
	InTypeAnsiString    InType = 2
	InTypeInt8          InType = 3
	InTypeUInt8         InType = 4
	InTypeInt16         InType = 5
	InTypeUInt16        InType = 6
	InTypeInt32         InType = 7
	InTypeUInt32        InType = 8
	InTypeInt64         InType = 9
	InTypeUInt64        InType = 10
	InTypeFloat         InType = 11
	InTypeDouble        InType = 12
	InTypeBoolean       InType = 13
	InTypeBinary        InType = 14
	InTypeGUID          InType = 15
	InTypePointer       InType = 16
	InTypeFileTime      InType = 17
	InTypeSystemTime    InType = 18
	InTypeSID           InType = 19
	InTypeHexInt32      InType = 20
	InTypeHexInt64      InType = 21

	InTypeCountedString InType = 300
)

var inTypeNames = map[InType]string{
	InTypeNull:          "Null",
	InTypeUnicodeString: "UnicodeString",
	InTypeAnsiString:    "AnsiString",
	InTypeInt8:          "Int8",
	InTypeUInt8:         "UInt8",
	InTypeInt16:         "Int16",
	InTypeUInt16:        "UInt16",
	InTypeInt32:         "Int32",
	InTypeUInt32:        "UInt32",
	InTypeInt64:         "Int64",
	InTypeUInt64:        "UInt64",
	InTypeFloat:         "Float",
	InTypeDouble:        "Double",
	InTypeBoolean:       "Boolean",
	InTypeBinary:        "Binary",
	InTypeGUID:          "Guid",
	InTypePointer:       "Pointer",
	InTypeFileTime:      "FileTime",
	InTypeSystemTime:    "SystemTime",
	InTypeSID:           "Sid",
	InTypeHexInt32:      "HexInt32",
	InTypeHexInt64:      "HexInt64",
	InTypeCountedString: "CountedString",
}

// Known reports whether t is one of the in-types this package understands.
// An unknown value in a schema handle is a schema parse failure, not a
// decoding gap.
func (t InType) Known() bool {
	_, ok := inTypeNames[t]
	return ok
}

func (t InType) String() string {
	if s, ok := inTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("InType(%d)", uint16(t))
}

// OutType is the optional semantic refinement of a property, published
// alongside the in-type. Values match TDH_OUTTYPE_*. Most out-types are
// display hints the decoder does not preserve; only the address refinements
// change the decoded representation.
type OutType uint16

const (
	OutTypeNull      OutType = 0
	OutTypeString    OutType = 1
	OutTypeDateTime  OutType = 2
	OutTypeByte      OutType = 3
	OutTypeHexBinary OutType = 15
	OutTypeHexInt32  OutType = 18
	OutTypeHexInt64  OutType = 19
	OutTypePID       OutType = 20
	OutTypeTID       OutType = 21
	OutTypePort      OutType = 22
	OutTypeIPv4      OutType = 23
	OutTypeIPv6      OutType = 24
)

func (t OutType) String() string {
	switch t {
	case OutTypeNull:
		return "Null"
	case OutTypeString:
		return "String"
	case OutTypeDateTime:
		return "DateTime"
	case OutTypeByte:
		return "Byte"
	case OutTypeHexBinary:
		return "HexBinary"
	case OutTypeHexInt32:
		return "HexInt32"
	case OutTypeHexInt64:
		return "HexInt64"
	case OutTypePID:
		return "Pid"
	case OutTypeTID:
		return "Tid"
	case OutTypePort:
		return "Port"
	case OutTypeIPv4:
		return "Ipv4"
	case OutTypeIPv6:
		return "Ipv6"
	}
	return fmt.Sprintf("OutType(%d)", uint16(t))
}

// DecodingSource identifies which native mechanism produced the schema for an
// event kind. Informational only; it does not affect decoding.
type DecodingSource uint8

const (
	DecodingSourceNone DecodingSource = iota
	DecodingSourceXMLFile
	DecodingSourceWbem
	DecodingSourceWPP
)

func (d DecodingSource) String() string {
	switch d {
	case DecodingSourceXMLFile:
		return "XMLFile"
	case DecodingSourceWbem:
		return "Wbem"
	case DecodingSourceWPP:
		return "WPP"
	}
	return "None"
}

// PropertyKind distinguishes scalar properties from arrays.
type PropertyKind uint8

const (
	KindScalar PropertyKind = iota
	KindArray
)

// LengthKind tells how a property's byte (or character) length is obtained.
type LengthKind uint8

const (
	// LengthFixed means Length.Value is the declared length itself. A fixed
	// length of zero means variable length (null-terminated for strings).
	LengthFixed LengthKind = iota
	// LengthFromField means Length.Value is the index of an earlier property
	// in the same record whose runtime value carries the length.
	LengthFromField
)

// PropertyLength is the declared length of a property, either a constant or
// an indirection through another field of the same record.
type PropertyLength struct {
	Kind  LengthKind
	Value uint16
}

// CountKind tells how an array property's element count is obtained.
type CountKind uint8

const (
	CountFixed CountKind = iota
	// CountFromField means Count.Value is the index of an earlier property
	// whose runtime value carries the element count.
	CountFromField
)

// PropertyCount is the element count of an array property.
type PropertyCount struct {
	Kind  CountKind
	Value uint16
}

// PropertyInfo carries the wire typing of one property.
type PropertyInfo struct {
	Kind    PropertyKind
	InType  InType
	OutType OutType
	Length  PropertyLength
	// Count is meaningful only when Kind is KindArray.
	Count PropertyCount
}

// Property describes one field of an event kind: its name and wire typing.
// Properties are immutable once constructed and never outlive the schema
// that produced them. Names are unique within one event kind's list but not
// globally; lookup is by first match in declared order.
type Property struct {
	Name string
	Info PropertyInfo
}

// PropertyError reports that a schema handle declared a property with a wire
// type this package has never seen. It is memoized by the owning schema.
type PropertyError struct {
	Name      string
	RawInType uint16
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("property %q: unrecognized in-type %d", e.Name, e.RawInType)
}
