package tdh

// Strategy is the concrete in-memory representation a property decodes to.
// The set is closed: the wire publishes a small, stable collection of
// primitives, so a flat table suffices and no per-event heuristics exist.
type Strategy uint8

const (
	// StrategyNone means no decoding strategy exists for the wire-type
	// combination. This is a recognized, enumerable gap (counted strings,
	// arrays of variable-length elements), not a corrupt-schema signal.
	StrategyNone Strategy = iota
	StrategyNull
	StrategyBool
	StrategyInt8
	StrategyUInt8
	StrategyInt16
	StrategyUInt16
	StrategyInt32
	StrategyUInt32
	StrategyInt64
	StrategyUInt64
	// StrategyPointer decodes as a 32-bit or 64-bit unsigned integer
	// depending on the originating event's recorded process bitness.
	StrategyPointer
	StrategyFloat32
	StrategyFloat64
	StrategyString
	StrategyBinary
	StrategyFileTime
	StrategySystemTime
	StrategyGUID
	StrategyIPAddr
	StrategyInt8Array
	StrategyUInt8Array
	StrategyInt16Array
	StrategyUInt16Array
	StrategyInt32Array
	StrategyUInt32Array
	StrategyInt64Array
	StrategyUInt64Array
	StrategyPointerArray
)

var strategyNames = [...]string{
	StrategyNone:         "None",
	StrategyNull:         "Null",
	StrategyBool:         "Bool",
	StrategyInt8:         "Int8",
	StrategyUInt8:        "UInt8",
	StrategyInt16:        "Int16",
	StrategyUInt16:       "UInt16",
	StrategyInt32:        "Int32",
	StrategyUInt32:       "UInt32",
	StrategyInt64:        "Int64",
	StrategyUInt64:       "UInt64",
	StrategyPointer:      "Pointer",
	StrategyFloat32:      "Float32",
	StrategyFloat64:      "Float64",
	StrategyString:       "String",
	StrategyBinary:       "Binary",
	StrategyFileTime:     "FileTime",
	StrategySystemTime:   "SystemTime",
	StrategyGUID:         "Guid",
	StrategyIPAddr:       "IpAddr",
	StrategyInt8Array:    "Int8Array",
	StrategyUInt8Array:   "UInt8Array",
	StrategyInt16Array:   "Int16Array",
	StrategyUInt16Array:  "UInt16Array",
	StrategyInt32Array:   "Int32Array",
	StrategyUInt32Array:  "UInt32Array",
	StrategyInt64Array:   "Int64Array",
	StrategyUInt64Array:  "UInt64Array",
	StrategyPointerArray: "PointerArray",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return "None"
}

// ResolveStrategy maps a property's wire typing to its decoding strategy.
// Pure and deterministic: repeated calls with identical inputs yield the
// identical strategy.
//
// Precedence: for scalars, an address out-type refinement wins regardless of
// the in-type; otherwise the strategy is derived solely from the in-type.
// For arrays only fixed-width integers and pointers are recognized; arrays
// of variable per-element-length types (strings, GUIDs, binary) resolve to
// no strategy.
func ResolveStrategy(info PropertyInfo) (Strategy, bool) {
	if info.Kind == KindArray {
		switch info.InType {
		case InTypeInt8:
			return StrategyInt8Array, true
		case InTypeUInt8:
			return StrategyUInt8Array, true
		case InTypeInt16:
			return StrategyInt16Array, true
		case InTypeUInt16:
			return StrategyUInt16Array, true
		case InTypeInt32:
			return StrategyInt32Array, true
		case InTypeUInt32:
			return StrategyUInt32Array, true
		case InTypeInt64:
			return StrategyInt64Array, true
		case InTypeUInt64:
			return StrategyUInt64Array, true
		case InTypePointer:
			return StrategyPointerArray, true
		}
		return StrategyNone, false
	}

	switch info.OutType {
	case OutTypeIPv4, OutTypeIPv6:
		return StrategyIPAddr, true
	}

	switch info.InType {
	case InTypeNull:
		return StrategyNull, true
	case InTypeUnicodeString, InTypeAnsiString, InTypeSID:
		return StrategyString, true
	case InTypeInt8:
		return StrategyInt8, true
	case InTypeUInt8:
		return StrategyUInt8, true
	case InTypeInt16:
		return StrategyInt16, true
	case InTypeUInt16:
		return StrategyUInt16, true
	case InTypeInt32:
		return StrategyInt32, true
	case InTypeUInt32:
		return StrategyUInt32, true
	case InTypeInt64:
		return StrategyInt64, true
	case InTypeUInt64:
		return StrategyUInt64, true
	case InTypeFloat:
		return StrategyFloat32, true
	case InTypeDouble:
		return StrategyFloat64, true
	case InTypeBoolean:
		return StrategyBool, true
	case InTypeBinary:
		return StrategyBinary, true
	case InTypeGUID:
		return StrategyGUID, true
	case InTypePointer:
		return StrategyPointer, true
	case InTypeFileTime:
		return StrategyFileTime, true
	case InTypeSystemTime:
		return StrategySystemTime, true
	case InTypeHexInt32:
		// Hex-ness is a display hint; same representation as Int32.
		return StrategyInt32, true
	case InTypeHexInt64:
		return StrategyInt64, true
	}
	return StrategyNone, false
}
