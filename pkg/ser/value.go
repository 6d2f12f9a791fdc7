package ser

import (
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/yairfalse/etwparse/pkg/etw"
	"github.com/yairfalse/etwparse/pkg/parser"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

// fieldValue extracts one field in the representation its strategy
// dictates, converted where the output form differs from the wire form
// (timestamps become calendar times, GUIDs become strings).
func (s *Serializer) fieldValue(strat tdh.Strategy, prop tdh.Property) (any, error) {
	p := s.parser
	name := prop.Name

	switch strat {
	case tdh.StrategyNull:
		return nil, nil
	case tdh.StrategyBool:
		return parser.Parse[bool](p, name)
	case tdh.StrategyInt8:
		return parser.Parse[int8](p, name)
	case tdh.StrategyUInt8:
		return parser.Parse[uint8](p, name)
	case tdh.StrategyInt16:
		return parser.Parse[int16](p, name)
	case tdh.StrategyUInt16:
		return parser.Parse[uint16](p, name)
	case tdh.StrategyInt32:
		return parser.Parse[int32](p, name)
	case tdh.StrategyUInt32:
		return parser.Parse[uint32](p, name)
	case tdh.StrategyInt64:
		return parser.Parse[int64](p, name)
	case tdh.StrategyUInt64:
		return parser.Parse[uint64](p, name)
	case tdh.StrategyPointer:
		if s.record.PointerSize() == 4 {
			return parser.Parse[uint32](p, name)
		}
		return parser.Parse[uint64](p, name)
	case tdh.StrategyFloat32:
		return parser.Parse[float32](p, name)
	case tdh.StrategyFloat64:
		return parser.Parse[float64](p, name)
	case tdh.StrategyString:
		return parser.Parse[string](p, name)
	case tdh.StrategyBinary:
		return parser.Parse[[]byte](p, name)
	case tdh.StrategyFileTime:
		v, err := parser.Parse[etw.FileTime](p, name)
		if err != nil {
			return nil, err
		}
		return v.Time(), nil
	case tdh.StrategySystemTime:
		v, err := parser.Parse[etw.SystemTime](p, name)
		if err != nil {
			return nil, err
		}
		return v.Time(), nil
	case tdh.StrategyGUID:
		v, err := parser.Parse[uuid.UUID](p, name)
		if err != nil {
			return nil, err
		}
		return v.String(), nil
	case tdh.StrategyIPAddr:
		v, err := parser.Parse[net.IP](p, name)
		if err != nil {
			return nil, err
		}
		return v.String(), nil
	case tdh.StrategyInt8Array:
		return parser.Parse[[]int8](p, name)
	case tdh.StrategyUInt8Array:
		return parser.Parse[[]byte](p, name)
	case tdh.StrategyInt16Array:
		return parser.Parse[[]int16](p, name)
	case tdh.StrategyUInt16Array:
		return parser.Parse[[]uint16](p, name)
	case tdh.StrategyInt32Array:
		return parser.Parse[[]int32](p, name)
	case tdh.StrategyUInt32Array:
		return parser.Parse[[]uint32](p, name)
	case tdh.StrategyInt64Array:
		return parser.Parse[[]int64](p, name)
	case tdh.StrategyUInt64Array:
		return parser.Parse[[]uint64](p, name)
	case tdh.StrategyPointerArray:
		if s.record.PointerSize() == 4 {
			return parser.Parse[[]uint32](p, name)
		}
		return parser.Parse[[]uint64](p, name)
	}
	return nil, fmt.Errorf("not implemented: field %q strategy %s", name, strat)
}
