// Package parser extracts typed, named field values from a raw event
// record's payload using its schema. Extraction is strict: the caller's
// requested representation must be exactly the one the field's wire type
// decodes to.
package parser

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/yairfalse/etwparse/pkg/etw"
	"github.com/yairfalse/etwparse/pkg/schema"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

// Parser binds one raw event record to its schema for field extraction.
// It holds borrowed references only, mutates neither, and is safe for
// concurrent reads; extraction is idempotent.
type Parser struct {
	record *etw.EventRecord
	schema *schema.Schema
}

// New binds a record to its schema.
func New(record *etw.EventRecord, sc *schema.Schema) *Parser {
	return &Parser{record: record, schema: sc}
}

// Parse extracts the named field as T. The field is located by first match
// in declared order, its decoding strategy resolved, the requested type
// checked against the strategy, and the value read from the payload at the
// field's resolved offset.
//
// Pointer-typed fields decode as uint32 or uint64 according to the bitness
// recorded on the event, never the decoding process's own bitness.
func Parse[T any](p *Parser, name string) (T, error) {
	var zero T

	props := p.schema.Properties()
	idx := -1
	for i := range props {
		if props[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return zero, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	prop := props[idx]
	strat, ok := tdh.ResolveStrategy(prop.Info)
	if !ok {
		return zero, fmt.Errorf("%w: field %q in-type %s out-type %s",
			ErrUnimplemented, name, prop.Info.InType, prop.Info.OutType)
	}
	if !requestMatches[T](strat, p.record.PointerSize()) {
		return zero, fmt.Errorf("%w: field %q decodes as %s, requested %T",
			ErrTypeMismatch, name, strat, zero)
	}

	sp, err := p.locate(props, idx)
	if err != nil {
		return zero, err
	}
	v, err := p.decodeValue(strat, prop, sp)
	if err != nil {
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: field %q decodes as %s, requested %T",
			ErrTypeMismatch, name, strat, zero)
	}
	return out, nil
}

// requestMatches reports whether the caller-requested representation T is
// exactly the representation the strategy produces. The pointer strategies
// match the integer width recorded on the event.
func requestMatches[T any](s tdh.Strategy, ptrSize int) bool {
	var zero T
	switch any(zero).(type) {
	case bool:
		return s == tdh.StrategyBool
	case int8:
		return s == tdh.StrategyInt8
	case uint8:
		return s == tdh.StrategyUInt8
	case int16:
		return s == tdh.StrategyInt16
	case uint16:
		return s == tdh.StrategyUInt16
	case int32:
		return s == tdh.StrategyInt32
	case uint32:
		return s == tdh.StrategyUInt32 || (s == tdh.StrategyPointer && ptrSize == 4)
	case int64:
		return s == tdh.StrategyInt64
	case uint64:
		return s == tdh.StrategyUInt64 || (s == tdh.StrategyPointer && ptrSize == 8)
	case float32:
		return s == tdh.StrategyFloat32
	case float64:
		return s == tdh.StrategyFloat64
	case string:
		return s == tdh.StrategyString
	case []byte:
		// []byte and []uint8 are the same type.
		return s == tdh.StrategyBinary || s == tdh.StrategyUInt8Array
	case etw.FileTime:
		return s == tdh.StrategyFileTime
	case etw.SystemTime:
		return s == tdh.StrategySystemTime
	case uuid.UUID:
		return s == tdh.StrategyGUID
	case net.IP:
		return s == tdh.StrategyIPAddr
	case time.Time:
		// Timestamps keep their wire representation; convert explicitly.
		return false
	case []int8:
		return s == tdh.StrategyInt8Array
	case []int16:
		return s == tdh.StrategyInt16Array
	case []uint16:
		return s == tdh.StrategyUInt16Array
	case []int32:
		return s == tdh.StrategyInt32Array
	case []uint32:
		return s == tdh.StrategyUInt32Array || (s == tdh.StrategyPointerArray && ptrSize == 4)
	case []int64:
		return s == tdh.StrategyInt64Array
	case []uint64:
		return s == tdh.StrategyUInt64Array || (s == tdh.StrategyPointerArray && ptrSize == 8)
	default:
		return false
	}
}
