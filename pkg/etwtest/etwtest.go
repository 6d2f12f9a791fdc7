// Package etwtest builds synthetic schemas and event records. Package tests
// and capture replay tooling use it in place of the native tracing
// subsystem.
package etwtest

import (
	"github.com/google/uuid"

	"github.com/yairfalse/etwparse/pkg/tdh"
)

// InfoBuilder assembles a TemplateEventInfo field by field.
type InfoBuilder struct {
	info tdh.TemplateEventInfo
}

// NewEventInfo starts a schema for the given event kind identity.
func NewEventInfo(provider uuid.UUID, id uint16, version uint8) *InfoBuilder {
	return &InfoBuilder{info: tdh.TemplateEventInfo{
		GUID:    provider,
		ID:      id,
		Version: version,
		Source:  tdh.DecodingSourceXMLFile,
	}}
}

// Names sets the descriptive strings.
func (b *InfoBuilder) Names(provider, task, opcode string) *InfoBuilder {
	b.info.Provider, b.info.Task, b.info.Opcode = provider, task, opcode
	return b
}

// Source overrides the decoding source.
func (b *InfoBuilder) Source(ds tdh.DecodingSource) *InfoBuilder {
	b.info.Source = ds
	return b
}

// Scalar appends a scalar field with a zero declared length
// (null-terminated for strings, intrinsic size for fixed-width types).
func (b *InfoBuilder) Scalar(name string, in tdh.InType, out tdh.OutType) *InfoBuilder {
	return b.ScalarLen(name, in, out, 0)
}

// ScalarLen appends a scalar field with a fixed declared length.
func (b *InfoBuilder) ScalarLen(name string, in tdh.InType, out tdh.OutType, length uint16) *InfoBuilder {
	b.info.Fields = append(b.info.Fields, tdh.Property{
		Name: name,
		Info: tdh.PropertyInfo{
			Kind:    tdh.KindScalar,
			InType:  in,
			OutType: out,
			Length:  tdh.PropertyLength{Kind: tdh.LengthFixed, Value: length},
		},
	})
	return b
}

// ScalarLenFrom appends a scalar field whose length is carried by the
// earlier field at the given index.
func (b *InfoBuilder) ScalarLenFrom(name string, in tdh.InType, out tdh.OutType, index uint16) *InfoBuilder {
	b.info.Fields = append(b.info.Fields, tdh.Property{
		Name: name,
		Info: tdh.PropertyInfo{
			Kind:    tdh.KindScalar,
			InType:  in,
			OutType: out,
			Length:  tdh.PropertyLength{Kind: tdh.LengthFromField, Value: index},
		},
	})
	return b
}

// Array appends an array field with a fixed element count.
func (b *InfoBuilder) Array(name string, in tdh.InType, count uint16) *InfoBuilder {
	b.info.Fields = append(b.info.Fields, tdh.Property{
		Name: name,
		Info: tdh.PropertyInfo{
			Kind:   tdh.KindArray,
			InType: in,
			Count:  tdh.PropertyCount{Kind: tdh.CountFixed, Value: count},
		},
	})
	return b
}

// ArrayCountFrom appends an array field whose element count is carried by
// the earlier field at the given index.
func (b *InfoBuilder) ArrayCountFrom(name string, in tdh.InType, index uint16) *InfoBuilder {
	b.info.Fields = append(b.info.Fields, tdh.Property{
		Name: name,
		Info: tdh.PropertyInfo{
			Kind:   tdh.KindArray,
			InType: in,
			Count:  tdh.PropertyCount{Kind: tdh.CountFromField, Value: index},
		},
	})
	return b
}

// Raw appends an arbitrary property, for wire typings the other helpers do
// not cover.
func (b *InfoBuilder) Raw(p tdh.Property) *InfoBuilder {
	b.info.Fields = append(b.info.Fields, p)
	return b
}

// Build returns the assembled schema handle.
func (b *InfoBuilder) Build() *tdh.TemplateEventInfo {
	info := b.info
	return &info
}
