// Package ser renders decoded event records into a generic structured
// output representation by driving an ObjectSink visitor.
package ser

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yairfalse/etwparse/pkg/etw"
	"github.com/yairfalse/etwparse/pkg/metrics"
	"github.com/yairfalse/etwparse/pkg/parser"
	"github.com/yairfalse/etwparse/pkg/schema"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

// ObjectSink receives a structured tree of named fields. Map-like backends
// may require the field count up front, so BeginObject declares it before
// any field of that object streams.
type ObjectSink interface {
	BeginObject(name string, fields int) error
	Field(name string, value any) error
	SkipField(name string) error
	EndObject() error
}

// Options shape the serialized output.
type Options struct {
	// IncludeSchema adds the provider, opcode, and task names.
	IncludeSchema bool
	// IncludeHeader adds the record header: timestamps, thread and process
	// ids, the raw descriptor, and the provider/activity identifiers.
	IncludeHeader bool
	// IncludeExtendedData is reserved; extended data items are not
	// implemented and the flag only matters combined with FailUnimplemented.
	IncludeExtendedData bool
	// FailUnimplemented makes the visit fail on any field without a
	// decoding strategy instead of omitting it.
	FailUnimplemented bool
}

// DefaultOptions includes the schema and header blocks and skips
// unimplemented fields.
func DefaultOptions() Options {
	return Options{IncludeSchema: true, IncludeHeader: true}
}

// Serializer visits one record's fields through its schema and pushes them
// into an ObjectSink. It borrows the record and schema for the duration of
// a Serialize call only.
type Serializer struct {
	record *etw.EventRecord
	schema *schema.Schema
	parser *parser.Parser
	opts   Options
	logger *zap.Logger
}

// New builds a serializer for one record. A nil logger disables the
// skipped-field diagnostics.
func New(record *etw.EventRecord, sc *schema.Schema, opts Options, logger *zap.Logger) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serializer{
		record: record,
		schema: sc,
		parser: parser.New(record, sc),
		opts:   opts,
		logger: logger,
	}
}

// Serialize emits the record as a Record object with Schema, Header,
// Extended and Event members, honoring the options. The only recoverable
// field failure is an unimplemented wire type, and only when
// FailUnimplemented is off; every other error aborts the visit.
func (s *Serializer) Serialize(sink ObjectSink) error {
	if err := sink.BeginObject("Record", 4); err != nil {
		return err
	}

	if s.opts.IncludeSchema {
		if err := s.writeSchema(sink); err != nil {
			return err
		}
	} else if err := sink.SkipField("Schema"); err != nil {
		return err
	}

	if s.opts.IncludeHeader {
		if err := s.writeHeader(sink); err != nil {
			return err
		}
	} else if err := sink.SkipField("Header"); err != nil {
		return err
	}

	if s.opts.IncludeExtendedData && s.opts.FailUnimplemented {
		return errors.New("extended data serialization is not implemented")
	}
	if err := sink.SkipField("Extended"); err != nil {
		return err
	}

	if err := s.writeEvent(sink); err != nil {
		return err
	}

	if err := sink.EndObject(); err != nil {
		return err
	}
	metrics.RecordsSerialized.Inc()
	return nil
}

func (s *Serializer) writeSchema(sink ObjectSink) error {
	if err := sink.BeginObject("Schema", 3); err != nil {
		return err
	}
	if err := sink.Field("Provider", s.schema.ProviderName()); err != nil {
		return err
	}
	if err := sink.Field("Opcode", s.schema.OpcodeName()); err != nil {
		return err
	}
	if err := sink.Field("Task", s.schema.TaskName()); err != nil {
		return err
	}
	return sink.EndObject()
}

func (s *Serializer) writeHeader(sink ObjectSink) error {
	h := s.record.Header
	if err := sink.BeginObject("Header", 7); err != nil {
		return err
	}
	fields := []struct {
		name  string
		value any
	}{
		{"Flags", h.Flags},
		{"ThreadId", h.ThreadID},
		{"ProcessId", h.ProcessID},
		{"TimeStamp", h.TimeStamp.Time()},
		{"ProviderId", h.ProviderID.String()},
		{"ActivityId", h.ActivityID.String()},
	}
	for _, f := range fields {
		if err := sink.Field(f.name, f.value); err != nil {
			return err
		}
	}
	if err := s.writeDescriptor(sink, h.Descriptor); err != nil {
		return err
	}
	return sink.EndObject()
}

func (s *Serializer) writeDescriptor(sink ObjectSink, d etw.EventDescriptor) error {
	if err := sink.BeginObject("Descriptor", 7); err != nil {
		return err
	}
	fields := []struct {
		name  string
		value any
	}{
		{"Id", d.ID},
		{"Version", d.Version},
		{"Channel", d.Channel},
		{"Level", d.Level},
		{"Opcode", d.Opcode},
		{"Task", d.Task},
		{"Keyword", d.Keyword},
	}
	for _, f := range fields {
		if err := sink.Field(f.name, f.value); err != nil {
			return err
		}
	}
	return sink.EndObject()
}

func (s *Serializer) writeEvent(sink ObjectSink) error {
	props, err := s.schema.TryProperties()
	if err != nil {
		if s.opts.FailUnimplemented {
			return fmt.Errorf("list event fields: %w", err)
		}
		props = nil
	}

	// Map-like sinks need the element count before streaming, so resolve
	// every field's strategy up front.
	count := 0
	for _, prop := range props {
		if _, ok := tdh.ResolveStrategy(prop.Info); ok {
			count++
			continue
		}
		if s.opts.FailUnimplemented {
			return fmt.Errorf("not implemented: field %q in-type %s out-type %s",
				prop.Name, prop.Info.InType, prop.Info.OutType)
		}
	}

	if err := sink.BeginObject("Event", count); err != nil {
		return err
	}
	for _, prop := range props {
		strat, ok := tdh.ResolveStrategy(prop.Info)
		if !ok {
			metrics.FieldsSkipped.Inc()
			s.logger.Debug("skipping field without a decoding strategy",
				zap.String("field", prop.Name),
				zap.Stringer("in_type", prop.Info.InType),
				zap.Stringer("out_type", prop.Info.OutType))
			continue
		}
		value, err := s.fieldValue(strat, prop)
		if err != nil {
			return err
		}
		if err := sink.Field(prop.Name, value); err != nil {
			return err
		}
	}
	return sink.EndObject()
}
