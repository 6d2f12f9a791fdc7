// Package schema wraps native schema handles with memoized field lists and
// provides the per-event-kind schema cache.
package schema

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yairfalse/etwparse/pkg/metrics"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

// Key is the identity triple of an event kind. Two schemas describe the
// same kind iff their keys match; field lists are never compared. Keys are
// comparable and cheap, suitable as cache keys.
type Key struct {
	Provider uuid.UUID
	ID       uint16
	Version  uint8
}

// Schema describes one event kind: its descriptive names and its ordered
// field list. The field list is parsed from the underlying handle at most
// once, on first access, and the result (success or failure) is memoized.
// Safe for concurrent use; first-access races perform exactly one parse.
type Schema struct {
	info   tdh.EventInfo
	logger *zap.Logger

	once  sync.Once
	props []tdh.Property
	err   error
}

// New wraps an already-resolved schema handle. A nil logger disables the
// lenient accessor's diagnostics.
func New(info tdh.EventInfo, logger *zap.Logger) *Schema {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Schema{info: info, logger: logger}
}

// Key returns the identity triple of the event kind. Never triggers field
// parsing.
func (s *Schema) Key() Key {
	return Key{
		Provider: s.info.ProviderGUID(),
		ID:       s.info.EventID(),
		Version:  s.info.EventVersion(),
	}
}

// Equal reports whether two schemas describe the same event kind.
func (s *Schema) Equal(other *Schema) bool {
	return other != nil && s.Key() == other.Key()
}

// ProviderName returns the name of the provider that published the event
// kind. Always available, independent of field parsing.
func (s *Schema) ProviderName() string { return s.info.ProviderName() }

// TaskName returns the task name of the event kind.
func (s *Schema) TaskName() string { return s.info.TaskName() }

// OpcodeName returns the opcode name of the event kind.
func (s *Schema) OpcodeName() string { return s.info.OpcodeName() }

// DecodingSource identifies the native mechanism that produced this schema.
func (s *Schema) DecodingSource() tdh.DecodingSource { return s.info.DecodingSource() }

// TryProperties returns the ordered field list, or the parse failure. The
// underlying handle is consulted at most once per Schema regardless of how
// many times either accessor runs or which one runs first.
func (s *Schema) TryProperties() ([]tdh.Property, error) {
	s.once.Do(func() {
		s.props, s.err = s.info.Properties()
		if s.err != nil {
			s.props = nil
		}
	})
	return s.props, s.err
}

// Properties is the lenient accessor: on a parse failure it logs the
// memoized error and returns an empty list.
func (s *Schema) Properties() []tdh.Property {
	props, err := s.TryProperties()
	if err != nil {
		metrics.SchemaParseFailures.Inc()
		s.logger.Error("unable to list properties",
			zap.String("provider", s.info.ProviderName()),
			zap.Uint16("event_id", s.info.EventID()),
			zap.Error(err))
		return nil
	}
	return props
}
