package tdh

import "github.com/google/uuid"

// EventInfo is the schema handle for one event kind, as produced by the
// native tracing subsystem. The decoder never acquires one itself; a
// schema-lookup collaborator resolves it per raw event and hands it over.
//
// Implementations must be safe for concurrent use; all methods are read-only
// views over the underlying schema data.
type EventInfo interface {
	// ProviderGUID, EventID and EventVersion form the identity triple of the
	// event kind. They are cheap and never trigger property parsing.
	ProviderGUID() uuid.UUID
	EventID() uint16
	EventVersion() uint8

	DecodingSource() DecodingSource
	ProviderName() string
	TaskName() string
	OpcodeName() string

	// Properties derives the ordered field list. Parsing is fallible: an
	// unrecognized wire type yields a *PropertyError. Callers are expected
	// to memoize the result; implementations may re-parse on every call.
	Properties() ([]Property, error)
}

// TemplateEventInfo is an EventInfo assembled from explicit values rather
// than a native schema buffer. Capture replay tooling and tests use it to
// stand in for handles the tracing subsystem would produce.
type TemplateEventInfo struct {
	GUID    uuid.UUID
	ID      uint16
	Version uint8
	Source  DecodingSource

	Provider string
	Task     string
	Opcode   string

	Fields []Property
}

func (t *TemplateEventInfo) ProviderGUID() uuid.UUID { return t.GUID }

func (t *TemplateEventInfo) EventID() uint16 { return t.ID }

func (t *TemplateEventInfo) EventVersion() uint8 { return t.Version }

func (t *TemplateEventInfo) DecodingSource() DecodingSource { return t.Source }

func (t *TemplateEventInfo) ProviderName() string { return t.Provider }

func (t *TemplateEventInfo) TaskName() string { return t.Task }

func (t *TemplateEventInfo) OpcodeName() string { return t.Opcode }

// Properties validates the declared wire types and returns the field list.
func (t *TemplateEventInfo) Properties() ([]Property, error) {
	for _, p := range t.Fields {
		if !p.Info.InType.Known() {
			return nil, &PropertyError{Name: p.Name, RawInType: uint16(p.Info.InType)}
		}
	}
	return t.Fields, nil
}
