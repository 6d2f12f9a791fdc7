// Package capture loads recorded trace events from JSON capture files: each
// entry pairs a schema template with header values and a hex payload, so
// captures replay on any platform without the native tracing subsystem.
package capture

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yairfalse/etwparse/pkg/etw"
	"github.com/yairfalse/etwparse/pkg/schema"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

// HexBytes is a byte slice carried as a hex string in JSON.
type HexBytes []byte

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("payload is not valid hex: %w", err)
	}
	*h = b
	return nil
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// Field is one schema property. A field with a count (fixed or indirect) is
// an array; otherwise it is a scalar. Length and count indirections name the
// zero-based index of an earlier field.
type Field struct {
	Name            string  `json:"name"`
	InType          uint16  `json:"in_type"`
	OutType         uint16  `json:"out_type,omitempty"`
	Length          uint16  `json:"length,omitempty"`
	LengthFromField *uint16 `json:"length_from_field,omitempty"`
	Count           *uint16 `json:"count,omitempty"`
	CountFromField  *uint16 `json:"count_from_field,omitempty"`
}

// Template is the schema half of a capture entry.
type Template struct {
	ProviderGUID uuid.UUID `json:"provider_guid"`
	EventID      uint16    `json:"event_id"`
	Version      uint8     `json:"version"`
	Provider     string    `json:"provider,omitempty"`
	Task         string    `json:"task,omitempty"`
	Opcode       string    `json:"opcode,omitempty"`
	Fields       []Field   `json:"fields"`
}

// Header is the record-header half of a capture entry. A zero Flags value
// defaults to a 64-bit origin so pointer fields have a defined width.
type Header struct {
	Flags      uint16    `json:"flags,omitempty"`
	ProcessID  uint32    `json:"process_id,omitempty"`
	ThreadID   uint32    `json:"thread_id,omitempty"`
	TimeStamp  time.Time `json:"timestamp,omitempty"`
	ActivityID uuid.UUID `json:"activity_id,omitempty"`
	Channel    uint8     `json:"channel,omitempty"`
	Level      uint8     `json:"level,omitempty"`
	Opcode     uint8     `json:"opcode,omitempty"`
	Task       uint16    `json:"task,omitempty"`
	Keyword    uint64    `json:"keyword,omitempty"`
}

// Entry is one captured event.
type Entry struct {
	Schema  Template `json:"schema"`
	Header  Header   `json:"header"`
	Payload HexBytes `json:"payload"`
}

// Capture is a loaded capture file: the replayable records plus a resolver
// over the templates they carried.
type Capture struct {
	Records []*etw.EventRecord
	schemas map[schema.Key]*tdh.TemplateEventInfo
}

// Load parses a capture document.
func Load(r io.Reader) (*Capture, error) {
	var entries []Entry
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}

	c := &Capture{schemas: make(map[schema.Key]*tdh.TemplateEventInfo)}
	for i, e := range entries {
		key := schema.Key{Provider: e.Schema.ProviderGUID, ID: e.Schema.EventID, Version: e.Schema.Version}
		if _, seen := c.schemas[key]; !seen {
			info, err := e.Schema.eventInfo()
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			c.schemas[key] = info
		}
		c.Records = append(c.Records, e.record())
	}
	return c, nil
}

// LoadFile parses the capture file at path.
func LoadFile(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// EventInfo resolves a record against the capture's templates, satisfying
// schema.Resolver.
func (c *Capture) EventInfo(r *etw.EventRecord) (tdh.EventInfo, error) {
	key := schema.Key{Provider: r.ProviderID(), ID: r.EventID(), Version: r.Version()}
	info, ok := c.schemas[key]
	if !ok {
		return nil, schema.ErrNotFound
	}
	return info, nil
}

func (e *Entry) record() *etw.EventRecord {
	h := e.Header
	flags := h.Flags
	if flags&(etw.Flag32BitHeader|etw.Flag64BitHeader) == 0 {
		flags |= etw.Flag64BitHeader
	}
	return &etw.EventRecord{
		Header: etw.EventHeader{
			Flags:      flags,
			ThreadID:   h.ThreadID,
			ProcessID:  h.ProcessID,
			TimeStamp:  etw.NewFileTime(h.TimeStamp),
			ProviderID: e.Schema.ProviderGUID,
			ActivityID: h.ActivityID,
			Descriptor: etw.EventDescriptor{
				ID:      e.Schema.EventID,
				Version: e.Schema.Version,
				Channel: h.Channel,
				Level:   h.Level,
				Opcode:  h.Opcode,
				Task:    h.Task,
				Keyword: h.Keyword,
			},
		},
		UserData: append([]byte(nil), e.Payload...),
	}
}

func (t *Template) eventInfo() (*tdh.TemplateEventInfo, error) {
	info := &tdh.TemplateEventInfo{
		GUID:     t.ProviderGUID,
		ID:       t.EventID,
		Version:  t.Version,
		Source:   tdh.DecodingSourceXMLFile,
		Provider: t.Provider,
		Task:     t.Task,
		Opcode:   t.Opcode,
	}
	for _, f := range t.Fields {
		p, err := f.property()
		if err != nil {
			return nil, err
		}
		info.Fields = append(info.Fields, p)
	}
	return info, nil
}

func (f *Field) property() (tdh.Property, error) {
	if f.Name == "" {
		return tdh.Property{}, fmt.Errorf("field without a name")
	}
	info := tdh.PropertyInfo{
		InType:  tdh.InType(f.InType),
		OutType: tdh.OutType(f.OutType),
		Length:  tdh.PropertyLength{Kind: tdh.LengthFixed, Value: f.Length},
	}
	if f.LengthFromField != nil {
		if f.Length != 0 {
			return tdh.Property{}, fmt.Errorf("field %q: both length and length_from_field", f.Name)
		}
		info.Length = tdh.PropertyLength{Kind: tdh.LengthFromField, Value: *f.LengthFromField}
	}
	switch {
	case f.Count != nil && f.CountFromField != nil:
		return tdh.Property{}, fmt.Errorf("field %q: both count and count_from_field", f.Name)
	case f.Count != nil:
		info.Kind = tdh.KindArray
		info.Count = tdh.PropertyCount{Kind: tdh.CountFixed, Value: *f.Count}
	case f.CountFromField != nil:
		info.Kind = tdh.KindArray
		info.Count = tdh.PropertyCount{Kind: tdh.CountFromField, Value: *f.CountFromField}
	}
	return tdh.Property{Name: f.Name, Info: info}, nil
}
