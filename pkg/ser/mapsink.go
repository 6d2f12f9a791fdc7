package ser

import "errors"

// MapSink builds the emitted tree as nested map[string]any values, the
// in-memory backend used by replay tooling before JSON marshaling. Not safe
// for concurrent use; build one per record.
type MapSink struct {
	root  map[string]any
	stack []map[string]any
}

// NewMapSink returns an empty sink.
func NewMapSink() *MapSink {
	return &MapSink{}
}

func (m *MapSink) BeginObject(name string, fields int) error {
	obj := make(map[string]any, fields)
	if len(m.stack) == 0 {
		if m.root != nil {
			return errors.New("map sink: second root object")
		}
		m.root = obj
	} else {
		m.stack[len(m.stack)-1][name] = obj
	}
	m.stack = append(m.stack, obj)
	return nil
}

func (m *MapSink) Field(name string, value any) error {
	if len(m.stack) == 0 {
		return errors.New("map sink: field outside an object")
	}
	m.stack[len(m.stack)-1][name] = value
	return nil
}

func (m *MapSink) SkipField(string) error { return nil }

func (m *MapSink) EndObject() error {
	if len(m.stack) == 0 {
		return errors.New("map sink: unbalanced end of object")
	}
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}

// Result returns the root object. Valid once every begun object has ended.
func (m *MapSink) Result() map[string]any {
	return m.root
}
