package ser

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yairfalse/etwparse/pkg/etw"
	"github.com/yairfalse/etwparse/pkg/etwtest"
	"github.com/yairfalse/etwparse/pkg/schema"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

var dnsProvider = uuid.MustParse("1c95126e-7eea-49a9-a3fe-a378b03ddb4d")

// dnsFixture carries one resolvable field, one field with no decoding
// strategy, and a header worth asserting on.
func dnsFixture(t *testing.T) (*etw.EventRecord, *schema.Schema) {
	t.Helper()
	info := etwtest.NewEventInfo(dnsProvider, 3008, 0).
		Names("Microsoft-Windows-DNS-Client", "DNSQuery", "Completed").
		Scalar("QueryName", tdh.InTypeUnicodeString, tdh.OutTypeString).
		Scalar("Legacy", tdh.InTypeCountedString, tdh.OutTypeString).
		Scalar("QueryStatus", tdh.InTypeUInt32, tdh.OutTypeNull).
		Build()
	record := etwtest.NewRecord().
		Provider(dnsProvider).
		Event(3008, 0).
		Execution(4321, 8765).
		TimeStamp(time.Date(2023, time.August, 17, 9, 26, 39, 0, time.UTC)).
		UTF16Z("www.github.com").
		Uint16(2).ANSI("xy").
		Uint32(0).
		Build()
	return record, schema.New(info, zaptest.NewLogger(t))
}

func TestSerializeDefaultOptions(t *testing.T) {
	record, sc := dnsFixture(t)
	sink := NewMapSink()
	s := New(record, sc, DefaultOptions(), zaptest.NewLogger(t))
	require.NoError(t, s.Serialize(sink))

	root := sink.Result()
	require.Len(t, root, 3) // Schema, Header, Event; Extended skipped

	sch, ok := root["Schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Microsoft-Windows-DNS-Client", sch["Provider"])
	assert.Equal(t, "Completed", sch["Opcode"])
	assert.Equal(t, "DNSQuery", sch["Task"])

	hdr, ok := root["Header"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, uint32(4321), hdr["ProcessId"])
	assert.Equal(t, uint32(8765), hdr["ThreadId"])
	assert.Equal(t, time.Date(2023, time.August, 17, 9, 26, 39, 0, time.UTC), hdr["TimeStamp"])
	assert.Equal(t, dnsProvider.String(), hdr["ProviderId"])

	desc, ok := hdr["Descriptor"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, uint16(3008), desc["Id"])
	assert.Equal(t, uint8(0), desc["Version"])

	event, ok := root["Event"].(map[string]any)
	require.True(t, ok)
	// The unresolvable field is omitted, not replaced by a placeholder.
	require.Len(t, event, 2)
	assert.Equal(t, "www.github.com", event["QueryName"])
	assert.Equal(t, uint32(0), event["QueryStatus"])
}

func TestSerializeFailUnimplemented(t *testing.T) {
	record, sc := dnsFixture(t)
	opts := DefaultOptions()
	opts.FailUnimplemented = true
	s := New(record, sc, opts, zaptest.NewLogger(t))

	err := s.Serialize(NewMapSink())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Legacy"`)
	assert.Contains(t, err.Error(), "CountedString")
}

func TestSerializeWithoutSchemaAndHeader(t *testing.T) {
	record, sc := dnsFixture(t)
	s := New(record, sc, Options{}, zaptest.NewLogger(t))
	sink := NewMapSink()
	require.NoError(t, s.Serialize(sink))

	root := sink.Result()
	require.Len(t, root, 1)
	assert.Contains(t, root, "Event")
}

func TestSerializeExtendedData(t *testing.T) {
	record, sc := dnsFixture(t)

	t.Run("tolerated when lenient", func(t *testing.T) {
		s := New(record, sc, Options{IncludeExtendedData: true}, nil)
		require.NoError(t, s.Serialize(NewMapSink()))
	})
	t.Run("rejected when strict", func(t *testing.T) {
		s := New(record, sc, Options{IncludeExtendedData: true, FailUnimplemented: true}, nil)
		err := s.Serialize(NewMapSink())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extended data")
	})
}

func TestSerializeSchemaParseFailure(t *testing.T) {
	info := etwtest.NewEventInfo(dnsProvider, 99, 0).
		Raw(tdh.Property{Name: "Mystery", Info: tdh.PropertyInfo{InType: tdh.InType(999)}}).
		Build()
	record := etwtest.NewRecord().Provider(dnsProvider).Event(99, 0).Build()
	sc := schema.New(info, zaptest.NewLogger(t))

	t.Run("lenient yields an empty event", func(t *testing.T) {
		sink := NewMapSink()
		s := New(record, sc, Options{}, zaptest.NewLogger(t))
		require.NoError(t, s.Serialize(sink))
		event, ok := sink.Result()["Event"].(map[string]any)
		require.True(t, ok)
		assert.Empty(t, event)
	})
	t.Run("strict surfaces the parse failure", func(t *testing.T) {
		s := New(record, sc, Options{FailUnimplemented: true}, zaptest.NewLogger(t))
		err := s.Serialize(NewMapSink())
		require.Error(t, err)
		var perr *tdh.PropertyError
		assert.ErrorAs(t, err, &perr)
	})
}

func TestSerializeConvertedRepresentations(t *testing.T) {
	when := time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC)
	id := uuid.MustParse("a68ca8b7-004f-d7b6-a698-07e2de0f1f5d")
	info := etwtest.NewEventInfo(dnsProvider, 50, 0).
		Scalar("CreateTime", tdh.InTypeFileTime, tdh.OutTypeDateTime).
		Scalar("InterfaceGuid", tdh.InTypeGUID, tdh.OutTypeNull).
		Scalar("Address", tdh.InTypeUInt32, tdh.OutTypeIPv4).
		Build()
	record := etwtest.NewRecord().
		Provider(dnsProvider).Event(50, 0).
		FileTime(etw.NewFileTime(when)).
		GUID(id).
		Bytes([]byte{10, 0, 0, 1}).
		Build()
	sink := NewMapSink()
	s := New(record, schema.New(info, nil), Options{}, nil)
	require.NoError(t, s.Serialize(sink))

	event := sink.Result()["Event"].(map[string]any)
	assert.Equal(t, when, event["CreateTime"])
	assert.Equal(t, id.String(), event["InterfaceGuid"])
	assert.Equal(t, "10.0.0.1", event["Address"])
}

func TestMapSinkMisuse(t *testing.T) {
	t.Run("field outside an object", func(t *testing.T) {
		m := NewMapSink()
		assert.Error(t, m.Field("x", 1))
	})
	t.Run("unbalanced end", func(t *testing.T) {
		m := NewMapSink()
		assert.Error(t, m.EndObject())
	})
	t.Run("second root", func(t *testing.T) {
		m := NewMapSink()
		require.NoError(t, m.BeginObject("Record", 0))
		require.NoError(t, m.EndObject())
		assert.Error(t, m.BeginObject("Record", 0))
	})
}
