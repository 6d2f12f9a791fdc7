package schema

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yairfalse/etwparse/pkg/etwtest"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

var dnsProvider = uuid.MustParse("1c95126e-7eea-49a9-a3fe-a378b03ddb4d")

// countingInfo wraps a schema handle and counts Properties calls. After the
// first call it flips to a failure, so a second underlying parse is
// observable as an error.
type countingInfo struct {
	*tdh.TemplateEventInfo
	calls atomic.Int64
}

func (c *countingInfo) Properties() ([]tdh.Property, error) {
	if c.calls.Add(1) > 1 {
		return nil, &tdh.PropertyError{Name: "poisoned", RawInType: 999}
	}
	return c.TemplateEventInfo.Properties()
}

func dnsInfo() *tdh.TemplateEventInfo {
	return etwtest.NewEventInfo(dnsProvider, 3008, 0).
		Names("Microsoft-Windows-DNS-Client", "DNSQuery", "Completed").
		Scalar("QueryName", tdh.InTypeUnicodeString, tdh.OutTypeString).
		Scalar("QueryStatus", tdh.InTypeUInt32, tdh.OutTypeNull).
		Build()
}

func TestSchemaMemoizesSuccess(t *testing.T) {
	info := &countingInfo{TemplateEventInfo: dnsInfo()}
	s := New(info, zaptest.NewLogger(t))

	first, err := s.TryProperties()
	require.NoError(t, err)
	require.Len(t, first, 2)

	// A second access must not hit the handle again: the wrapped handle
	// would fail if it did.
	second, err := s.TryProperties()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), info.calls.Load())
}

func TestSchemaMemoizesFailure(t *testing.T) {
	bad := dnsInfo()
	bad.Fields = append(bad.Fields, tdh.Property{
		Name: "Mystery",
		Info: tdh.PropertyInfo{InType: tdh.InType(777)},
	})
	info := &countingInfo{TemplateEventInfo: bad}
	s := New(info, zaptest.NewLogger(t))

	_, err := s.TryProperties()
	var perr *tdh.PropertyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Mystery", perr.Name)
	assert.Equal(t, uint16(777), perr.RawInType)

	_, again := s.TryProperties()
	assert.Same(t, perr, again)
	assert.Equal(t, int64(1), info.calls.Load())

	assert.Nil(t, s.Properties())
}

func TestSchemaConcurrentFirstAccess(t *testing.T) {
	info := &countingInfo{TemplateEventInfo: dnsInfo()}
	s := New(info, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			props, err := s.TryProperties()
			assert.NoError(t, err)
			assert.Len(t, props, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), info.calls.Load())
}

func TestSchemaEqual(t *testing.T) {
	a := New(dnsInfo(), nil)
	same := New(dnsInfo(), nil)
	otherVersion := etwtest.NewEventInfo(dnsProvider, 3008, 1).Build()

	assert.True(t, a.Equal(same))
	assert.False(t, a.Equal(New(otherVersion, nil)))
	assert.False(t, a.Equal(nil))
}

func TestSchemaNames(t *testing.T) {
	s := New(dnsInfo(), nil)
	assert.Equal(t, "Microsoft-Windows-DNS-Client", s.ProviderName())
	assert.Equal(t, "DNSQuery", s.TaskName())
	assert.Equal(t, "Completed", s.OpcodeName())
	assert.Equal(t, tdh.DecodingSourceXMLFile, s.DecodingSource())
}
