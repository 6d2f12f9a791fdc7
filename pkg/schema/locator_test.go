package schema

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yairfalse/etwparse/pkg/etw"
	"github.com/yairfalse/etwparse/pkg/etwtest"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

func dnsRecord(version uint8) *etw.EventRecord {
	return etwtest.NewRecord().
		Provider(dnsProvider).
		Event(3008, version).
		Build()
}

func TestLocatorCachesPerKind(t *testing.T) {
	var resolutions atomic.Int64
	resolver := ResolverFunc(func(r *etw.EventRecord) (tdh.EventInfo, error) {
		resolutions.Add(1)
		return dnsInfo(), nil
	})
	l := NewLocator(resolver, zaptest.NewLogger(t))

	first, err := l.EventSchema(dnsRecord(0))
	require.NoError(t, err)
	second, err := l.EventSchema(dnsRecord(0))
	require.NoError(t, err)

	// Same kind, same schema instance: the memoized field list is shared.
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), resolutions.Load())

	other, err := l.EventSchema(dnsRecord(1))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, int64(2), resolutions.Load())
}

func TestLocatorResolveFailure(t *testing.T) {
	resolver := ResolverFunc(func(r *etw.EventRecord) (tdh.EventInfo, error) {
		return nil, ErrNotFound
	})
	l := NewLocator(resolver, zaptest.NewLogger(t))

	_, err := l.EventSchema(dnsRecord(0))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "3008")

	// Failures are not cached; the next lookup consults the resolver again.
	_, err = l.EventSchema(dnsRecord(0))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocatorConcurrentFirstSight(t *testing.T) {
	var resolutions atomic.Int64
	resolver := ResolverFunc(func(r *etw.EventRecord) (tdh.EventInfo, error) {
		resolutions.Add(1)
		return dnsInfo(), nil
	})
	l := NewLocator(resolver, zaptest.NewLogger(t))

	schemas := make([]*Schema, 16)
	var wg sync.WaitGroup
	for i := range schemas {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := l.EventSchema(dnsRecord(0))
			assert.NoError(t, err)
			schemas[i] = s
		}(i)
	}
	wg.Wait()

	// The resolver may have been raced, but every caller observes the one
	// stored schema.
	for _, s := range schemas[1:] {
		assert.Same(t, schemas[0], s)
	}
}
