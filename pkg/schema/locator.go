package schema

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yairfalse/etwparse/pkg/etw"
	"github.com/yairfalse/etwparse/pkg/metrics"
	"github.com/yairfalse/etwparse/pkg/tdh"
)

// ErrNotFound is returned by a Resolver when no schema exists for a record.
var ErrNotFound = errors.New("schema not found")

// Resolver produces a schema handle for a raw event record. It is the
// native lookup boundary; implementations typically wrap a subsystem call
// or a capture's schema table.
type Resolver interface {
	EventInfo(r *etw.EventRecord) (tdh.EventInfo, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *etw.EventRecord) (tdh.EventInfo, error)

func (f ResolverFunc) EventInfo(r *etw.EventRecord) (tdh.EventInfo, error) { return f(r) }

// Locator caches one Schema per event kind, resolving through the native
// boundary on first sight of a kind. Safe for concurrent use from however
// many threads deliver events.
type Locator struct {
	resolver Resolver
	logger   *zap.Logger
	cache    sync.Map // Key -> *Schema
}

// NewLocator builds a locator over the given resolver. A nil logger
// disables diagnostics on the schemas it creates.
func NewLocator(resolver Resolver, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{resolver: resolver, logger: logger}
}

// EventSchema returns the schema for the record's event kind, resolving and
// caching it on first sight. Records of the same kind share one *Schema, so
// its memoized field list is parsed once per kind, not once per event.
func (l *Locator) EventSchema(r *etw.EventRecord) (*Schema, error) {
	key := Key{Provider: r.ProviderID(), ID: r.EventID(), Version: r.Version()}
	if v, ok := l.cache.Load(key); ok {
		metrics.SchemaCacheHits.Inc()
		return v.(*Schema), nil
	}
	metrics.SchemaCacheMisses.Inc()

	info, err := l.resolver.EventInfo(r)
	if err != nil {
		return nil, fmt.Errorf("resolve schema for provider %s event %d v%d: %w",
			r.ProviderID(), r.EventID(), r.Version(), err)
	}

	// Two goroutines may race the first resolution; both observe the same
	// stored schema.
	actual, _ := l.cache.LoadOrStore(key, New(info, l.logger))
	return actual.(*Schema), nil
}
