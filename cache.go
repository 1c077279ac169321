package parley

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheCapacity bounds the package-level binding cache. Interfaces
// and binder strategies are finite, so the cache mostly never evicts; the
// bound keeps a pathological caller from growing it without limit.
const DefaultCacheCapacity = 128

// Cache memoizes generated implementations per (interface definition,
// binder strategy) pair. Concurrent first binds of the same pair are
// collapsed to a single build; a second caller never observes a partially
// built implementation.
type Cache struct {
	entries *lru.Cache[string, *implementation]
	group   singleflight.Group
	logger  *slog.Logger
}

// NewCache creates a binding cache holding at most capacity
// implementations, evicted least-recently-used.
func NewCache(capacity int) *Cache {
	entries, err := lru.New[string, *implementation](capacity)
	if err != nil {
		panic("parley: invalid cache capacity")
	}
	return &Cache{entries: entries}
}

// WithLogger sets the logger used for bind traces. slog.Default is used
// when unset.
func (c *Cache) WithLogger(logger *slog.Logger) *Cache {
	c.logger = logger
	return c
}

func (c *Cache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

var defaultCache = NewCache(DefaultCacheCapacity)

// bindClass returns the implementation for the (definition, binder) pair,
// building it at most once per miss. Failed builds are not cached; a later
// bind with a corrected definition starts fresh.
func (c *Cache) bindClass(src descriptorSource, binder Binder) (*implementation, error) {
	key := src.descriptorID() + "\x00" + binder.BinderID()

	if impl, ok := c.entries.Get(key); ok {
		return impl, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: a previous flight may have populated the entry
		// between our Get and Do.
		if impl, ok := c.entries.Get(key); ok {
			return impl, nil
		}
		impl, err := buildImplementation(src, binder)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, impl)
		c.log().Debug("bound interface",
			slog.String("interface", src.interfaceType().String()),
			slog.String("binder", binder.BinderID()),
			slog.Int("methods", len(impl.methods)))
		return impl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*implementation), nil
}
