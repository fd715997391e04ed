// Package cache holds loaded vocabulary documents for reuse across callers.
//
// Entries are keyed by the logical vocabulary key when the registry knows
// it, or by the source location with every non-letter stripped. They expire
// a fixed time after insertion; reading an entry does not extend it.
// Concurrent misses for one key share a single load.
package cache

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/teranos/taxon/config"
	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/fetch"
	"github.com/teranos/taxon/logger"
	"github.com/teranos/taxon/vocab"
)

// DefaultTTL is how long a document stays cached after it was loaded
const DefaultTTL = config.DefaultCacheTTLMinutes * time.Minute

// Loader loads a document from a source location
type Loader interface {
	Load(ctx context.Context, location string, opts vocab.LoadOptions) (*vocab.Document, error)
}

// Options configures a Cache
type Options struct {
	TTL        time.Duration // default DefaultTTL
	MaxEntries int           // default config.DefaultCacheMaxEntries

	// WatchSources evicts entries whose local source file changes
	WatchSources  bool
	WatchDebounce time.Duration // default 500ms

	// Name labels the cache metrics; default "default"
	Name string
	// Registerer receives the cache metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// OptionsFromConfig maps the [cache] configuration section to Options
func OptionsFromConfig(cfg config.CacheConfig) Options {
	return Options{
		TTL:          time.Duration(cfg.TTLMinutes) * time.Minute,
		MaxEntries:   cfg.MaxEntries,
		WatchSources: cfg.WatchSources,
	}
}

// Cache is a process-wide store of loaded vocabulary documents.
// Documents are read-only, so a cached document is shared by every caller.
type Cache struct {
	loader   Loader
	registry *config.Registry
	ttl      time.Duration
	lru      *expirable.LRU[string, *vocab.Document]
	group    singleflight.Group
	metrics  *cacheMetrics
	watcher  *Watcher
	logger   *zap.SugaredLogger
}

// New creates a Cache that resolves logical keys through registry and
// loads documents with loader.
func New(loader Loader, registry *config.Registry, opts Options, l *zap.SugaredLogger) (*Cache, error) {
	c := newCache(loader, registry, opts, l)

	if err := c.metrics.register(opts.Registerer); err != nil {
		return nil, err
	}

	if opts.WatchSources {
		w, err := NewWatcher(c.evictPath, opts.WatchDebounce, c.logger.Named("watcher"))
		if err != nil {
			return nil, err
		}
		w.Start()
		c.watcher = w
	}

	return c, nil
}

func newCache(loader Loader, registry *config.Registry, opts Options, l *zap.SugaredLogger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = config.DefaultCacheMaxEntries
	}
	if opts.Name == "" {
		opts.Name = "default"
	}
	if registry == nil {
		registry = config.NewRegistry()
	}

	c := &Cache{
		loader:   loader,
		registry: registry,
		ttl:      opts.TTL,
		metrics:  newCacheMetrics(opts.Name),
		logger:   logger.OrDefault(l, "cache"),
	}
	if c.loader == nil {
		c.loader = vocab.NewLoader(nil, c.logger.Named("loader"))
	}
	c.lru = expirable.NewLRU(opts.MaxEntries, c.onEvict, opts.TTL)
	return c
}

// onEvict runs with the LRU lock held
func (c *Cache) onEvict(key string, doc *vocab.Document) {
	c.metrics.recordEviction()
	c.logger.Debugw("Evicted vocabulary",
		logger.FieldVocabulary, key,
		logger.FieldSource, doc.Source())
}

// target is a resolved cache request
type target struct {
	key    string
	handle string
	source config.Source
}

func (t target) flight() string {
	return t.key + "\x00" + t.source.Location
}

// resolve maps a logical key or a source location to its cache entry.
// Registered keys win; anything else that looks like a location is
// loaded directly. Unknown bare keys fail with config.ErrUnknownVocabulary.
func (c *Cache) resolve(keyOrURI string) (target, error) {
	name := strings.TrimSpace(keyOrURI)

	if src, ok := c.registry.Lookup(name); ok {
		return target{key: src.Key, handle: src.Key, source: src}, nil
	}

	if !IsLocation(name) {
		_, err := c.registry.Resolve(name)
		return target{}, err
	}

	key := URIKey(name)
	return target{
		key:    key,
		handle: name,
		source: config.Source{Key: key, Location: name},
	}, nil
}

// GetOrLoad returns the cached document for keyOrURI, loading it on a
// miss or after the entry expired.
func (c *Cache) GetOrLoad(ctx context.Context, keyOrURI string) (*vocab.Document, error) {
	t, err := c.resolve(keyOrURI)
	if err != nil {
		return nil, err
	}

	// Stripped location keys can collide; a document from another source
	// is a miss.
	l := c.logger.With(logger.FieldsFromContext(ctx)...)
	if doc, ok := c.lru.Get(t.key); ok && doc.Source() == t.source.Location {
		c.metrics.recordHit()
		l.Debugw("Vocabulary cache hit",
			logger.FieldVocabulary, t.key)
		return doc, nil
	}

	c.metrics.recordMiss()
	l.Debugw("Vocabulary cache miss",
		logger.FieldVocabulary, t.key,
		logger.FieldSource, t.source.Location)
	return c.load(ctx, t)
}

// Reload discards any cached document for keyOrURI and loads it again
func (c *Cache) Reload(ctx context.Context, keyOrURI string) (*vocab.Document, error) {
	t, err := c.resolve(keyOrURI)
	if err != nil {
		return nil, err
	}

	c.lru.Remove(t.key)
	c.group.Forget(t.flight())
	return c.load(ctx, t)
}

func (c *Cache) load(ctx context.Context, t target) (*vocab.Document, error) {
	v, err, shared := c.group.Do(t.flight(), func() (interface{}, error) {
		doc, err := c.loader.Load(logger.WithVocabulary(ctx, t.key), t.source.Location, vocab.LoadOptions{
			Handle:            t.handle,
			FullStructure:     t.source.FullStructure,
			VersionConstraint: t.source.VersionConstraint,
		})
		if err != nil {
			c.metrics.recordLoadError()
			return nil, errors.Wrapf(err, "vocabulary %s", t.handle)
		}

		c.metrics.recordLoad()
		c.lru.Add(t.key, doc)
		c.metrics.updateSize(c.lru.Len())
		c.watch(doc)
		return doc, nil
	})
	if err != nil {
		c.logger.Warnw("Failed to load vocabulary",
			logger.FieldVocabulary, t.key,
			logger.FieldSource, t.source.Location,
			logger.FieldError, err)
		return nil, err
	}

	if shared {
		c.logger.Debugw("Shared in-flight vocabulary load",
			logger.FieldVocabulary, t.key)
	}
	return v.(*vocab.Document), nil
}

func (c *Cache) watch(doc *vocab.Document) {
	if c.watcher == nil {
		return
	}
	path, ok := fetch.LocalPath(doc.Source())
	if !ok {
		return
	}
	if err := c.watcher.Add(path); err != nil {
		c.logger.Warnw("Cannot watch vocabulary source",
			logger.FieldPath, path,
			logger.FieldError, err)
	}
}

// Evict drops the cached document for keyOrURI. It reports whether an
// entry was present.
func (c *Cache) Evict(keyOrURI string) bool {
	t, err := c.resolve(keyOrURI)
	if err != nil {
		return false
	}
	removed := c.lru.Remove(t.key)
	c.metrics.updateSize(c.lru.Len())
	return removed
}

// evictPath drops every document loaded from the local file at path
func (c *Cache) evictPath(path string) {
	path = filepath.Clean(path)
	evicted := 0

	for _, key := range c.lru.Keys() {
		doc, ok := c.lru.Peek(key)
		if !ok {
			continue
		}
		local, isLocal := fetch.LocalPath(doc.Source())
		if isLocal && filepath.Clean(local) == path && c.lru.Remove(key) {
			evicted++
		}
	}

	c.metrics.updateSize(c.lru.Len())
	if evicted > 0 {
		c.logger.Infow("Evicted vocabularies after source change",
			logger.FieldPath, path,
			logger.FieldCount, evicted)
	}
}

// Expand fills the requested relationship collections of t (all of them
// when none are given), resolving its document through the cache.
func (c *Cache) Expand(ctx context.Context, t *vocab.Term, relations ...vocab.Relation) error {
	if t == nil {
		return errors.New("expand: nil term")
	}
	if t.Vocabulary == "" {
		return errors.WithHint(
			errors.Newf("expand %q: term has no vocabulary handle", t.Text),
			"only terms returned by a document query can be expanded")
	}

	doc, err := c.GetOrLoad(ctx, t.Vocabulary)
	if err != nil {
		return err
	}
	doc.Expand(t, relations...)
	return nil
}

// Keys returns the keys of live entries, oldest first
func (c *Cache) Keys() []string {
	return c.lru.Keys()
}

// Len returns the number of cached documents, including expired entries
// not yet swept.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// TTL returns the entry lifetime
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Registry returns the registry used to resolve logical keys
func (c *Cache) Registry() *config.Registry {
	return c.registry
}

// Purge drops every cached document
func (c *Cache) Purge() {
	c.lru.Purge()
	c.metrics.updateSize(0)
}

// Close stops the source watcher, if any
func (c *Cache) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

// IsLocation reports whether s reads as a path or URL rather than a bare
// logical key.
func IsLocation(s string) bool {
	return strings.ContainsAny(s, `/\.:~`)
}

// URIKey normalizes a source location to a cache key by dropping every
// character that is not a letter.
func URIKey(location string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, location)
}

var (
	defaultCache *Cache
	defaultMu    sync.Mutex
)

// Default returns the process-wide cache. Until SetDefault is called it
// loads with default fetch options and knows no logical keys.
func Default() *Cache {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCache == nil {
		defaultCache = newCache(nil, nil, Options{}, nil)
	}
	return defaultCache
}

// SetDefault replaces the process-wide cache and returns the previous one
func SetDefault(c *Cache) *Cache {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultCache
	defaultCache = c
	return prev
}
