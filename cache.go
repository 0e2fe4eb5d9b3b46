package pcre

import (
	"container/list"
	"sync"

	"github.com/magnetde/go-pcre/syntax"
)

// Maximum number of compiled patterns the package cache keeps.
// Compilation is cheap compared to matching, so a small cache is enough to
// absorb the usual pattern reuse of an application.
const maxRegexpCacheSize = 64

// cacheKey identifies a compiled pattern by its source and the options
// passed to Compile.
type cacheKey struct {
	pattern string
	options syntax.Options
}

// cacheEntry is the value stored in the cache list.
type cacheEntry struct {
	key cacheKey
	re  *Regexp
}

// regexpCache is a least-recently-used cache of compiled patterns.
// It is implemented with a map and a linked list; when the cache exceeds
// its maximum size, the oldest used element is purged.
type regexpCache struct {
	mu    sync.Mutex
	list  *list.List
	cache map[cacheKey]*list.Element
}

// newRegexpCache creates an empty cache.
func newRegexpCache() *regexpCache {
	return &regexpCache{
		list:  list.New(),
		cache: make(map[cacheKey]*list.Element),
	}
}

// get returns the cached pattern and marks it as recently used.
func (c *regexpCache) get(key cacheKey) (*Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok {
		return nil, false
	}

	c.list.MoveToFront(e)

	return e.Value.(cacheEntry).re, true
}

// put stores a compiled pattern, evicting the oldest entry when full.
func (c *regexpCache) put(key cacheKey, re *Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cache[key]; ok {
		return
	}

	c.cache[key] = c.list.PushFront(cacheEntry{key: key, re: re})

	if c.list.Len() > maxRegexpCacheSize {
		oldest := c.list.Back()
		c.list.Remove(oldest)
		delete(c.cache, oldest.Value.(cacheEntry).key)
	}
}

var compileCache = newRegexpCache()

// CompileCached is like Compile, but consults the package cache keyed by
// the pattern and the options. Errors are not cached.
func CompileCached(pattern string, opts syntax.Options) (*Regexp, error) {
	key := cacheKey{pattern: pattern, options: opts}

	if re, ok := compileCache.get(key); ok {
		return re, nil
	}

	re, err := Compile(pattern, opts)
	if err != nil {
		return nil, err
	}

	compileCache.put(key, re)

	return re, nil
}
