// Package knowledge retrieves external benchmark knowledge through a
// fingerprint-keyed semantic cache so equivalent queries hit the network
// only once.
package knowledge

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// Fingerprint computes the deterministic cache key for a query: unicode
// NFKC fold, case fold, whitespace collapse, then SHA-256. This is cheap
// deterministic equality, not similarity search — queries that normalize
// identically share an entry, others do not.
func Fingerprint(query string) string {
	normalized := norm.NFKC.String(query)
	normalized = strings.ToLower(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	fingerprint string
	chunks      []model.KnowledgeChunk
	createdAt   time.Time
	ttl         time.Duration
	elem        *list.Element
}

// Cache is an in-memory fingerprint → result store with TTL and an LRU
// bound. It is owned by the orchestrator and injected — never a package
// singleton. Writes are idempotent, so re-caching the same fingerprint
// is harmless.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	lru        *list.List // front = most recently used
	maxEntries int
	defaultTTL time.Duration

	nowFunc func() time.Time
}

// NewCache creates a cache with the given LRU bound and default TTL.
func NewCache(maxEntries int, defaultTTL time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 512
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Cache{
		entries:    make(map[string]*entry),
		lru:        list.New(),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		nowFunc:    time.Now,
	}
}

// Get returns the cached payload for a query, or false on miss. An entry
// past its TTL is evicted and never returned.
func (c *Cache) Get(query string) ([]model.KnowledgeChunk, bool) {
	return c.GetByFingerprint(Fingerprint(query))
}

// GetByFingerprint is Get for a precomputed fingerprint.
func (c *Cache) GetByFingerprint(fp string) ([]model.KnowledgeChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fp]
	if !ok {
		return nil, false
	}
	if c.nowFunc().Sub(e.createdAt) >= e.ttl {
		c.removeLocked(e)
		return nil, false
	}
	c.lru.MoveToFront(e.elem)
	return e.chunks, true
}

// Set stores the payload for a query. A ttl of zero uses the default.
func (c *Cache) Set(query string, chunks []model.KnowledgeChunk, ttl time.Duration) {
	c.SetByFingerprint(Fingerprint(query), chunks, ttl)
}

// SetByFingerprint is Set for a precomputed fingerprint.
func (c *Cache) SetByFingerprint(fp string, chunks []model.KnowledgeChunk, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[fp]; ok {
		e.chunks = chunks
		e.createdAt = c.nowFunc()
		e.ttl = ttl
		c.lru.MoveToFront(e.elem)
		return
	}

	e := &entry{
		fingerprint: fp,
		chunks:      chunks,
		createdAt:   c.nowFunc(),
		ttl:         ttl,
	}
	e.elem = c.lru.PushFront(e)
	c.entries[fp] = e

	for len(c.entries) > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*entry))
	}
}

// Len returns the number of live entries (including any not yet lazily
// expired).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops all entries.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru.Init()
}

func (c *Cache) removeLocked(e *entry) {
	c.lru.Remove(e.elem)
	delete(c.entries, e.fingerprint)
}
