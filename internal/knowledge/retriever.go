package knowledge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// Source answers knowledge queries. Implemented by the Perplexity client
// adapter; the retriever does not care what backs it.
type Source interface {
	Search(ctx context.Context, query string) ([]model.KnowledgeChunk, error)
}

// PersistentCache is the optional store-backed cache tier consulted between
// the in-memory cache and the network.
type PersistentCache interface {
	GetKnowledge(ctx context.Context, fingerprint string) ([]model.KnowledgeChunk, bool, error)
	PutKnowledge(ctx context.Context, fingerprint string, chunks []model.KnowledgeChunk, ttl time.Duration) error
}

// Stats reports cache provenance for a retrieval batch. The confidence
// scorer uses it as evidence of external backing.
type Stats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
	Errors int `json:"errors"`
}

// Retriever batches knowledge queries: partition into cache hits and
// misses, fetch misses with bounded parallelism, populate the cache, and
// merge everything into one deduplicated chunk set.
type Retriever struct {
	cache       *Cache
	source      Source
	persist     PersistentCache // may be nil
	maxParallel int
	ttl         time.Duration

	group singleflight.Group
}

// NewRetriever creates a retriever over the given cache and source.
func NewRetriever(cache *Cache, source Source, maxParallel int, ttl time.Duration) *Retriever {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Retriever{
		cache:       cache,
		source:      source,
		maxParallel: maxParallel,
		ttl:         ttl,
	}
}

// WithPersistentCache adds a store-backed cache tier.
func (r *Retriever) WithPersistentCache(p PersistentCache) *Retriever {
	r.persist = p
	return r
}

// RetrieveAll resolves a batch of queries. A failed miss query records an
// error and contributes no chunks; it never fails the batch.
func (r *Retriever) RetrieveAll(ctx context.Context, queries []string) ([]model.KnowledgeChunk, Stats, []model.ErrorInfo) {
	var (
		stats  Stats
		errs   []model.ErrorInfo
		mu     sync.Mutex
		chunks []model.KnowledgeChunk
		misses []string
	)

	// Partition hits and misses up front; equivalent queries collapse to
	// one fingerprint.
	seen := make(map[string]struct{}, len(queries))
	for _, q := range queries {
		fp := Fingerprint(q)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}

		if cached, ok := r.cache.GetByFingerprint(fp); ok {
			stats.Hits++
			chunks = append(chunks, cached...)
			continue
		}
		misses = append(misses, q)
	}

	if len(misses) > 0 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(r.maxParallel)

		for _, q := range misses {
			g.Go(func() error {
				got, err := r.resolveMiss(gCtx, q)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					stats.Errors++
					errs = append(errs, model.ErrorInfo{
						Stage:   "knowledge",
						Kind:    model.ErrorKindTransient,
						Message: err.Error(),
					})
					return nil
				}
				stats.Misses++
				chunks = append(chunks, got...)
				return nil
			})
		}
		_ = g.Wait()
	}

	zap.L().Debug("knowledge: batch resolved",
		zap.Int("queries", len(queries)),
		zap.Int("hits", stats.Hits),
		zap.Int("misses", stats.Misses),
		zap.Int("errors", stats.Errors),
	)

	return dedupeChunks(chunks), stats, errs
}

// resolveMiss fetches one query, linearizing concurrent requests for the
// same fingerprint so only one network call is in flight per key.
func (r *Retriever) resolveMiss(ctx context.Context, query string) ([]model.KnowledgeChunk, error) {
	fp := Fingerprint(query)

	v, err, _ := r.group.Do(fp, func() (any, error) {
		// Re-check under singleflight: a concurrent caller may have filled it.
		if cached, ok := r.cache.GetByFingerprint(fp); ok {
			return cached, nil
		}

		if r.persist != nil {
			if stored, ok, perr := r.persist.GetKnowledge(ctx, fp); perr == nil && ok {
				r.cache.SetByFingerprint(fp, stored, r.ttl)
				return stored, nil
			}
		}

		got, serr := r.source.Search(ctx, query)
		if serr != nil {
			return nil, serr
		}

		r.cache.SetByFingerprint(fp, got, r.ttl)
		if r.persist != nil {
			if perr := r.persist.PutKnowledge(ctx, fp, got, r.ttl); perr != nil {
				zap.L().Warn("knowledge: persistent cache write failed", zap.Error(perr))
			}
		}
		return got, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.KnowledgeChunk), nil
}

// dedupeChunks drops chunks with an identical (source, title, text)
// identity, preserving first-seen order.
func dedupeChunks(chunks []model.KnowledgeChunk) []model.KnowledgeChunk {
	if len(chunks) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(chunks))
	out := make([]model.KnowledgeChunk, 0, len(chunks))
	for _, c := range chunks {
		key := c.Source + "\x1f" + c.Title + "\x1f" + c.Text
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
