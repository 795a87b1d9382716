package artifact

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int
	URLTTL         time.Duration
	URLMaxEntries  int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 256,
		// Presigned links live an hour; refresh well before that.
		URLTTL:        5 * time.Minute,
		URLMaxEntries: 1024,
	}
}

type MetricsSnapshot struct {
	BlobHits    uint64
	BlobMisses  uint64
	OriginReads uint64
}

// CachedStore is a read-through cache in front of an origin store.
type CachedStore struct {
	origin Store
	blobs  *expirable.LRU[string, []byte]
	urls   *expirable.LRU[string, string]

	blobHits    atomic.Uint64
	blobMisses  atomic.Uint64
	originReads atomic.Uint64
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = def.URLTTL
	}
	if cfg.URLMaxEntries <= 0 {
		cfg.URLMaxEntries = def.URLMaxEntries
	}
	return &CachedStore{
		origin: origin,
		blobs:  expirable.NewLRU[string, []byte](cfg.BlobMaxEntries, nil, cfg.BlobTTL),
		urls:   expirable.NewLRU[string, string](cfg.URLMaxEntries, nil, cfg.URLTTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, projectID, path string, content []byte) error {
	if err := s.origin.Put(ctx, projectID, path, content); err != nil {
		return err
	}
	key := objectKey(projectID, path)
	s.blobs.Add(key, append([]byte(nil), content...))
	s.urls.Remove(key)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, projectID, path string) ([]byte, error) {
	key := objectKey(projectID, path)
	if raw, ok := s.blobs.Get(key); ok {
		s.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.blobMisses.Add(1)
	s.originReads.Add(1)
	raw, err := s.origin.Get(ctx, projectID, path)
	if err != nil {
		return nil, err
	}
	s.blobs.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

func (s *CachedStore) GetURL(ctx context.Context, projectID, path string) (string, error) {
	key := objectKey(projectID, path)
	if u, ok := s.urls.Get(key); ok {
		return u, nil
	}
	u, err := s.origin.GetURL(ctx, projectID, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(u) != "" {
		s.urls.Add(key, u)
	}
	return u, nil
}

func (s *CachedStore) Delete(ctx context.Context, projectID, path string) error {
	key := objectKey(projectID, path)
	s.blobs.Remove(key)
	s.urls.Remove(key)
	return s.origin.Delete(ctx, projectID, path)
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		BlobHits:    s.blobHits.Load(),
		BlobMisses:  s.blobMisses.Load(),
		OriginReads: s.originReads.Load(),
	}
}
