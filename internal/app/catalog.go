package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rentmatch/internal/domain"
)

const publishedCacheKey = "catalog:published"

// CatalogService serves the currently-known set of published records with a
// cache in front of the repository. Records violating the catalog invariants
// are skipped on read, never surfaced.
type CatalogService struct {
	repo     domain.CatalogRepository
	cache    domain.Cache
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewCatalogService(repo domain.CatalogRepository, cache domain.Cache, ttl time.Duration, log zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, cacheTTL: ttl, log: log}
}

// Published returns the denormalized published catalog in stable store order.
func (s *CatalogService) Published(ctx context.Context) ([]domain.PropertyRecord, error) {
	var cached []domain.PropertyRecord
	if ok, _ := s.cache.Get(ctx, publishedCacheKey, &cached); ok {
		return cached, nil
	}

	records, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, &domain.CollaboratorError{Op: "catalog.ListPublished", Err: err}
	}

	kept := records[:0]
	skipped := 0
	for _, r := range records {
		if !r.Valid() {
			skipped++
			continue
		}
		kept = append(kept, r)
	}
	if skipped > 0 {
		s.log.Warn().Int("skipped", skipped).Msg("dropped malformed catalog records")
	}

	_ = s.cache.Set(ctx, publishedCacheKey, kept, int(s.cacheTTL.Seconds()))
	return kept, nil
}

// Get returns one record by id. ErrNotFound passes through untouched so
// callers can distinguish a miss from an infrastructure failure.
func (s *CatalogService) Get(ctx context.Context, id int64) (domain.PropertyRecord, error) {
	key := fmt.Sprintf("property:%d", id)
	var cached domain.PropertyRecord
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PropertyRecord{}, domain.ErrNotFound
		}
		return domain.PropertyRecord{}, &domain.CollaboratorError{Op: "catalog.GetProperty", Err: err}
	}
	_ = s.cache.Set(ctx, key, p, int(s.cacheTTL.Seconds()))
	return p, nil
}

// Invalidate drops the published-list cache entry, forcing the next read to
// hit the repository.
func (s *CatalogService) Invalidate(ctx context.Context) {
	_ = s.cache.Del(ctx, publishedCacheKey)
}
