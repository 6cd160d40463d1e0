package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"rentmatch/internal/domain"
)

// SyncService pulls owners' published listings from the remote marketplace
// and upserts them into the local catalog. Updates replace records wholesale.
type SyncService struct {
	source domain.CatalogSource
	repo   domain.CatalogRepository
	cache  domain.Cache
	log    zerolog.Logger
}

func NewSyncService(source domain.CatalogSource, repo domain.CatalogRepository, cache domain.Cache, log zerolog.Logger) *SyncService {
	return &SyncService{source: source, repo: repo, cache: cache, log: log}
}

// SyncOwner ingests one owner's catalog. An owner unknown to the marketplace
// is not an error; the sync simply moves on. Malformed records were already
// skipped by the source adapter, and anything failing the catalog invariants
// here is dropped with a warning rather than aborting the batch.
func (s *SyncService) SyncOwner(ctx context.Context, ownerID int64) error {
	records, err := s.source.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Int64("owner", ownerID).Msg("owner not found upstream, skipping")
			return nil
		}
		return &domain.CollaboratorError{Op: "source.GetByOwner", Err: err}
	}

	stored := 0
	for _, r := range records {
		if !r.Valid() {
			s.log.Warn().Int64("owner", ownerID).Int64("property", r.ID).Msg("skipping invalid record")
			continue
		}
		if err := s.repo.UpsertProperty(ctx, r); err != nil {
			return fmt.Errorf("upsert property %d: %w", r.ID, err)
		}
		stored++
	}

	if stored > 0 && s.cache != nil {
		// Published set changed; drop the cached list so readers see it.
		_ = s.cache.Del(ctx, publishedCacheKey)
	}
	s.log.Info().Int64("owner", ownerID).Int("stored", stored).Msg("owner catalog synced")
	return nil
}

// SyncAll ingests the full published set in one pass.
func (s *SyncService) SyncAll(ctx context.Context) (int, error) {
	records, err := s.source.GetAllPublished(ctx)
	if err != nil {
		return 0, &domain.CollaboratorError{Op: "source.GetAllPublished", Err: err}
	}
	stored := 0
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		if err := s.repo.UpsertProperty(ctx, r); err != nil {
			return stored, fmt.Errorf("upsert property %d: %w", r.ID, err)
		}
		stored++
	}
	if stored > 0 && s.cache != nil {
		_ = s.cache.Del(ctx, publishedCacheKey)
	}
	return stored, nil
}
