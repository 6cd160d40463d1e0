package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"rentmatch/internal/adapters/marketplace"
	"rentmatch/internal/adapters/observability"
	redisad "rentmatch/internal/adapters/redis"
	"rentmatch/internal/app"
	"rentmatch/internal/shared"
	mysqlrepo "rentmatch/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.MarketplaceBase).
		Int("workers", cfg.Workers).
		Int("owners", len(cfg.OwnerIDs)).
		Msg("syncer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := marketplace.New(cfg.MarketplaceBase, cfg.MarketplaceKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize marketplace client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	syncer := app.NewSyncService(client, repo, cache, log.Logger)

	if len(cfg.OwnerIDs) == 0 {
		// No owner list: pull the whole published set in one pass.
		stored, err := syncer.SyncAll(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("full sync failed")
		}
		log.Info().Int("stored", stored).Msg("full sync completed")
		return
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, id := range cfg.OwnerIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(ownerID int64) {
			defer wg.Done()
			defer sem.Release(1)

			if err := syncer.SyncOwner(ctx, ownerID); err != nil {
				log.Warn().Int64("owner", ownerID).Err(err).Msg("owner sync failed")
			}
		}(id)
	}

	wg.Wait()
	log.Info().Msg("sync completed")
}
