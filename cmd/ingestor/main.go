package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"tablebook/internal/adapters/feed"
	"tablebook/internal/adapters/memcache"
	"tablebook/internal/adapters/observability"
	redisad "tablebook/internal/adapters/redis"
	"tablebook/internal/app"
	"tablebook/internal/domain"
	"tablebook/internal/shared"
	mysqlrepo "tablebook/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	ids := shared.FeedIDs()
	log.Info().
		Str("base", cfg.FeedBase).
		Int("workers", cfg.Workers).
		Int("restaurants", len(ids)).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := feed.New(cfg.FeedBase, cfg.FeedKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize feed client")
	}
	var cache domain.Cache
	switch cfg.CacheBackend {
	case "redis":
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	default:
		// per-process cache: nothing to share with the API, but eviction
		// calls stay uniform across backends
		cache = memcache.New()
	}
	ing := app.NewIngestionService(client, repo, cache)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(restaurantID int64) {
			defer wg.Done()
			defer sem.Release(1)

			if err := ing.IngestRestaurant(ctx, restaurantID, cfg.ExpCount); err != nil {
				log.Warn().Int64("id", restaurantID).Err(err).Msg("ingest failed")
				return
			}
			log.Info().Int64("id", restaurantID).Msg("ingest ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}
