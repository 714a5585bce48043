package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "tablebook/internal/adapters/http_server"
	"tablebook/internal/adapters/memcache"
	"tablebook/internal/adapters/observability"
	redisad "tablebook/internal/adapters/redis"
	"tablebook/internal/app"
	"tablebook/internal/auth"
	"tablebook/internal/domain"
	"tablebook/internal/shared"
	mysqlrepo "tablebook/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	var cache domain.Cache
	switch cfg.CacheBackend {
	case "redis":
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	default:
		cache = memcache.New()
	}
	log.Info().Str("backend", cfg.CacheBackend).Msg("cache ready")

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	b := app.NewBookingService(repo, repo, cache, cfg.CacheTTL)
	p := app.NewProfileService(repo, cfg.MaxPhotoKB)
	m := app.NewMessageService(repo, repo)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, B: b, P: p, M: m, Tokens: tokens})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
